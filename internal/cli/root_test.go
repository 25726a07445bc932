package cli

import (
	"bytes"
	"context"
	"errors"
	"os"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	api "github.com/victorbecerragit/s3-event-setup/api/v1alpha1"
	"github.com/victorbecerragit/s3-event-setup/internal/config"
	recorder "github.com/victorbecerragit/s3-event-setup/internal/events"
)

type stubRunner struct {
	spec   api.EventWiringSpec
	rec    recorder.Recorder
	status *api.EventWiringStatus
	err    error
}

func (s *stubRunner) Run(_ context.Context, spec api.EventWiringSpec) (*api.EventWiringStatus, error) {
	s.spec = spec
	s.rec.Normal("TopicCreated", "SNS topic created successfully: arn:aws:sns:us-west-2:123456789012:crawler")
	return s.status, s.err
}

var _ = Describe("Root command", func() {
	var (
		runner *stubRunner
		kube   client.Client
		deps   Deps
		out    *bytes.Buffer
	)

	execute := func(args ...string) error {
		cmd, err := NewRootCommand(deps)
		Expect(err).NotTo(HaveOccurred())
		cmd.SetArgs(args)
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		return cmd.Execute()
	}

	BeforeEach(func() {
		st := api.NewEventWiringStatus()
		st.QueueArn = "arn:aws:sqs:us-west-2:123456789012:crawler"
		for _, step := range api.Steps {
			st.SetStep(step, api.SUCCEEDED_STATE, "")
		}
		runner = &stubRunner{status: st}
		kube = fake.NewClientBuilder().Build()
		out = &bytes.Buffer{}
		deps = Deps{
			NewRunner: func(_ config.Config, rec recorder.Recorder) (Runner, error) {
				runner.rec = rec
				return runner, nil
			},
			NewKubeClient: func() (client.Client, error) { return kube, nil },
		}
	})

	It("passes flags through to the run and prints progress", func() {
		err := execute("--bucket", "events-bucket", "--name", "crawler", "--prefix", "logs",
			"--create-bucket", "--fail-fast", "--account-id", "123456789012")
		Expect(err).NotTo(HaveOccurred())
		Expect(runner.spec).To(Equal(api.EventWiringSpec{
			Region:       "us-west-2",
			BucketName:   "events-bucket",
			Prefix:       "logs",
			Name:         "crawler",
			CreateBucket: true,
			AccountID:    "123456789012",
			FailFast:     true,
		}))
		Expect(out.String()).To(ContainSubstring("SNS topic created successfully"))
		Expect(out.String()).To(ContainSubstring("Summary: EnsureBucket=SUCCEEDED"))
	})

	It("seeds defaults from the environment", func() {
		Expect(os.Setenv("S3EVENT_BUCKET_NAME", "env-bucket")).To(Succeed())
		Expect(os.Setenv("S3EVENT_NAME", "env-name")).To(Succeed())
		defer os.Unsetenv("S3EVENT_BUCKET_NAME")
		defer os.Unsetenv("S3EVENT_NAME")

		Expect(execute()).To(Succeed())
		Expect(runner.spec.BucketName).To(Equal("env-bucket"))
		Expect(runner.spec.Name).To(Equal("env-name"))
	})

	It("rejects an invalid configuration before calling AWS", func() {
		err := execute("--name", "crawler")
		Expect(err).To(MatchError(ContainSubstring("invalid configuration")))
		Expect(runner.rec).To(BeNil())
	})

	It("returns the run error so the process exits non-zero", func() {
		runner.err = errors.New("failed to create SNS topic")
		err := execute("--bucket", "events-bucket", "--name", "crawler")
		Expect(err).To(MatchError("failed to create SNS topic"))
	})

	It("publishes the status to a ConfigMap when asked", func() {
		err := execute("--bucket", "events-bucket", "--name", "crawler",
			"--configmap", "crawler-s3-events", "--namespace", "crawlers")
		Expect(err).NotTo(HaveOccurred())

		cm := &corev1.ConfigMap{}
		Expect(kube.Get(context.Background(), types.NamespacedName{Namespace: "crawlers", Name: "crawler-s3-events"}, cm)).To(Succeed())
		Expect(cm.Data).To(HaveKeyWithValue("QueueArn", "arn:aws:sqs:us-west-2:123456789012:crawler"))
	})
})
