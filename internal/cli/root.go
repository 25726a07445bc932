package cli

import (
	"context"
	goflag "flag"
	"fmt"

	"github.com/spf13/cobra"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client"
	kubeconfig "sigs.k8s.io/controller-runtime/pkg/client/config"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	api "github.com/victorbecerragit/s3-event-setup/api/v1alpha1"
	"github.com/victorbecerragit/s3-event-setup/internal/awsclient"
	"github.com/victorbecerragit/s3-event-setup/internal/config"
	recorder "github.com/victorbecerragit/s3-event-setup/internal/events"
	"github.com/victorbecerragit/s3-event-setup/internal/provisioner"
	"github.com/victorbecerragit/s3-event-setup/internal/status"
)

// Runner executes a provisioning run.
type Runner interface {
	Run(ctx context.Context, spec api.EventWiringSpec) (*api.EventWiringStatus, error)
}

// Deps are the collaborators the command builds at run time. Zero fields use the real implementations.
type Deps struct {
	NewRunner     func(cfg config.Config, rec recorder.Recorder) (Runner, error)
	NewKubeClient func() (client.Client, error)
}

func (d Deps) withDefaults() Deps {
	if d.NewRunner == nil {
		d.NewRunner = newAWSRunner
	}
	if d.NewKubeClient == nil {
		d.NewKubeClient = newKubeClient
	}
	return d
}

func newAWSRunner(cfg config.Config, rec recorder.Recorder) (Runner, error) {
	sess, err := awsclient.NewSession(awsclient.SessionConfig{
		Region:   cfg.Region,
		Endpoint: cfg.Endpoint,
		Profile:  cfg.Profile,
	})
	if err != nil {
		return nil, err
	}
	return provisioner.New(awsclient.NewClients(sess), rec), nil
}

func newKubeClient() (client.Client, error) {
	restCfg, err := kubeconfig.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("load kubeconfig: %w", err)
	}
	return client.New(restCfg, client.Options{Scheme: clientgoscheme.Scheme})
}

// NewRootCommand builds the s3-event-setup command. Environment variables seed the flag defaults.
func NewRootCommand(deps Deps) (*cobra.Command, error) {
	deps = deps.withDefaults()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	zapOpts := zap.Options{Development: true}
	goFlags := goflag.NewFlagSet("zap", goflag.ContinueOnError)
	zapOpts.BindFlags(goFlags)

	cmd := &cobra.Command{
		Use:   "s3-event-setup",
		Short: "Wire S3 bucket events to an SQS queue through an SNS topic",
		Long: "Creates an SNS topic and an SQS queue, subscribes the queue to the topic, authorizes the bucket " +
			"to publish and routes object create/remove events under a prefix to the topic. " +
			"The queue ARN printed at the end is what the S3 event crawler consumes.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logf.SetLogger(zap.New(zap.UseFlagOptions(&zapOpts), zap.WriteTo(cmd.ErrOrStderr())))
			log := logf.Log.WithName("s3-event-setup")
			ctx := logf.IntoContext(cmd.Context(), log)

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			rec := recorder.New(cmd.OutOrStdout(), log)
			runner, err := deps.NewRunner(cfg, rec)
			if err != nil {
				return err
			}

			spec := cfg.Spec()
			st, runErr := runner.Run(ctx, spec)

			if cfg.ConfigMap != "" && st != nil {
				if err := publish(ctx, deps, cfg, spec, st); err != nil {
					rec.Warning("ConfigMapFailed", err.Error())
					if runErr == nil {
						runErr = err
					}
				}
			}

			if st != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "\nSummary: %s\n", st.String())
			}
			return runErr
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.Region, "region", cfg.Region, "AWS region for every resource")
	flags.StringVar(&cfg.BucketName, "bucket", cfg.BucketName, "S3 bucket whose events are wired")
	flags.StringVar(&cfg.Prefix, "prefix", cfg.Prefix, "Object key prefix the notification is filtered to")
	flags.StringVar(&cfg.Name, "name", cfg.Name, "Name shared by the SNS topic, SQS queue and notification id")
	flags.BoolVar(&cfg.CreateBucket, "create-bucket", cfg.CreateBucket, "Create the bucket instead of assuming it exists")
	flags.BoolVar(&cfg.CreateFolder, "create-folder", cfg.CreateFolder, "Write a <prefix>/ marker object after the bucket is ensured")
	flags.StringVar(&cfg.AccountID, "account-id", cfg.AccountID, "AWS account id (skips the STS lookup)")
	flags.BoolVar(&cfg.FailFast, "fail-fast", cfg.FailFast, "Skip topic policy and bucket notification when the queue subscription fails")
	flags.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "AWS endpoint override, e.g. http://localhost:4566")
	flags.StringVar(&cfg.Profile, "profile", cfg.Profile, "Shared AWS config profile")
	flags.StringVar(&cfg.ConfigMap, "configmap", cfg.ConfigMap, "Publish the run status to this ConfigMap")
	flags.StringVar(&cfg.Namespace, "namespace", cfg.Namespace, "Namespace of --configmap")
	flags.AddGoFlagSet(goFlags)

	return cmd, nil
}

func publish(ctx context.Context, deps Deps, cfg config.Config, spec api.EventWiringSpec, st *api.EventWiringStatus) error {
	c, err := deps.NewKubeClient()
	if err != nil {
		return err
	}
	return status.New(c, cfg.Namespace, cfg.ConfigMap).UpdateWiringStatus(ctx, spec, st)
}

// Execute runs the command with the real AWS and Kubernetes clients.
func Execute(ctx context.Context) error {
	cmd, err := NewRootCommand(Deps{})
	if err != nil {
		return err
	}
	return cmd.ExecuteContext(ctx)
}
