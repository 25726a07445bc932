package recorder

import (
	"bytes"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Recorder", func() {
	It("prints normal events as plain lines and flags warnings", func() {
		var out bytes.Buffer
		r := New(&out, logr.Discard())
		r.Normal("TopicCreated", "SNS topic created successfully: arn:aws:sns:us-west-2:1:t")
		r.Warning("QueuePolicyFailed", "Failed to set queue policy.")

		Expect(out.String()).To(Equal(
			"SNS topic created successfully: arn:aws:sns:us-west-2:1:t\n" +
				"WARNING QueuePolicyFailed: Failed to set queue policy.\n"))
	})

	It("keeps events in memory in order", func() {
		m := NewMemory()
		m.Normal("A", "first")
		m.Warning("B", "second")
		Expect(m.Reasons()).To(Equal([]string{"A", "B"}))
		Expect(m.Events[1].Type).To(Equal(EventTypeWarning))
	})
})
