package v1alpha1

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("EventWiringStatus", func() {
	It("starts with every step not attempted, in order", func() {
		st := NewEventWiringStatus()
		Expect(st.Steps).To(HaveLen(len(Steps)))
		for i, step := range Steps {
			Expect(st.Steps[i].Step).To(Equal(step))
			Expect(st.Steps[i].State).To(Equal(NOT_ATTEMPTED_STATE))
		}
		Expect(st.Ready()).To(BeFalse())
	})

	It("records step outcomes in place", func() {
		st := NewEventWiringStatus()
		st.SetStep(StepCreateTopic, FAILED_STATE, "denied")
		Expect(st.StepState(StepCreateTopic)).To(Equal(FAILED_STATE))
		Expect(st.Steps).To(HaveLen(len(Steps)))
		Expect(st.Steps[1].Message).To(Equal("denied"))
	})

	It("is ready once the notification is configured", func() {
		st := NewEventWiringStatus()
		st.SetStep(StepConfigureNotification, SUCCEEDED_STATE, "")
		Expect(st.Ready()).To(BeTrue())
		Expect(st.Data()).To(HaveKeyWithValue("Ready", "true"))
	})

	It("flattens into ConfigMap data", func() {
		st := NewEventWiringStatus()
		st.QueueArn = "arn:aws:sqs:us-west-2:123456789012:crawler"
		st.SetStep(StepSubscribeQueue, PENDING_CONFIRMATION_STATE, "pending confirmation")
		data := st.Data()
		Expect(data).To(HaveKeyWithValue("QueueArn", st.QueueArn))
		Expect(data).To(HaveKeyWithValue("step.SubscribeQueue", PENDING_CONFIRMATION_STATE))
		Expect(data).To(HaveKeyWithValue("step.EnsureBucket", NOT_ATTEMPTED_STATE))
	})

	It("renders a one-line summary", func() {
		st := NewEventWiringStatus()
		st.SetStep(StepEnsureBucket, SKIPPED_STATE, "")
		Expect(st.String()).To(HavePrefix("EnsureBucket=SKIPPED CreateTopic=NOT_ATTEMPTED"))
	})
})
