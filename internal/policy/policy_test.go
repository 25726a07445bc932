package policy

import (
	"encoding/json"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

const (
	topicArn = "arn:aws:sns:us-west-2:123456789012:crawler"
	queueArn = "arn:aws:sqs:us-west-2:123456789012:crawler"
)

var _ = Describe("Policy documents", func() {
	Context("QueuePolicy", func() {
		It("authorizes exactly the topic to send to the queue", func() {
			doc, err := QueuePolicy(queueArn, topicArn).JSON()
			Expect(err).NotTo(HaveOccurred())
			Expect(doc).To(MatchJSON(`{
				"Version": "2012-10-17",
				"Id": "AllowSNSPublish",
				"Statement": [{
					"Sid": "AllowSNSPublish01",
					"Effect": "Allow",
					"Principal": "*",
					"Action": "SQS:SendMessage",
					"Resource": "` + queueArn + `",
					"Condition": {"ArnEquals": {"aws:SourceArn": "` + topicArn + `"}}
				}]
			}`))
		})
	})

	Context("TopicPolicy", func() {
		It("authorizes exactly the account and bucket to publish", func() {
			doc, err := TopicPolicy(topicArn, "123456789012", "events-bucket").JSON()
			Expect(err).NotTo(HaveOccurred())
			Expect(doc).To(MatchJSON(`{
				"Version": "2008-10-17",
				"Id": "s3-publish-to-sns",
				"Statement": [{
					"Effect": "Allow",
					"Principal": {"AWS": "*"},
					"Action": "SNS:Publish",
					"Resource": "` + topicArn + `",
					"Condition": {
						"StringEquals": {"AWS:SourceAccount": "123456789012"},
						"ArnLike": {"aws:SourceArn": "arn:aws:s3:*:*:events-bucket"}
					}
				}]
			}`))
		})

		It("escapes values instead of interpolating them", func() {
			doc, err := TopicPolicy(topicArn, "123456789012", `evil"},"x":{"`).JSON()
			Expect(err).NotTo(HaveOccurred())
			parsed, err := Parse(doc)
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed.Statement).To(HaveLen(1))
			Expect(parsed.Statement[0].Condition["ArnLike"]["aws:SourceArn"]).
				To(Equal(StringOrSlice{`arn:aws:s3:*:*:evil"},"x":{"`}))
		})
	})

	Context("Validate", func() {
		It("rejects an empty statement list", func() {
			_, err := (&Document{Version: Version2012_10_17}).JSON()
			Expect(err).To(MatchError(ContainSubstring("at least one statement")))
		})

		It("rejects an unknown version", func() {
			d := QueuePolicy(queueArn, topicArn)
			d.Version = "2020-01-01"
			Expect(d.Validate()).To(MatchError(ContainSubstring("unsupported policy version")))
		})

		It("rejects a missing resource", func() {
			Expect(QueuePolicy("", topicArn).Validate()).To(MatchError(ContainSubstring("resource is required")))
		})
	})

	Context("StringOrSlice", func() {
		It("round trips multiple values as an array", func() {
			b, err := json.Marshal(StringOrSlice{"a", "b"})
			Expect(err).NotTo(HaveOccurred())
			Expect(string(b)).To(Equal(`["a","b"]`))

			var s StringOrSlice
			Expect(json.Unmarshal([]byte(`"a"`), &s)).To(Succeed())
			Expect(s).To(Equal(StringOrSlice{"a"}))
		})
	})

	It("parses the wildcard principal back", func() {
		doc, err := QueuePolicy(queueArn, topicArn).JSON()
		Expect(err).NotTo(HaveOccurred())
		parsed, err := Parse(doc)
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed.Statement[0].Principal.Wildcard).To(BeTrue())
	})
})
