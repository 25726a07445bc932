package provisioner

import (
	"context"

	"github.com/victorbecerragit/s3-event-setup/internal/awsclient"
)

// backend simulates the AWS control plane and records every call in order.
type backend struct {
	calls []string

	account         string
	topicArn        string
	queueURL        string
	queueArn        string
	subscriptionArn string

	bucketExisted bool
	errs          map[string]error

	queuePolicy  string
	topicPolicy  string
	notification awsclient.TopicNotification
}

func newBackend() *backend {
	return &backend{
		account:         "123456789012",
		topicArn:        "arn:aws:sns:us-west-2:123456789012:crawler",
		queueURL:        "https://sqs.us-west-2.amazonaws.com/123456789012/crawler",
		queueArn:        "arn:aws:sqs:us-west-2:123456789012:crawler",
		subscriptionArn: "arn:aws:sns:us-west-2:123456789012:crawler:7f1c",
		errs:            map[string]error{},
	}
}

func (b *backend) call(op string) error {
	b.calls = append(b.calls, op)
	return b.errs[op]
}

func (b *backend) AccountID(context.Context) (string, error) {
	if err := b.call("AccountID"); err != nil {
		return "", err
	}
	return b.account, nil
}

func (b *backend) EnsureBucket(_ context.Context, _, _ string) (bool, error) {
	if err := b.call("EnsureBucket"); err != nil {
		return false, err
	}
	return b.bucketExisted, nil
}

func (b *backend) CreateFolder(_ context.Context, _, _ string) error {
	return b.call("CreateFolder")
}

func (b *backend) PutTopicNotification(_ context.Context, n awsclient.TopicNotification) error {
	b.notification = n
	return b.call("PutTopicNotification")
}

func (b *backend) CreateTopic(_ context.Context, _ string) (string, error) {
	if err := b.call("CreateTopic"); err != nil {
		return "", err
	}
	return b.topicArn, nil
}

func (b *backend) SetTopicPolicy(_ context.Context, _, doc string) error {
	b.topicPolicy = doc
	return b.call("SetTopicPolicy")
}

func (b *backend) SubscribeQueue(_ context.Context, _, _ string) (string, error) {
	if err := b.call("SubscribeQueue"); err != nil {
		return "", err
	}
	return b.subscriptionArn, nil
}

func (b *backend) CreateQueue(_ context.Context, _ string) (string, error) {
	if err := b.call("CreateQueue"); err != nil {
		return "", err
	}
	return b.queueURL, nil
}

func (b *backend) QueueArn(_ context.Context, _ string) (string, error) {
	if err := b.call("QueueArn"); err != nil {
		return "", err
	}
	return b.queueArn, nil
}

func (b *backend) SetQueuePolicy(_ context.Context, _, doc string) error {
	b.queuePolicy = doc
	return b.call("SetQueuePolicy")
}
