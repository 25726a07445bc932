// SNS API operations.

package awsclient

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/arn"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
)

const (
	// ProtocolSQS is the subscription protocol for queue endpoints.
	ProtocolSQS = "sqs"

	pendingConfirmation = "pending confirmation"
	topicPolicyAttr     = "Policy"
)

// TopicManager defines the fan-out topic operations.
type TopicManager interface {
	CreateTopic(ctx context.Context, name string) (topicArn string, err error)
	SetTopicPolicy(ctx context.Context, topicArn, policy string) error
	SubscribeQueue(ctx context.Context, topicArn, queueArn string) (subscriptionArn string, err error)
}

// TopicService implements TopicManager on SNS.
type TopicService struct {
	SNSsvc snsiface.SNSAPI
}

// NewTopicService returns the SNS implementation.
func NewTopicService(svc snsiface.SNSAPI) *TopicService {
	return &TopicService{SNSsvc: svc}
}

// CreateTopic creates the topic, or returns the ARN of an existing one with the same name.
func (s *TopicService) CreateTopic(ctx context.Context, name string) (string, error) {
	out, err := s.SNSsvc.CreateTopicWithContext(ctx, &sns.CreateTopicInput{
		Name: aws.String(name),
	})
	if err != nil {
		return "", newRemoteError("sns:CreateTopic", err)
	}
	topicArn := aws.StringValue(out.TopicArn)
	if !arn.IsARN(topicArn) {
		return "", missingField("sns:CreateTopic", "TopicArn")
	}
	return topicArn, nil
}

// SetTopicPolicy overwrites the topic access policy.
func (s *TopicService) SetTopicPolicy(ctx context.Context, topicArn, policy string) error {
	_, err := s.SNSsvc.SetTopicAttributesWithContext(ctx, &sns.SetTopicAttributesInput{
		TopicArn:       aws.String(topicArn),
		AttributeName:  aws.String(topicPolicyAttr),
		AttributeValue: aws.String(policy),
	})
	if err != nil {
		return newRemoteError("sns:SetTopicAttributes", err)
	}
	return nil
}

// SubscribeQueue subscribes the queue to the topic.
func (s *TopicService) SubscribeQueue(ctx context.Context, topicArn, queueArn string) (string, error) {
	out, err := s.SNSsvc.SubscribeWithContext(ctx, &sns.SubscribeInput{
		TopicArn: aws.String(topicArn),
		Protocol: aws.String(ProtocolSQS),
		Endpoint: aws.String(queueArn),
	})
	if err != nil {
		return "", newRemoteError("sns:Subscribe", err)
	}
	if out.SubscriptionArn == nil {
		return "", missingField("sns:Subscribe", "SubscriptionArn")
	}
	return aws.StringValue(out.SubscriptionArn), nil
}

// IsPendingConfirmation reports whether SNS returned the placeholder instead of a subscription ARN.
func IsPendingConfirmation(subscriptionArn string) bool {
	return strings.Contains(subscriptionArn, pendingConfirmation)
}
