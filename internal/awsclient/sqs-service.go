// SQS API operations.

package awsclient

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/arn"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
)

// QueueManager defines the queue operations.
type QueueManager interface {
	CreateQueue(ctx context.Context, name string) (queueURL string, err error)
	QueueArn(ctx context.Context, queueURL string) (string, error)
	SetQueuePolicy(ctx context.Context, queueURL, policy string) error
}

// QueueService implements QueueManager on SQS.
type QueueService struct {
	SQSsvc sqsiface.SQSAPI
}

// NewQueueService returns the SQS implementation.
func NewQueueService(svc sqsiface.SQSAPI) *QueueService {
	return &QueueService{SQSsvc: svc}
}

func (s *QueueService) CreateQueue(ctx context.Context, name string) (string, error) {
	out, err := s.SQSsvc.CreateQueueWithContext(ctx, &sqs.CreateQueueInput{
		QueueName: aws.String(name),
	})
	if err != nil {
		return "", newRemoteError("sqs:CreateQueue", err)
	}
	if aws.StringValue(out.QueueUrl) == "" {
		return "", missingField("sqs:CreateQueue", "QueueUrl")
	}
	return aws.StringValue(out.QueueUrl), nil
}

func (s *QueueService) QueueArn(ctx context.Context, queueURL string) (string, error) {
	out, err := s.SQSsvc.GetQueueAttributesWithContext(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       aws.String(queueURL),
		AttributeNames: aws.StringSlice([]string{sqs.QueueAttributeNameQueueArn}),
	})
	if err != nil {
		return "", newRemoteError("sqs:GetQueueAttributes", err)
	}
	queueArn := aws.StringValue(out.Attributes[sqs.QueueAttributeNameQueueArn])
	if !arn.IsARN(queueArn) {
		return "", missingField("sqs:GetQueueAttributes", sqs.QueueAttributeNameQueueArn)
	}
	return queueArn, nil
}

func (s *QueueService) SetQueuePolicy(ctx context.Context, queueURL, policy string) error {
	_, err := s.SQSsvc.SetQueueAttributesWithContext(ctx, &sqs.SetQueueAttributesInput{
		QueueUrl: aws.String(queueURL),
		Attributes: map[string]*string{
			sqs.QueueAttributeNamePolicy: aws.String(policy),
		},
	})
	if err != nil {
		return newRemoteError("sqs:SetQueueAttributes", err)
	}
	return nil
}
