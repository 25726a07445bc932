// S3 API operations.

package awsclient

import (
	"bytes"
	"context"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
)

// us-east-1 rejects an explicit location constraint.
const defaultRegion = "us-east-1"

// NotificationEvents are the event categories routed to the topic.
var NotificationEvents = []string{
	s3.EventS3ObjectCreated,
	s3.EventS3ObjectRemoved,
}

// TopicNotification binds bucket events under Prefix to TopicArn.
type TopicNotification struct {
	Bucket   string
	ID       string
	TopicArn string
	Prefix   string
}

// BucketManager defines the bucket operations.
type BucketManager interface {
	EnsureBucket(ctx context.Context, name, region string) (existed bool, err error)
	CreateFolder(ctx context.Context, bucket, prefix string) error
	PutTopicNotification(ctx context.Context, n TopicNotification) error
}

// BucketService implements BucketManager on S3.
type BucketService struct {
	S3svc s3iface.S3API
}

// NewBucketService returns the S3 implementation.
func NewBucketService(svc s3iface.S3API) *BucketService {
	return &BucketService{S3svc: svc}
}

// EnsureBucket creates a private bucket. A bucket the caller already owns is not an error.
func (s *BucketService) EnsureBucket(ctx context.Context, name, region string) (bool, error) {
	log := logf.FromContext(ctx)

	input := &s3.CreateBucketInput{
		Bucket: aws.String(name),
		ACL:    aws.String(s3.BucketCannedACLPrivate),
	}
	if region != "" && region != defaultRegion {
		input.CreateBucketConfiguration = &s3.CreateBucketConfiguration{
			LocationConstraint: aws.String(region),
		}
	}

	_, err := s.S3svc.CreateBucketWithContext(ctx, input)
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			switch aerr.Code() {
			case s3.ErrCodeBucketAlreadyOwnedByYou:
				log.Info("Bucket already owned by caller", "BucketName", name)
				return true, nil
			}
		}
		return false, newRemoteError("s3:CreateBucket", err)
	}
	return false, nil
}

// CreateFolder writes an empty "<prefix>/" marker object.
func (s *BucketService) CreateFolder(ctx context.Context, bucket, prefix string) error {
	key := strings.TrimSuffix(prefix, "/") + "/"
	_, err := s.S3svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(nil),
	})
	if err != nil {
		return newRemoteError("s3:PutObject", err)
	}
	return nil
}

// PutTopicNotification replaces the bucket notification configuration with a single topic binding.
func (s *BucketService) PutTopicNotification(ctx context.Context, n TopicNotification) error {
	_, err := s.S3svc.PutBucketNotificationConfigurationWithContext(ctx, &s3.PutBucketNotificationConfigurationInput{
		Bucket: aws.String(n.Bucket),
		NotificationConfiguration: &s3.NotificationConfiguration{
			TopicConfigurations: []*s3.TopicConfiguration{{
				Id:       aws.String(n.ID),
				TopicArn: aws.String(n.TopicArn),
				Events:   aws.StringSlice(NotificationEvents),
				Filter: &s3.NotificationConfigurationFilter{
					Key: &s3.KeyFilter{
						FilterRules: []*s3.FilterRule{{
							Name:  aws.String(s3.FilterRuleNamePrefix),
							Value: aws.String(n.Prefix),
						}},
					},
				},
			}},
		},
	})
	if err != nil {
		return newRemoteError("s3:PutBucketNotificationConfiguration", err)
	}
	return nil
}
