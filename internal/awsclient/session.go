// Package awsclient wraps the S3, SNS, SQS and STS control-plane calls used to wire bucket events to a queue.
package awsclient

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/aws/aws-sdk-go/service/sts/stsiface"
)

const userAgent = "s3-event-setup"

// SessionConfig selects the region and credentials source.
type SessionConfig struct {
	Region string
	// Endpoint overrides every service endpoint and switches S3 to path-style addressing.
	Endpoint string
	// Profile names a shared config profile; empty uses the default chain.
	Profile string
}

// Clients bundles the raw service clients.
type Clients struct {
	S3  s3iface.S3API
	SNS snsiface.SNSAPI
	SQS sqsiface.SQSAPI
	STS stsiface.STSAPI
}

// NewSession builds an AWS session from cfg.
func NewSession(cfg SessionConfig) (*session.Session, error) {
	awsCfg := aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            awsCfg,
		Profile:           cfg.Profile,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("create aws session in region %s: %w", cfg.Region, err)
	}
	sess.Handlers.Build.PushBack(request.MakeAddToUserAgentFreeFormHandler(userAgent))
	return sess, nil
}

// NewClients creates one client per service from sess.
func NewClients(sess *session.Session) *Clients {
	return &Clients{
		S3:  s3.New(sess),
		SNS: sns.New(sess),
		SQS: sqs.New(sess),
		STS: sts.New(sess),
	}
}
