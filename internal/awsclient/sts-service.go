// STS API operations.

package awsclient

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/aws/aws-sdk-go/service/sts/stsiface"
)

// IdentityResolver looks up the account the credentials belong to.
type IdentityResolver interface {
	AccountID(ctx context.Context) (string, error)
}

// IdentityService implements IdentityResolver on STS.
type IdentityService struct {
	STSsvc stsiface.STSAPI
}

func NewIdentityService(svc stsiface.STSAPI) *IdentityService {
	return &IdentityService{STSsvc: svc}
}

func (s *IdentityService) AccountID(ctx context.Context) (string, error) {
	out, err := s.STSsvc.GetCallerIdentityWithContext(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", newRemoteError("sts:GetCallerIdentity", err)
	}
	if aws.StringValue(out.Account) == "" {
		return "", missingField("sts:GetCallerIdentity", "Account")
	}
	return aws.StringValue(out.Account), nil
}
