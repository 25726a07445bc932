package awsclient

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws/awserr"
)

// RemoteError is returned for any failed control-plane call.
type RemoteError struct {
	// Op names the API call, e.g. "sns:CreateTopic".
	Op         string
	Code       string
	Message    string
	RequestID  string
	StatusCode int
	Err        error
}

func (e *RemoteError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Code != "" {
		b.WriteString(": ")
		b.WriteString(e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.RequestID != "" {
		b.WriteString(" RequestId: ")
		b.WriteString(e.RequestID)
	}
	return b.String()
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// newRemoteError extracts the AWS code and request id from err.
func newRemoteError(op string, err error) *RemoteError {
	re := &RemoteError{Op: op, Message: err.Error(), Err: err}
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		re.Code = aerr.Code()
		re.Message = aerr.Message()
	}
	var rf awserr.RequestFailure
	if errors.As(err, &rf) {
		re.RequestID = rf.RequestID()
		re.StatusCode = rf.StatusCode()
	}
	return re
}

// ErrorCode returns the AWS error code carried by err, or "".
func ErrorCode(err error) string {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Code
	}
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return aerr.Code()
	}
	return ""
}

func missingField(op, field string) *RemoteError {
	return &RemoteError{Op: op, Message: fmt.Sprintf("response has no %s", field)}
}
