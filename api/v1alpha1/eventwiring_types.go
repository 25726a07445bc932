/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package v1alpha1

import (
	"fmt"
	"strings"
)

// Create constants for step outcomes.
const (
	// SUCCEEDED_STATE indicates that the step completed.
	SUCCEEDED_STATE = "SUCCEEDED"
	// SKIPPED_STATE indicates that the step was not needed and counts as a success.
	SKIPPED_STATE = "SKIPPED"
	// FAILED_STATE indicates that the remote call behind the step failed.
	FAILED_STATE = "FAILED"
	// NOT_ATTEMPTED_STATE indicates that an earlier failure prevented the step from running.
	NOT_ATTEMPTED_STATE = "NOT_ATTEMPTED"
	// PENDING_CONFIRMATION_STATE indicates a subscription that still waits for confirmation.
	PENDING_CONFIRMATION_STATE = "PENDING_CONFIRMATION"
)

// Step names, in execution order.
const (
	StepEnsureBucket          = "EnsureBucket"
	StepCreateTopic           = "CreateTopic"
	StepCreateQueue           = "CreateQueue"
	StepResolveQueueArn       = "ResolveQueueArn"
	StepSetQueuePolicy        = "SetQueuePolicy"
	StepSubscribeQueue        = "SubscribeQueue"
	StepSetTopicPolicy        = "SetTopicPolicy"
	StepConfigureNotification = "ConfigureNotification"
)

// Steps lists every provisioning step in the order it runs.
var Steps = []string{
	StepEnsureBucket,
	StepCreateTopic,
	StepCreateQueue,
	StepResolveQueueArn,
	StepSetQueuePolicy,
	StepSubscribeQueue,
	StepSetTopicPolicy,
	StepConfigureNotification,
}

// EventWiringSpec defines the desired bucket -> topic -> queue wiring.
type EventWiringSpec struct {
	// Region is the AWS region of every resource
	Region string `json:"region"`

	// BucketName is the name of the S3 bucket whose events are wired
	BucketName string `json:"bucketName"`

	// Prefix is the object key prefix the notification is filtered to
	Prefix string `json:"prefix"`

	// Name is shared by the SNS topic, the SQS queue and the notification configuration id
	Name string `json:"name"`

	// CreateBucket creates the bucket instead of assuming it exists
	CreateBucket bool `json:"createBucket,omitempty"`

	// CreateFolder writes a "<prefix>/" marker object once the bucket is ensured
	CreateFolder bool `json:"createFolder,omitempty"`

	// AccountID skips the caller identity lookup when set
	AccountID string `json:"accountId,omitempty"`

	// FailFast stops before the topic policy when the queue subscription branch fails
	FailFast bool `json:"failFast,omitempty"`
}

// StepStatus is the outcome of one provisioning step.
type StepStatus struct {
	Step    string `json:"step"`
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
}

// EventWiringStatus defines the observed result of a provisioning run.
type EventWiringStatus struct {
	AccountID       string       `json:"accountId,omitempty"`
	TopicArn        string       `json:"topicArn,omitempty"`
	QueueURL        string       `json:"queueUrl,omitempty"`
	QueueArn        string       `json:"queueArn,omitempty"`
	SubscriptionArn string       `json:"subscriptionArn,omitempty"`
	Steps           []StepStatus `json:"steps"`
}

// NewEventWiringStatus returns a status with every step NOT_ATTEMPTED.
func NewEventWiringStatus() *EventWiringStatus {
	s := &EventWiringStatus{Steps: make([]StepStatus, 0, len(Steps))}
	for _, step := range Steps {
		s.Steps = append(s.Steps, StepStatus{Step: step, State: NOT_ATTEMPTED_STATE})
	}
	return s
}

// SetStep records the outcome of step.
func (s *EventWiringStatus) SetStep(step, state, message string) {
	for i := range s.Steps {
		if s.Steps[i].Step == step {
			s.Steps[i].State = state
			s.Steps[i].Message = message
			return
		}
	}
	s.Steps = append(s.Steps, StepStatus{Step: step, State: state, Message: message})
}

// StepState returns the recorded state of step, or "" if unknown.
func (s *EventWiringStatus) StepState(step string) string {
	for _, st := range s.Steps {
		if st.Step == step {
			return st.State
		}
	}
	return ""
}

// Ready reports whether the bucket notification is active.
func (s *EventWiringStatus) Ready() bool {
	return s.StepState(StepConfigureNotification) == SUCCEEDED_STATE
}

// Data flattens the status into string pairs suitable for a ConfigMap.
func (s *EventWiringStatus) Data() map[string]string {
	data := map[string]string{
		"AccountID":       s.AccountID,
		"TopicArn":        s.TopicArn,
		"QueueURL":        s.QueueURL,
		"QueueArn":        s.QueueArn,
		"SubscriptionArn": s.SubscriptionArn,
		"Ready":           fmt.Sprintf("%t", s.Ready()),
	}
	for _, st := range s.Steps {
		data["step."+st.Step] = st.State
	}
	return data
}

// String renders one "Step=STATE" pair per step.
func (s *EventWiringStatus) String() string {
	parts := make([]string, 0, len(s.Steps))
	for _, st := range s.Steps {
		parts = append(parts, st.Step+"="+st.State)
	}
	return strings.Join(parts, " ")
}
