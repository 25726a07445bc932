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

package provisioner

import (
	"context"
	"errors"
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	api "github.com/victorbecerragit/s3-event-setup/api/v1alpha1"
	"github.com/victorbecerragit/s3-event-setup/internal/awsclient"
	recorder "github.com/victorbecerragit/s3-event-setup/internal/events"
	"github.com/victorbecerragit/s3-event-setup/internal/policy"
)

// ErrSubscriptionBranch marks a failure between queue creation and the topic subscription.
var ErrSubscriptionBranch = errors.New("queue subscription failed")

// Provisioner wires bucket events to a queue through a fan-out topic.
type Provisioner struct {
	Buckets  awsclient.BucketManager
	Topics   awsclient.TopicManager
	Queues   awsclient.QueueManager
	Identity awsclient.IdentityResolver
	Recorder recorder.Recorder
}

// New builds a Provisioner on top of real AWS clients.
func New(clients *awsclient.Clients, rec recorder.Recorder) *Provisioner {
	return &Provisioner{
		Buckets:  awsclient.NewBucketService(clients.S3),
		Topics:   awsclient.NewTopicService(clients.SNS),
		Queues:   awsclient.NewQueueService(clients.SQS),
		Identity: awsclient.NewIdentityService(clients.STS),
		Recorder: rec,
	}
}

// Run executes every step at most once, in order. The returned status is never nil;
// the error aggregates every step that failed.
//
// A failure in the subscription branch (queue, queue ARN, queue policy, subscribe) does
// not stop the topic policy and bucket notification steps unless spec.FailFast is set.
func (p *Provisioner) Run(ctx context.Context, spec api.EventWiringSpec) (*api.EventWiringStatus, error) {
	log := logf.FromContext(ctx).WithValues("BucketName", spec.BucketName, "Name", spec.Name)
	ctx = logf.IntoContext(ctx, log)
	log.Info("Starting event wiring")

	status := api.NewEventWiringStatus()

	accountID, err := p.resolveAccount(ctx, spec)
	if err != nil {
		p.Recorder.Warning("AccountLookupFailed", err.Error())
		return status, fmt.Errorf("failed to resolve account id: %w", err)
	}
	status.AccountID = accountID

	// Ensure bucket
	if err := p.ensureBucket(ctx, spec, status); err != nil {
		return status, fmt.Errorf("failed to ensure bucket: %w", err)
	}

	// Create topic
	if err := p.createTopic(ctx, spec, status); err != nil {
		return status, fmt.Errorf("failed to create SNS topic: %w", err)
	}

	var errs []error

	// Queue and subscription branch
	if err := p.subscribeQueue(ctx, spec, status); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrSubscriptionBranch, err))
		if spec.FailFast {
			p.Recorder.Warning("Aborted", "Queue subscription failed; skipping topic policy and bucket notification.")
			return status, utilerrors.NewAggregate(errs)
		}
	}

	// Topic policy, then bucket notification
	if err := p.setTopicPolicy(ctx, spec, status); err != nil {
		errs = append(errs, fmt.Errorf("failed to set topic policy: %w", err))
		return status, utilerrors.NewAggregate(errs)
	}
	if err := p.configureNotification(ctx, spec, status); err != nil {
		errs = append(errs, fmt.Errorf("failed to configure bucket notification: %w", err))
		return status, utilerrors.NewAggregate(errs)
	}

	log.Info("Event wiring finished", "TopicArn", status.TopicArn, "QueueArn", status.QueueArn, "Steps", status.String())
	return status, utilerrors.NewAggregate(errs)
}

func (p *Provisioner) resolveAccount(ctx context.Context, spec api.EventWiringSpec) (string, error) {
	if spec.AccountID != "" {
		return spec.AccountID, nil
	}
	return p.Identity.AccountID(ctx)
}

// ensureBucket creates the bucket only when asked to.
func (p *Provisioner) ensureBucket(ctx context.Context, spec api.EventWiringSpec, status *api.EventWiringStatus) error {
	log := logf.FromContext(ctx)

	if !spec.CreateBucket {
		log.Info("Bucket creation disabled, assuming it exists")
		status.SetStep(api.StepEnsureBucket, api.SKIPPED_STATE, "bucket creation disabled")
		return nil
	}

	p.Recorder.Normal("CreatingBucket", fmt.Sprintf("Creating S3 bucket %s.", spec.BucketName))
	existed, err := p.Buckets.EnsureBucket(ctx, spec.BucketName, spec.Region)
	if err != nil {
		status.SetStep(api.StepEnsureBucket, api.FAILED_STATE, err.Error())
		p.Recorder.Warning("BucketFailed", fmt.Sprintf("Failed to create S3 bucket: %v", err))
		return err
	}
	msg := "bucket created"
	if existed {
		msg = "bucket already owned by caller"
		p.Recorder.Normal("BucketOwned", "We own the bucket already. Continuing.")
	}

	if spec.CreateFolder {
		if err := p.Buckets.CreateFolder(ctx, spec.BucketName, spec.Prefix); err != nil {
			status.SetStep(api.StepEnsureBucket, api.FAILED_STATE, err.Error())
			p.Recorder.Warning("FolderFailed", err.Error())
			return fmt.Errorf("failed to create folder marker: %w", err)
		}
		msg += ", folder marker written"
	}

	status.SetStep(api.StepEnsureBucket, api.SUCCEEDED_STATE, msg)
	return nil
}

func (p *Provisioner) createTopic(ctx context.Context, spec api.EventWiringSpec, status *api.EventWiringStatus) error {
	p.Recorder.Normal("CreatingTopic", fmt.Sprintf("Creating SNS topic %s.", spec.Name))

	topicArn, err := p.Topics.CreateTopic(ctx, spec.Name)
	if err != nil {
		status.SetStep(api.StepCreateTopic, api.FAILED_STATE, err.Error())
		p.Recorder.Warning("TopicFailed", fmt.Sprintf("Failed to create SNS topic: %v", err))
		return err
	}
	status.TopicArn = topicArn
	status.SetStep(api.StepCreateTopic, api.SUCCEEDED_STATE, topicArn)
	p.Recorder.Normal("TopicCreated", fmt.Sprintf("SNS topic created successfully: %s", topicArn))
	return nil
}

// subscribeQueue runs the queue branch: create, resolve ARN, allow the topic, subscribe.
func (p *Provisioner) subscribeQueue(ctx context.Context, spec api.EventWiringSpec, status *api.EventWiringStatus) error {
	log := logf.FromContext(ctx)

	p.Recorder.Normal("CreatingQueue", fmt.Sprintf("Creating SQS queue %s.", spec.Name))
	queueURL, err := p.Queues.CreateQueue(ctx, spec.Name)
	if err != nil {
		status.SetStep(api.StepCreateQueue, api.FAILED_STATE, err.Error())
		p.Recorder.Warning("QueueFailed", err.Error())
		return fmt.Errorf("failed to create SQS queue: %w", err)
	}
	status.QueueURL = queueURL
	status.SetStep(api.StepCreateQueue, api.SUCCEEDED_STATE, queueURL)

	p.Recorder.Normal("SubscribingQueue", "Subscribing SQS queue to SNS topic.")
	queueArn, err := p.Queues.QueueArn(ctx, queueURL)
	if err != nil {
		status.SetStep(api.StepResolveQueueArn, api.FAILED_STATE, err.Error())
		p.Recorder.Warning("QueueArnFailed", fmt.Sprintf("Failed to get queue ARN for %s: %v", queueURL, err))
		return fmt.Errorf("failed to resolve queue ARN: %w", err)
	}
	status.QueueArn = queueArn
	status.SetStep(api.StepResolveQueueArn, api.SUCCEEDED_STATE, queueArn)

	doc, err := policy.QueuePolicy(queueArn, status.TopicArn).JSON()
	if err == nil {
		err = p.Queues.SetQueuePolicy(ctx, queueURL, doc)
	}
	if err != nil {
		status.SetStep(api.StepSetQueuePolicy, api.FAILED_STATE, err.Error())
		p.Recorder.Warning("QueuePolicyFailed", fmt.Sprintf("Failed to set queue policy: %v", err))
		return fmt.Errorf("failed to set queue policy: %w", err)
	}
	status.SetStep(api.StepSetQueuePolicy, api.SUCCEEDED_STATE, "")
	p.Recorder.Normal("QueuePolicySet", "Successfully configured queue policy.")

	subscriptionArn, err := p.Topics.SubscribeQueue(ctx, status.TopicArn, queueArn)
	if err != nil {
		status.SetStep(api.StepSubscribeQueue, api.FAILED_STATE, err.Error())
		p.Recorder.Warning("SubscribeFailed", fmt.Sprintf("Failed to subscribe SQS queue to SNS: %v", err))
		return fmt.Errorf("failed to subscribe queue: %w", err)
	}
	status.SubscriptionArn = subscriptionArn

	if awsclient.IsPendingConfirmation(subscriptionArn) {
		log.Info("Subscription awaits confirmation", "QueueArn", queueArn)
		status.SetStep(api.StepSubscribeQueue, api.PENDING_CONFIRMATION_STATE, subscriptionArn)
		p.Recorder.Normal("SubscriptionPending", "Please confirm the SNS subscription by visiting the subscribe URL.")
		return nil
	}
	status.SetStep(api.StepSubscribeQueue, api.SUCCEEDED_STATE, subscriptionArn)
	p.Recorder.Normal("Subscribed", fmt.Sprintf("Successfully subscribed SQS queue: %s", queueArn))
	return nil
}

func (p *Provisioner) setTopicPolicy(ctx context.Context, spec api.EventWiringSpec, status *api.EventWiringStatus) error {
	p.Recorder.Normal("SettingTopicPolicy",
		fmt.Sprintf("Setting topic policy to allow S3 bucket %s to publish.", spec.BucketName))

	doc, err := policy.TopicPolicy(status.TopicArn, status.AccountID, spec.BucketName).JSON()
	if err == nil {
		err = p.Topics.SetTopicPolicy(ctx, status.TopicArn, doc)
	}
	if err != nil {
		status.SetStep(api.StepSetTopicPolicy, api.FAILED_STATE, err.Error())
		p.Recorder.Warning("TopicPolicyFailed", fmt.Sprintf("Failed to add SNS topic policy: %v", err))
		return err
	}
	status.SetStep(api.StepSetTopicPolicy, api.SUCCEEDED_STATE, "")
	p.Recorder.Normal("TopicPolicySet", "SNS topic policy added successfully.")
	return nil
}

func (p *Provisioner) configureNotification(ctx context.Context, spec api.EventWiringSpec, status *api.EventWiringStatus) error {
	err := p.Buckets.PutTopicNotification(ctx, awsclient.TopicNotification{
		Bucket:   spec.BucketName,
		ID:       spec.Name,
		TopicArn: status.TopicArn,
		Prefix:   spec.Prefix,
	})
	if err != nil {
		status.SetStep(api.StepConfigureNotification, api.FAILED_STATE, err.Error())
		p.Recorder.Warning("NotificationFailed", fmt.Sprintf("Failed to configure S3 bucket notification: %v", err))
		return err
	}
	status.SetStep(api.StepConfigureNotification, api.SUCCEEDED_STATE, "")
	p.Recorder.Normal("NotificationConfigured",
		fmt.Sprintf("Successfully configured event for S3 bucket %s", spec.BucketName))

	if status.QueueArn == "" {
		p.Recorder.Warning("NoQueueArn", "Bucket events reach the topic but no queue ARN is available for the crawler.")
		return nil
	}
	p.Recorder.Normal("CrawlerHint", fmt.Sprintf("Create S3 Event Crawler using SQS ARN %s", status.QueueArn))
	return nil
}
