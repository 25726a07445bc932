// Updater publishes a run's status to a ConfigMap so the crawler setup can pick up the queue ARN.

package status

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/util/retry"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	api "github.com/victorbecerragit/s3-event-setup/api/v1alpha1"
)

const (
	managedByLabel = "app.kubernetes.io/managed-by"
	managedByValue = "s3-event-setup"
	bucketLabel    = "s3-event-setup/bucket"
)

type Updater interface {
	UpdateWiringStatus(ctx context.Context, spec api.EventWiringSpec, st *api.EventWiringStatus) error
}

// New returns an Updater writing ConfigMap name in namespace.
func New(c client.Client, namespace, name string) Updater {
	return &updater{client: c, namespace: namespace, name: name}
}

type updater struct {
	client    client.Client
	namespace string
	name      string
}

func (u *updater) UpdateWiringStatus(ctx context.Context, spec api.EventWiringSpec, st *api.EventWiringStatus) error {
	log := logf.FromContext(ctx)
	log.Info("Publishing status to ConfigMap", "ConfigMapName", u.name, "Namespace", u.namespace)

	data := st.Data()
	data["BucketName"] = spec.BucketName
	data["Region"] = spec.Region
	data["Prefix"] = spec.Prefix

	err := retry.RetryOnConflict(retry.DefaultBackoff, func() error {
		cm := &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{
				Name:      u.name,
				Namespace: u.namespace,
			},
		}
		op, err := controllerutil.CreateOrUpdate(ctx, u.client, cm, func() error {
			if cm.Labels == nil {
				cm.Labels = map[string]string{}
			}
			cm.Labels[managedByLabel] = managedByValue
			cm.Labels[bucketLabel] = spec.BucketName
			cm.Data = data
			return nil
		})
		if err == nil {
			log.Info("ConfigMap reconciled", "ConfigMapName", u.name, "Operation", op)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to publish status to ConfigMap %s/%s: %w", u.namespace, u.name, err)
	}
	return nil
}
