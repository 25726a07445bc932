// Configuration for a single provisioning run.

package config

import (
	"fmt"
	"regexp"

	"github.com/caarlos0/env/v11"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/validation"

	api "github.com/victorbecerragit/s3-event-setup/api/v1alpha1"
)

const envPrefix = "S3EVENT_"

var (
	resourceNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,80}$`)
	accountIDRe    = regexp.MustCompile(`^[0-9]{12}$`)
)

// Config holds everything a run needs. Env vars provide defaults, flags override them.
type Config struct {
	Region       string `env:"REGION" envDefault:"us-west-2"`
	BucketName   string `env:"BUCKET_NAME"`
	Prefix       string `env:"PREFIX" envDefault:"test"`
	Name         string `env:"NAME"`
	CreateBucket bool   `env:"CREATE_BUCKET" envDefault:"false"`
	CreateFolder bool   `env:"CREATE_FOLDER" envDefault:"false"`
	AccountID    string `env:"ACCOUNT_ID"`
	FailFast     bool   `env:"FAIL_FAST" envDefault:"false"`

	// Endpoint overrides the AWS endpoint, e.g. for LocalStack.
	Endpoint string `env:"ENDPOINT"`
	// Profile selects a named profile from the shared AWS config.
	Profile string `env:"PROFILE"`

	// ConfigMap, when set, receives the run status.
	ConfigMap string `env:"CONFIGMAP"`
	Namespace string `env:"NAMESPACE" envDefault:"default"`
}

// Load reads the configuration from S3EVENT_* environment variables.
func Load() (Config, error) {
	return LoadFrom(nil)
}

// LoadFrom is Load with an explicit environment; a nil map reads the process environment.
func LoadFrom(environment map[string]string) (Config, error) {
	opts := env.Options{Prefix: envPrefix}
	if environment != nil {
		opts.Environment = environment
	}
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var errs []error
	if c.Region == "" {
		errs = append(errs, fmt.Errorf("region is required"))
	}
	if c.BucketName == "" {
		errs = append(errs, fmt.Errorf("bucket name is required"))
	} else {
		if l := len(c.BucketName); l < 3 || l > 63 {
			errs = append(errs, fmt.Errorf("bucket name %q must be 3 to 63 characters", c.BucketName))
		}
		for _, msg := range validation.IsDNS1123Subdomain(c.BucketName) {
			errs = append(errs, fmt.Errorf("bucket name %q: %s", c.BucketName, msg))
		}
	}
	if c.Prefix == "" {
		errs = append(errs, fmt.Errorf("prefix is required"))
	}
	if !resourceNameRe.MatchString(c.Name) {
		errs = append(errs, fmt.Errorf("name %q must be 1 to 80 letters, digits, hyphens or underscores", c.Name))
	}
	if c.AccountID != "" && !accountIDRe.MatchString(c.AccountID) {
		errs = append(errs, fmt.Errorf("account id %q must be 12 digits", c.AccountID))
	}
	if c.ConfigMap != "" {
		for _, msg := range validation.IsDNS1123Subdomain(c.ConfigMap) {
			errs = append(errs, fmt.Errorf("configmap %q: %s", c.ConfigMap, msg))
		}
	}
	return utilerrors.NewAggregate(errs)
}

// Spec converts the configuration into the provisioner's input.
func (c Config) Spec() api.EventWiringSpec {
	return api.EventWiringSpec{
		Region:       c.Region,
		BucketName:   c.BucketName,
		Prefix:       c.Prefix,
		Name:         c.Name,
		CreateBucket: c.CreateBucket,
		CreateFolder: c.CreateFolder,
		AccountID:    c.AccountID,
		FailFast:     c.FailFast,
	}
}
