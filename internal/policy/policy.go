// Package policy builds the access policy documents attached to the topic and the queue.
package policy

import (
	"encoding/json"
	"fmt"
)

const (
	// Version2012_10_17 is the current policy language version.
	Version2012_10_17 = "2012-10-17"
	// Version2008_10_17 is the legacy version SNS topic policies are usually written in.
	Version2008_10_17 = "2008-10-17"

	EffectAllow = "Allow"
	EffectDeny  = "Deny"
)

// StringOrSlice marshals as a bare string when it holds one value.
type StringOrSlice []string

// MarshalJSON implements json.Marshaler.
func (s StringOrSlice) MarshalJSON() ([]byte, error) {
	if len(s) == 1 {
		return json.Marshal(s[0])
	}
	return json.Marshal([]string(s))
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *StringOrSlice) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = StringOrSlice{str}
		return nil
	}
	var strs []string
	if err := json.Unmarshal(data, &strs); err != nil {
		return fmt.Errorf("value must be string or []string")
	}
	*s = strs
	return nil
}

// Principal is either the bare wildcard "*" or a map such as {"AWS": "*"}.
type Principal struct {
	Wildcard bool
	Values   map[string]StringOrSlice
}

// AnyPrincipal is the bare "*" principal.
func AnyPrincipal() *Principal {
	return &Principal{Wildcard: true}
}

// AnyAWSPrincipal is {"AWS": "*"}.
func AnyAWSPrincipal() *Principal {
	return &Principal{Values: map[string]StringOrSlice{"AWS": {"*"}}}
}

// MarshalJSON implements json.Marshaler.
func (p Principal) MarshalJSON() ([]byte, error) {
	if p.Wildcard {
		return json.Marshal("*")
	}
	return json.Marshal(p.Values)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Principal) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if str != "*" {
			return fmt.Errorf("unsupported principal %q", str)
		}
		*p = Principal{Wildcard: true}
		return nil
	}
	var values map[string]StringOrSlice
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*p = Principal{Values: values}
	return nil
}

// Conditions maps an operator (ArnEquals, StringEquals, ...) to key/value constraints.
type Conditions map[string]map[string]StringOrSlice

// Statement is a single policy statement.
type Statement struct {
	Sid       string        `json:"Sid,omitempty"`
	Effect    string        `json:"Effect"`
	Principal *Principal    `json:"Principal,omitempty"`
	Action    StringOrSlice `json:"Action"`
	Resource  StringOrSlice `json:"Resource"`
	Condition Conditions    `json:"Condition,omitempty"`
}

// Document is an access policy document.
type Document struct {
	Version   string      `json:"Version"`
	Id        string      `json:"Id,omitempty"`
	Statement []Statement `json:"Statement"`
}

// Validate checks the document is structurally usable.
func (d *Document) Validate() error {
	if d.Version != Version2012_10_17 && d.Version != Version2008_10_17 {
		return fmt.Errorf("unsupported policy version: %s", d.Version)
	}
	if len(d.Statement) == 0 {
		return fmt.Errorf("policy must contain at least one statement")
	}
	for i, stmt := range d.Statement {
		if stmt.Effect != EffectAllow && stmt.Effect != EffectDeny {
			return fmt.Errorf("invalid statement %d: invalid effect: %s", i, stmt.Effect)
		}
		if len(stmt.Action) == 0 {
			return fmt.Errorf("invalid statement %d: action is required", i)
		}
		if len(stmt.Resource) == 0 || stmt.Resource[0] == "" {
			return fmt.Errorf("invalid statement %d: resource is required", i)
		}
	}
	return nil
}

// JSON validates and renders the document.
func (d *Document) JSON() (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshal policy %s: %w", d.Id, err)
	}
	return string(b), nil
}

// QueuePolicy lets the topic deliver messages to the queue.
func QueuePolicy(queueArn, topicArn string) *Document {
	return &Document{
		Version: Version2012_10_17,
		Id:      "AllowSNSPublish",
		Statement: []Statement{{
			Sid:       "AllowSNSPublish01",
			Effect:    EffectAllow,
			Principal: AnyPrincipal(),
			Action:    StringOrSlice{"SQS:SendMessage"},
			Resource:  StringOrSlice{queueArn},
			Condition: Conditions{
				"ArnEquals": {"aws:SourceArn": {topicArn}},
			},
		}},
	}
}

// TopicPolicy lets S3 publish events from bucket, owned by accountID, to the topic.
func TopicPolicy(topicArn, accountID, bucket string) *Document {
	return &Document{
		Version: Version2008_10_17,
		Id:      "s3-publish-to-sns",
		Statement: []Statement{{
			Effect:    EffectAllow,
			Principal: AnyAWSPrincipal(),
			Action:    StringOrSlice{"SNS:Publish"},
			Resource:  StringOrSlice{topicArn},
			Condition: Conditions{
				"StringEquals": {"AWS:SourceAccount": {accountID}},
				"ArnLike":      {"aws:SourceArn": {BucketArnPattern(bucket)}},
			},
		}},
	}
}

// BucketArnPattern matches the bucket regardless of the region and account fields.
func BucketArnPattern(bucket string) string {
	return "arn:aws:s3:*:*:" + bucket
}

// Parse decodes a policy document.
func Parse(doc string) (*Document, error) {
	d := &Document{}
	if err := json.Unmarshal([]byte(doc), d); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}
	return d, nil
}
