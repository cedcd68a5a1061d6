// Package aws builds the SES and SNS clients behind the email fallback channel.
package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Options selects where the clients talk to. Credentials always come from
// the default chain (env, shared profile, instance role).
type Options struct {
	Region string
	// Endpoint overrides the service URL, e.g. a localstack instance.
	Endpoint string
}

func load(ctx context.Context, opts Options) (awssdk.Config, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return awssdk.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// SESClient sends the multipart application email.
type SESClient struct {
	client *ses.Client
}

func NewSESClient(ctx context.Context, opts Options) (*SESClient, error) {
	cfg, err := load(ctx, opts)
	if err != nil {
		return nil, err
	}
	client := ses.NewFromConfig(cfg, func(o *ses.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = awssdk.String(opts.Endpoint)
		}
	})
	return &SESClient{client: client}, nil
}

func (s *SESClient) SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	return s.client.SendEmail(ctx, input)
}

// GetSendQuota is the read-only call behind the connection check.
func (s *SESClient) GetSendQuota(ctx context.Context) (*ses.GetSendQuotaOutput, error) {
	return s.client.GetSendQuota(ctx, &ses.GetSendQuotaInput{})
}

// SNSClient publishes the application to a topic with email subscribers.
type SNSClient struct {
	client *sns.Client
}

func NewSNSClient(ctx context.Context, opts Options) (*SNSClient, error) {
	cfg, err := load(ctx, opts)
	if err != nil {
		return nil, err
	}
	client := sns.NewFromConfig(cfg, func(o *sns.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = awssdk.String(opts.Endpoint)
		}
	})
	return &SNSClient{client: client}, nil
}

func (s *SNSClient) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	return s.client.Publish(ctx, input)
}

func (s *SNSClient) GetTopicAttributes(ctx context.Context, topicARN string) (*sns.GetTopicAttributesOutput, error) {
	return s.client.GetTopicAttributes(ctx, &sns.GetTopicAttributesInput{TopicArn: awssdk.String(topicARN)})
}
