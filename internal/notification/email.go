package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonaws "lead-consultant/internal/common/aws"
	"lead-consultant/internal/common/config"
	apperrors "lead-consultant/internal/common/errors"
	"lead-consultant/internal/common/logger"
	"lead-consultant/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
	GetSendQuota(ctx context.Context) (*ses.GetSendQuotaOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
	GetTopicAttributes(ctx context.Context, topicARN string) (*sns.GetTopicAttributesOutput, error)
}

const (
	testSubject = "Тестовое письмо от ИИ-консультанта BBKinvest"
	testBody    = "Это тестовое письмо для проверки работы email уведомлений."
)

// EmailChannel is the fallback route. With the SES transport it sends a
// text+HTML email; with SNS it publishes to a topic whose subscribers are
// the sales mailboxes.
type EmailChannel struct {
	transport string
	ses       SESService
	sns       SNSService
	from      string
	to        string
	topicARN  string
	enabled   bool
	now       func() time.Time
}

func NewSESEmailChannel(client SESService, from, to string) *EmailChannel {
	return &EmailChannel{
		transport: config.EmailTransportSES,
		ses:       client,
		from:      from,
		to:        to,
		enabled:   client != nil && from != "" && to != "",
		now:       time.Now,
	}
}

func NewSNSEmailChannel(client SNSService, topicARN string) *EmailChannel {
	return &EmailChannel{
		transport: config.EmailTransportSNS,
		sns:       client,
		topicARN:  topicARN,
		enabled:   client != nil && topicARN != "",
		now:       time.Now,
	}
}

// NewEmailChannelFromConfig builds the AWS client for the configured
// transport. Missing settings or client errors disable the channel.
func NewEmailChannelFromConfig(ctx context.Context, cfg config.EmailConfig, log logger.Logger) *EmailChannel {
	disabled := &EmailChannel{transport: cfg.Transport, now: time.Now}
	if !cfg.Enabled {
		log.Info("email notifications disabled in config", nil)
		return disabled
	}

	switch cfg.Transport {
	case config.EmailTransportSNS:
		if cfg.TopicARN == "" {
			log.Warn("email enabled but sns topic arn missing", nil)
			return disabled
		}
		client, err := commonaws.NewSNSClient(ctx, awsOptions(cfg))
		if err != nil {
			log.Warn("sns client init failed, email channel disabled", map[string]interface{}{"error": err})
			return disabled
		}
		return NewSNSEmailChannel(client, cfg.TopicARN)

	default:
		if cfg.FromEmail == "" || cfg.ToEmail == "" {
			log.Warn("email enabled but from or to address missing", nil)
			return disabled
		}
		client, err := commonaws.NewSESClient(ctx, awsOptions(cfg))
		if err != nil {
			log.Warn("ses client init failed, email channel disabled", map[string]interface{}{"error": err})
			return disabled
		}
		return NewSESEmailChannel(client, cfg.FromEmail, cfg.ToEmail)
	}
}

func awsOptions(cfg config.EmailConfig) commonaws.Options {
	return commonaws.Options{Region: cfg.Region, Endpoint: cfg.Endpoint}
}

func (e *EmailChannel) Name() string  { return ChannelEmail }
func (e *EmailChannel) Enabled() bool { return e.enabled }

// Transport returns "ses" or "sns".
func (e *EmailChannel) Transport() string { return e.transport }

func (e *EmailChannel) Send(ctx context.Context, app models.Application, sessionID string) error {
	if !e.enabled {
		return apperrors.NewChannelDisabledError(ChannelEmail)
	}
	doc := BuildDocument(app, sessionID, e.now())

	if e.transport == config.EmailTransportSNS {
		return e.publish(ctx, snsSubject(doc.Category), map[string]string{
			"default": doc.Text(),
			"email":   doc.Text(),
			"sms":     FormatCompact(app),
		})
	}

	html, err := doc.HTML()
	if err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return e.sendEmail(ctx, doc.Subject(), doc.Text(), html)
}

// Check makes an authenticated read call against the transport.
func (e *EmailChannel) Check(ctx context.Context) error {
	if !e.enabled {
		return apperrors.NewChannelDisabledError(ChannelEmail)
	}
	if e.transport == config.EmailTransportSNS {
		if _, err := e.sns.GetTopicAttributes(ctx, e.topicARN); err != nil {
			return fmt.Errorf("sns get topic attributes: %w", err)
		}
		return nil
	}
	if _, err := e.ses.GetSendQuota(ctx); err != nil {
		return fmt.Errorf("ses get send quota: %w", err)
	}
	return nil
}

// SendTest delivers a test message through the transport.
func (e *EmailChannel) SendTest(ctx context.Context) error {
	if !e.enabled {
		return apperrors.NewChannelDisabledError(ChannelEmail)
	}
	if e.transport == config.EmailTransportSNS {
		return e.publish(ctx, "Test message - BBKinvest", map[string]string{"default": testBody})
	}
	return e.sendEmail(ctx, testSubject, testBody, "")
}

func (e *EmailChannel) sendEmail(ctx context.Context, subject, text, html string) error {
	body := &types.Body{
		Text: &types.Content{Data: aws.String(text), Charset: aws.String("UTF-8")},
	}
	if html != "" {
		body.Html = &types.Content{Data: aws.String(html), Charset: aws.String("UTF-8")}
	}

	_, err := e.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{e.to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body:    body,
		},
		Source: aws.String(e.from),
	})
	if err != nil {
		return fmt.Errorf("ses send email: %w", err)
	}
	return nil
}

func (e *EmailChannel) publish(ctx context.Context, subject string, perProtocol map[string]string) error {
	msg, err := json.Marshal(perProtocol)
	if err != nil {
		return fmt.Errorf("encode sns message: %w", err)
	}

	_, err = e.sns.Publish(ctx, &sns.PublishInput{
		TopicArn:         aws.String(e.topicARN),
		Subject:          aws.String(subject),
		Message:          aws.String(string(msg)),
		MessageStructure: aws.String("json"),
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

// snsSubject is ASCII only: SNS rejects non-ASCII subjects.
func snsSubject(c models.Category) string {
	if c == models.CategoryNone {
		return "New application - BBKinvest"
	}
	return fmt.Sprintf("New application (%s) - BBKinvest", c)
}
