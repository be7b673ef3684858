package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/ignite/courier-webhooks/internal/config"
	"github.com/ignite/courier-webhooks/internal/domain"
	"github.com/ignite/courier-webhooks/internal/pkg/logger"
)

// sesAPI is the subset of the SES client used here.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESNotifier emails the customer about status changes through AWS SES.
type SESNotifier struct {
	client    sesAPI
	fromEmail string
	fromName  string
	templates renderer
}

// NewSESNotifier creates an SES dispatcher. Static credentials are used when
// configured, otherwise the default AWS credential chain.
func NewSESNotifier(ctx context.Context, cfg config.NotificationConfig) (*SESNotifier, error) {
	if cfg.FromEmail == "" {
		return nil, fmt.Errorf("notification mode ses requires notification.from_email")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.SESRegion)}
	if cfg.SESAccessKey != "" && cfg.SESSecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.SESAccessKey, cfg.SESSecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	return newSESNotifier(sesv2.NewFromConfig(awsCfg), cfg.FromEmail, cfg.FromName), nil
}

func newSESNotifier(client sesAPI, fromEmail, fromName string) *SESNotifier {
	return &SESNotifier{client: client, fromEmail: fromEmail, fromName: fromName}
}

// Notify sends the email. Orders without a customer email are skipped.
func (s *SESNotifier) Notify(ctx context.Context, n domain.StatusNotification) error {
	to := n.Recipients.CustomerEmail
	if to == "" {
		logger.Debug("no customer email, skipping SES notification", "order_id", n.OrderID)
		return nil
	}
	subject, html, err := s.templates.render(n)
	if err != nil {
		return err
	}

	from := s.fromEmail
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(html), Charset: aws.String("UTF-8")},
				},
			},
		},
		EmailTags: []types.MessageTag{
			{Name: aws.String("order_id"), Value: aws.String(n.OrderID)},
			{Name: aws.String("courier"), Value: aws.String(string(n.CourierCode))},
		},
	}
	if n.Recipients.MerchantEmail != "" {
		input.ReplyToAddresses = []string{n.Recipients.MerchantEmail}
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("ses send to %s: %w", logger.RedactEmail(to), err)
	}
	logger.Info("status email sent", "order_id", n.OrderID, "recipient", to, "message_id", aws.ToString(result.MessageId))
	return nil
}
