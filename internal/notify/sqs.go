package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/ignite/courier-webhooks/internal/config"
	"github.com/ignite/courier-webhooks/internal/domain"
)

// sqsAPI is the subset of the SQS client used here.
type sqsAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSNotifier publishes notifications to a queue for asynchronous delivery.
type SQSNotifier struct {
	client   sqsAPI
	queueURL string
}

// NewSQSNotifier creates an SQS dispatcher using the default AWS credential
// chain.
func NewSQSNotifier(ctx context.Context, cfg config.NotificationConfig) (*SQSNotifier, error) {
	if cfg.SQSQueueURL == "" {
		return nil, fmt.Errorf("notification mode sqs requires notification.sqs_queue_url")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.SQSRegion))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SQS: %w", err)
	}
	return &SQSNotifier{client: sqs.NewFromConfig(awsCfg), queueURL: cfg.SQSQueueURL}, nil
}

// Notify publishes n and waits for SQS to accept it.
func (p *SQSNotifier) Notify(ctx context.Context, n domain.StatusNotification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(string(n.EventType))},
			"courier":    {DataType: aws.String("String"), StringValue: aws.String(string(n.CourierCode))},
		},
	})
	if err != nil {
		return fmt.Errorf("publish notification to SQS: %w", err)
	}
	return nil
}
