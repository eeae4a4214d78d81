package event

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type SQSEventPublisher struct {
	client *sqs.Client
	logger *zap.Logger

	queueURL string
}

var (
	_ Publisher = (*SQSEventPublisher)(nil)
)

func NewSQSEventPublisher(client *sqs.Client, logger *zap.Logger, queueURL string) *SQSEventPublisher {
	return &SQSEventPublisher{
		client:   client,
		logger:   logger,
		queueURL: queueURL,
	}
}

func (p *SQSEventPublisher) Publish(ctx context.Context, e SubmissionEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "marshalling payload")
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"topic": {
				DataType:    aws.String("String"),
				StringValue: aws.String(Topic),
			},
			"service": {
				DataType:    aws.String("String"),
				StringValue: aws.String(e.ServiceName),
			},
		},
	}

	out, err := p.client.SendMessage(ctx, input)
	if err != nil {
		return errors.Wrap(err, "sending message")
	}

	p.logger.Debug("submission event published",
		zap.String("service", e.ServiceName),
		zap.Stringp("messageID", out.MessageId),
	)

	return nil
}
