package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// QueueDispatcher publishes notifications to SQS for an out-of-process mailer.
type QueueDispatcher struct {
	client   sqsAPI
	queueURL string
}

func NewQueueDispatcher(client *sqs.Client, queueURL string) *QueueDispatcher {
	if client == nil {
		panic("notify: SQS client cannot be nil")
	}
	return newQueueDispatcher(client, queueURL)
}

func newQueueDispatcher(client sqsAPI, queueURL string) *QueueDispatcher {
	if queueURL == "" {
		panic("notify: SQS queueURL cannot be empty")
	}
	return &QueueDispatcher{client: client, queueURL: queueURL}
}

func (q *QueueDispatcher) Dispatch(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notify: marshal notification: %w", err)
	}
	// SQS rejects empty attribute values.
	attrs := map[string]sqstypes.MessageAttributeValue{}
	for name, v := range map[string]string{"priority": n.Priority, "source": n.Metadata["source"]} {
		if v != "" {
			attrs[name] = sqstypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
		}
	}
	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(q.queueURL),
		MessageBody:       aws.String(string(body)),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("notify: failed to send SQS message: %w", err)
	}
	return nil
}
