package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"dining-concierge/internal/domain"
)

// ErrNotConfigured is returned by every operation when no queue URL was set.
var ErrNotConfigured = errors.New("queue: queue URL is not configured")

// sqsAPI is the minimal SQS interface required by Client.
type sqsAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Decode decodes the dining request carried by m.
func Decode(m domain.QueueMessage) (domain.DiningRequest, error) {
	var req domain.DiningRequest
	if err := json.Unmarshal([]byte(m.Body), &req); err != nil {
		return domain.DiningRequest{}, fmt.Errorf("queue: decode message %s: %w", m.ID, err)
	}
	return req, nil
}

// Client carries dining requests over an SQS queue.
type Client struct {
	api      sqsAPI
	queueURL string
}

// New creates a queue Client. An empty queueURL is accepted so that callers
// can surface the misconfiguration when the queue is first used.
func New(api sqsAPI, queueURL string) (*Client, error) {
	if api == nil {
		return nil, errors.New("queue: api must not be nil")
	}
	return &Client{api: api, queueURL: strings.TrimSpace(queueURL)}, nil
}

// Dispatch serializes req and sends it to the queue.
func (c *Client) Dispatch(ctx context.Context, req domain.DiningRequest) error {
	if c.queueURL == "" {
		return ErrNotConfigured
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("queue: encode request: %w", err)
	}
	if _, err := c.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(c.queueURL),
		MessageBody: aws.String(string(body)),
	}); err != nil {
		return fmt.Errorf("queue: send message: %w", err)
	}
	return nil
}

// ReceiveOne claims at most one pending message without waiting. It returns
// nil when the queue is empty.
func (c *Client) ReceiveOne(ctx context.Context) (*domain.QueueMessage, error) {
	if c.queueURL == "" {
		return nil, ErrNotConfigured
	}
	out, err := c.api.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     0,
	})
	if err != nil {
		return nil, fmt.Errorf("queue: receive message: %w", err)
	}
	if out == nil || len(out.Messages) == 0 {
		return nil, nil
	}
	m := out.Messages[0]
	if m.ReceiptHandle == nil {
		return nil, errors.New("queue: received message without receipt handle")
	}
	return &domain.QueueMessage{
		ID:            aws.ToString(m.MessageId),
		Body:          aws.ToString(m.Body),
		ReceiptHandle: *m.ReceiptHandle,
	}, nil
}

// Delete acknowledges a message so it is not redelivered.
func (c *Client) Delete(ctx context.Context, receiptHandle string) error {
	if c.queueURL == "" {
		return ErrNotConfigured
	}
	if _, err := c.api.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	}); err != nil {
		return fmt.Errorf("queue: delete message: %w", err)
	}
	return nil
}
