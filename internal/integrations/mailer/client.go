package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"dining-concierge/internal/domain"
)

// sesAPI is the minimal SES v2 interface required by Client.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Client sends notifications through SES from a verified sender address.
type Client struct {
	api    sesAPI
	sender string
}

func New(api sesAPI, sender string) (*Client, error) {
	if api == nil {
		return nil, errors.New("mailer: api must not be nil")
	}
	sender = strings.TrimSpace(sender)
	if sender == "" {
		return nil, errors.New("mailer: sender must not be empty")
	}
	return &Client{api: api, sender: sender}, nil
}

// Send delivers e and returns the SES message ID.
func (c *Client) Send(ctx context.Context, e domain.Email) (string, error) {
	to := strings.TrimSpace(e.To)
	if to == "" {
		return "", errors.New("mailer: recipient is required")
	}
	out, err := c.api.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(c.sender),
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(e.Subject)},
				Body:    &types.Body{Text: &types.Content{Data: aws.String(e.Body)}},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("mailer: send to %s: %w", to, err)
	}
	if out == nil {
		return "", nil
	}
	return aws.ToString(out.MessageId), nil
}
