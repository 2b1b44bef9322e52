package lex

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lexruntimev2"
)

// ErrNotConfigured is returned when the bot, alias or locale is unset.
var ErrNotConfigured = errors.New("lex: bot, alias or locale not configured")

// lexAPI is the minimal Lex V2 runtime interface required by Client.
type lexAPI interface {
	RecognizeText(ctx context.Context, in *lexruntimev2.RecognizeTextInput, optFns ...func(*lexruntimev2.Options)) (*lexruntimev2.RecognizeTextOutput, error)
}

// Bot identifies the Lex V2 bot alias and locale to converse with.
type Bot struct {
	ID      string
	AliasID string
	Locale  string
}

func (b Bot) configured() bool {
	return b.ID != "" && b.AliasID != "" && b.Locale != ""
}

// Client sends user utterances to a Lex V2 bot. Conversation state is kept
// by Lex and keyed by session ID.
type Client struct {
	api lexAPI
	bot Bot
}

// New creates a Client. An incomplete Bot is accepted; Recognize then
// reports ErrNotConfigured.
func New(api lexAPI, bot Bot) (*Client, error) {
	if api == nil {
		return nil, errors.New("lex: api must not be nil")
	}
	return &Client{api: api, bot: Bot{
		ID:      strings.TrimSpace(bot.ID),
		AliasID: strings.TrimSpace(bot.AliasID),
		Locale:  strings.TrimSpace(bot.Locale),
	}}, nil
}

func (c *Client) Configured() bool { return c.bot.configured() }

// Recognize sends text for sessionID and returns the non-empty reply
// fragments in order.
func (c *Client) Recognize(ctx context.Context, sessionID, text string) ([]string, error) {
	if !c.bot.configured() {
		return nil, ErrNotConfigured
	}
	out, err := c.api.RecognizeText(ctx, &lexruntimev2.RecognizeTextInput{
		BotId:      aws.String(c.bot.ID),
		BotAliasId: aws.String(c.bot.AliasID),
		LocaleId:   aws.String(c.bot.Locale),
		SessionId:  aws.String(sessionID),
		Text:       aws.String(text),
	})
	if err != nil {
		return nil, fmt.Errorf("lex: recognize text: %w", err)
	}
	if out == nil {
		return nil, nil
	}
	replies := make([]string, 0, len(out.Messages))
	for _, m := range out.Messages {
		if content := strings.TrimSpace(aws.ToString(m.Content)); content != "" {
			replies = append(replies, content)
		}
	}
	return replies, nil
}
