package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"dining-concierge/internal/domain"
)

const (
	msgEmptyText = "Please type a message to continue."
	msgContinue  = "Got it. Please continue."
)

// Recognizer forwards user text to the NLU engine.
type Recognizer interface {
	Configured() bool
	Recognize(ctx context.Context, sessionID, text string) ([]string, error)
}

type ChatInput struct {
	SessionID string
	Messages  []domain.ChatMessage
}

type ChatOutput struct {
	SessionID string
	Messages  []domain.ChatMessage
}

// ChatService is the conversational front door. Dialog state lives in the
// NLU engine and is keyed by session ID only.
type ChatService struct {
	nlu    Recognizer
	logger *slog.Logger
}

func NewChatService(nlu Recognizer, logger *slog.Logger) (*ChatService, error) {
	if nlu == nil {
		return nil, errors.New("usecase: recognizer must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatService{nlu: nlu, logger: logger}, nil
}

// Chat sends the first unstructured message to the NLU engine. On an
// upstream failure the returned output still carries the session ID in use.
func (s *ChatService) Chat(ctx context.Context, in ChatInput) (ChatOutput, error) {
	if !s.nlu.Configured() {
		return ChatOutput{}, newError(ErrorMisconfigured, "lex_not_configured", nil)
	}

	text := firstText(in.Messages)
	if text == "" {
		return ChatOutput{Messages: []domain.ChatMessage{domain.TextMessage(msgEmptyText)}}, nil
	}

	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		sessionID = newSessionID()
	}

	replies, err := s.nlu.Recognize(ctx, sessionID, text)
	if err != nil {
		s.logger.Error("lex recognize failed", "session_id", sessionID, "err", err)
		return ChatOutput{SessionID: sessionID}, newError(ErrorUpstream, "lex_error", err)
	}

	out := ChatOutput{SessionID: sessionID, Messages: make([]domain.ChatMessage, 0, len(replies))}
	for _, r := range replies {
		out.Messages = append(out.Messages, domain.TextMessage(r))
	}
	if len(out.Messages) == 0 {
		out.Messages = append(out.Messages, domain.TextMessage(msgContinue))
	}
	return out, nil
}

func firstText(msgs []domain.ChatMessage) string {
	if len(msgs) == 0 || msgs[0].Type != domain.MessageTypeUnstructured {
		return ""
	}
	return strings.TrimSpace(msgs[0].Unstructured.Text)
}

var newSessionID = func() string {
	return "sess-" + uuid.NewString()
}
