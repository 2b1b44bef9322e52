package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"dining-concierge/internal/domain"
	"dining-concierge/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

const (
	msgMisconfigured = "Server misconfiguration: Lex bot/alias/locale not set in chat env vars."
	msgInvalidBody   = "Sorry, I couldn't read that message."
	msgOops          = "Oops, something went wrong. Please try again."
)

type ChatUseCase interface {
	Chat(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
}

type chatRequest struct {
	SessionID string               `json:"sessionId"`
	Messages  []domain.ChatMessage `json:"messages"`
}

type chatResponse struct {
	SessionID string               `json:"sessionId,omitempty"`
	Messages  []domain.ChatMessage `json:"messages"`
	Error     string               `json:"error,omitempty"`
}

// Handler serves the web chat API behind API Gateway.
type Handler struct {
	uc     ChatUseCase
	logger *slog.Logger
}

func NewHandler(uc ChatUseCase) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: chat use case must not be nil")
	}
	return &Handler{uc: uc, logger: slog.Default()}, nil
}

func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(req.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	log := h.logger.With("correlation_id", correlationID)

	if req.HTTPMethod == http.MethodOptions {
		return respond(http.StatusOK, correlationID, map[string]bool{"ok": true}), nil
	}

	var body chatRequest
	if strings.TrimSpace(req.Body) != "" {
		if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
			log.Warn("invalid request body", "err", err)
			return respond(http.StatusBadRequest, correlationID, chatResponse{
				Messages: []domain.ChatMessage{domain.TextMessage(msgInvalidBody)},
				Error:    string(usecase.ErrorInvalidInput),
			}), nil
		}
	}

	out, err := h.uc.Chat(ctx, usecase.ChatInput{SessionID: body.SessionID, Messages: body.Messages})
	if err != nil {
		status, code, text := mapError(err)
		log.Error("chat failed", "status", status, "code", code, "err", err)
		return respond(status, correlationID, chatResponse{
			SessionID: out.SessionID,
			Messages:  []domain.ChatMessage{domain.TextMessage(text)},
			Error:     code,
		}), nil
	}

	return respond(http.StatusOK, correlationID, chatResponse{SessionID: out.SessionID, Messages: out.Messages}), nil
}

func mapError(err error) (int, string, string) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		return http.StatusInternalServerError, string(usecase.ErrorInternal), msgOops
	}
	switch ucErr.Code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest, string(ucErr.Code), msgInvalidBody
	case usecase.ErrorMisconfigured:
		return http.StatusInternalServerError, string(ucErr.Code), msgMisconfigured
	default:
		return http.StatusInternalServerError, string(ucErr.Code), msgOops
	}
}

func respond(status int, correlationID string, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":                 "application/json",
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Headers": "*",
			"Access-Control-Allow-Methods": "OPTIONS,POST",
			correlationHeader:              correlationID,
		},
		Body: string(body),
	}
}

// headerValue looks a header up case-insensitively.
func headerValue(headers map[string]string, key string) string {
	if v, ok := headers[key]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
