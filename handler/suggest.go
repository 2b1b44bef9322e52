package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"dining-concierge/internal/usecase"
)

type SuggestUseCase interface {
	ProcessNext(ctx context.Context) (usecase.SuggestOutput, error)
}

type SuggestResponse struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// SuggestHandler drains one queued request per scheduled invocation.
type SuggestHandler struct {
	uc SuggestUseCase
}

func NewSuggestHandler(uc SuggestUseCase) (*SuggestHandler, error) {
	if uc == nil {
		return nil, errors.New("handler: suggest use case must not be nil")
	}
	return &SuggestHandler{uc: uc}, nil
}

// Handle returns an error on failure so the invocation is recorded as failed
// and the message stays queued.
func (h *SuggestHandler) Handle(ctx context.Context, _ events.CloudWatchEvent) (SuggestResponse, error) {
	out, err := h.uc.ProcessNext(ctx)
	if err != nil {
		return SuggestResponse{}, err
	}
	switch out.Status {
	case usecase.StatusNoMessages:
		return SuggestResponse{StatusCode: http.StatusOK, Body: "No messages"}, nil
	case usecase.StatusNoMatches:
		return SuggestResponse{StatusCode: http.StatusOK, Body: "No restaurants found"}, nil
	}
	return SuggestResponse{StatusCode: http.StatusOK, Body: "Done"}, nil
}
