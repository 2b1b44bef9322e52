package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"dining-concierge/internal/dialog"
)

// Lex V2 code-hook wire shapes. Only the fields the bot reads are decoded;
// the intent object is echoed back verbatim on non-closing turns.
type lexEvent struct {
	SessionID        string          `json:"sessionId"`
	InvocationSource string          `json:"invocationSource"`
	InputTranscript  string          `json:"inputTranscript"`
	SessionState     lexSessionState `json:"sessionState"`
}

type lexSessionState struct {
	SessionAttributes map[string]string `json:"sessionAttributes"`
	Intent            json.RawMessage   `json:"intent"`
}

type lexIntent struct {
	Name              string              `json:"name"`
	ConfirmationState string              `json:"confirmationState"`
	Slots             map[string]*lexSlot `json:"slots"`
}

type lexSlot struct {
	Value *lexSlotValue `json:"value"`
}

type lexSlotValue struct {
	OriginalValue    string `json:"originalValue"`
	InterpretedValue string `json:"interpretedValue"`
}

type lexResponse struct {
	SessionState lexResponseState `json:"sessionState"`
	Messages     []lexMessage     `json:"messages,omitempty"`
}

type lexResponseState struct {
	SessionAttributes map[string]string `json:"sessionAttributes"`
	DialogAction      lexDialogAction   `json:"dialogAction"`
	Intent            json.RawMessage   `json:"intent"`
}

type lexDialogAction struct {
	Type         string `json:"type"`
	SlotToElicit string `json:"slotToElicit,omitempty"`
}

type lexMessage struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type closedIntent struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// Decider runs one conversational turn.
type Decider interface {
	Decide(ctx context.Context, t dialog.Turn) dialog.Decision
}

// DialogHandler is the Lex V2 dialog and fulfillment code hook.
type DialogHandler struct {
	decider Decider
	logger  *slog.Logger
}

func NewDialogHandler(d Decider, logger *slog.Logger) (*DialogHandler, error) {
	if d == nil {
		return nil, errors.New("handler: decider must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DialogHandler{decider: d, logger: logger}, nil
}

func (h *DialogHandler) Handle(ctx context.Context, raw json.RawMessage) (json.RawMessage, error) {
	var ev lexEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		h.logger.Error("invalid code hook event", "err", err)
		return nil, fmt.Errorf("handler: decode code hook event: %w", err)
	}
	var intent lexIntent
	if len(ev.SessionState.Intent) > 0 {
		if err := json.Unmarshal(ev.SessionState.Intent, &intent); err != nil {
			h.logger.Error("invalid code hook event", "session_id", ev.SessionID, "err", err)
			return nil, fmt.Errorf("handler: decode intent: %w", err)
		}
	}
	if intent.Name == "" {
		intent.Name = "UnknownIntent"
	}

	turn := dialog.Turn{
		SessionID:    ev.SessionID,
		Session:      dialog.NewSessionAttributes(ev.SessionState.SessionAttributes),
		Intent:       intent.Name,
		Slots:        toSlots(intent.Slots),
		Source:       toSource(ev.InvocationSource),
		Confirmation: toConfirmation(intent.ConfirmationState),
	}
	h.logger.Debug("code hook invoked",
		"session_id", ev.SessionID,
		"source", ev.InvocationSource,
		"intent", intent.Name,
	)

	d := h.decider.Decide(ctx, turn)
	return json.Marshal(encodeDecision(d, intent.Name, ev.SessionState.Intent))
}

func toSlots(in map[string]*lexSlot) dialog.Slots {
	out := make(dialog.Slots, len(in))
	for name, s := range in {
		if s == nil || s.Value == nil {
			continue
		}
		v := s.Value.InterpretedValue
		if v == "" {
			v = s.Value.OriginalValue
		}
		if v == "" {
			out[dialog.SlotName(name)] = dialog.Cleared()
			continue
		}
		out[dialog.SlotName(name)] = dialog.Some(v)
	}
	return out
}

func toSource(s string) dialog.Source {
	switch s {
	case "DialogCodeHook":
		return dialog.SourceDialog
	case "FulfillmentCodeHook":
		return dialog.SourceFulfillment
	}
	return dialog.SourceUnknown
}

func toConfirmation(s string) dialog.Confirmation {
	switch strings.TrimSpace(s) {
	case "Confirmed":
		return dialog.ConfirmationConfirmed
	case "Denied":
		return dialog.ConfirmationDenied
	}
	return dialog.ConfirmationNone
}

func encodeDecision(d dialog.Decision, intentName string, rawIntent json.RawMessage) lexResponse {
	resp := lexResponse{
		SessionState: lexResponseState{
			SessionAttributes: d.Session.Map(),
			DialogAction:      lexDialogAction{Type: d.Action.String()},
			Intent:            rawIntent,
		},
	}
	if len(resp.SessionState.Intent) == 0 {
		resp.SessionState.Intent = json.RawMessage(`{}`)
	}
	if d.Action == dialog.ActionElicitSlot {
		resp.SessionState.DialogAction.SlotToElicit = string(d.SlotToElicit)
	}
	if d.Action == dialog.ActionClose {
		closed, _ := json.Marshal(closedIntent{Name: intentName, State: intentState(d.Outcome)})
		resp.SessionState.Intent = closed
	}
	if d.Message != "" {
		resp.Messages = []lexMessage{{ContentType: "PlainText", Content: d.Message}}
	}
	return resp
}

// intentState maps an outcome to the Lex intent state. A cancelled request
// still closes the intent successfully.
func intentState(o dialog.Outcome) string {
	if o == dialog.OutcomeFailed {
		return "Failed"
	}
	return "Fulfilled"
}
