package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"dining-concierge/internal/domain"
)

const (
	IntentDiningSuggestions = "DiningSuggestionsIntent"
	IntentGreeting          = "GreetingIntent"
	IntentThankYou          = "ThankYouIntent"
	IntentHelp              = "HelpingIntent"
)

const (
	msgGreeting      = "Hi! I can recommend restaurants. Say 'restaurant suggestions' to begin."
	msgThankYou      = "You're welcome! If you need restaurant suggestions, just ask."
	msgHelp          = "I can suggest restaurants in cities like Manhattan, Chicago, Miami and more. Try: 'Find Italian in Manhattan on April 3rd at 8pm for 2 people, email test@example.com'."
	msgFallback      = "Try saying 'restaurant suggestions' to get dining recommendations."
	msgCancelled     = "No worries, request cancelled. Feel free to start over."
	msgDispatch      = "Server misconfiguration: we couldn't submit your request. Please try again later."
	msgIncomplete    = "Sorry, some of your details are missing or invalid. Please start over."
	msgUnknownSource = "Something went wrong. Please try again."
)

// Source is the kind of code-hook invocation driving a turn.
type Source int

const (
	SourceUnknown Source = iota
	SourceDialog
	SourceFulfillment
)

// Confirmation is the user's answer to the intent's confirmation prompt.
type Confirmation int

const (
	ConfirmationNone Confirmation = iota
	ConfirmationConfirmed
	ConfirmationDenied
)

// Action is what the dialog manager should do next.
type Action int

const (
	ActionElicitSlot Action = iota + 1
	ActionDelegate
	ActionClose
)

func (a Action) String() string {
	switch a {
	case ActionElicitSlot:
		return "ElicitSlot"
	case ActionDelegate:
		return "Delegate"
	case ActionClose:
		return "Close"
	}
	return "Unknown"
}

// Outcome is the completion flag carried by a closing decision.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeFulfilled
	OutcomeFailed
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFulfilled:
		return "fulfilled"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	}
	return "none"
}

// SessionAttributes is an opaque bag forwarded unchanged between turns.
type SessionAttributes struct {
	values map[string]string
}

func NewSessionAttributes(values map[string]string) SessionAttributes {
	if len(values) == 0 {
		return SessionAttributes{}
	}
	cp := make(map[string]string, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return SessionAttributes{values: cp}
}

// Map returns a copy of the attributes. It never returns nil.
func (s SessionAttributes) Map() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Turn is one code-hook invocation.
type Turn struct {
	SessionID    string
	Session      SessionAttributes
	Intent       string
	Slots        Slots
	Source       Source
	Confirmation Confirmation
}

// Decision is the machine's answer to a Turn.
type Decision struct {
	Action       Action
	SlotToElicit SlotName
	Message      string
	Outcome      Outcome
	Session      SessionAttributes
}

// Dispatcher hands a completed request to the fulfillment pipeline.
type Dispatcher interface {
	Dispatch(ctx context.Context, req domain.DiningRequest) error
}

// Machine decides how each conversational turn proceeds.
type Machine struct {
	rules      *Rules
	dispatcher Dispatcher
	now        func() time.Time
	logger     *slog.Logger
}

type Option func(*Machine)

func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

func NewMachine(rules *Rules, d Dispatcher, opts ...Option) (*Machine, error) {
	if rules == nil {
		return nil, errors.New("dialog: rules must not be nil")
	}
	if d == nil {
		return nil, errors.New("dialog: dispatcher must not be nil")
	}
	m := &Machine{
		rules:      rules,
		dispatcher: d,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Decide runs one turn through the state machine. Failures reaching the
// dispatcher are reported as a failed close, never as an error.
func (m *Machine) Decide(ctx context.Context, t Turn) Decision {
	log := m.logger.With("session_id", t.SessionID, "intent", t.Intent)

	switch t.Intent {
	case IntentGreeting:
		return closeWith(t, OutcomeFulfilled, msgGreeting)
	case IntentThankYou:
		return closeWith(t, OutcomeFulfilled, msgThankYou)
	case IntentHelp:
		return closeWith(t, OutcomeFulfilled, msgHelp)
	case IntentDiningSuggestions:
	default:
		return closeWith(t, OutcomeFulfilled, msgFallback)
	}

	switch t.Source {
	case SourceDialog:
		return m.dialogTurn(t)
	case SourceFulfillment:
		return m.fulfillmentTurn(ctx, log, t)
	}
	log.Warn("unknown invocation source")
	return closeWith(t, OutcomeFailed, msgUnknownSource)
}

func (m *Machine) dialogTurn(t Turn) Decision {
	if v := m.rules.Validate(t.Slots); v != nil {
		return elicit(t, v.Slot, v.Message)
	}
	if name, prompt, missing := t.Slots.NextMissing(); missing {
		return elicit(t, name, prompt)
	}
	return Decision{Action: ActionDelegate, Session: t.Session}
}

func (m *Machine) fulfillmentTurn(ctx context.Context, log *slog.Logger, t Turn) Decision {
	if t.Confirmation == ConfirmationDenied {
		log.Info("request cancelled by user")
		return closeWith(t, OutcomeCancelled, msgCancelled)
	}

	req, err := m.buildRequest(t.Slots)
	if err != nil {
		log.Warn("fulfillment turn with incomplete request", "err", err)
		return closeWith(t, OutcomeFailed, msgIncomplete)
	}

	if err := m.dispatcher.Dispatch(ctx, req); err != nil {
		log.Error("failed to dispatch dining request", "err", err)
		return closeWith(t, OutcomeFailed, msgDispatch)
	}
	log.Info("dining request dispatched", "location", req.Location, "cuisine", req.Cuisine)

	return closeWith(t, OutcomeFulfilled, fmt.Sprintf(
		"Perfect! I'll email %s restaurant suggestions in %s on %s at %s for %d people to %s shortly!",
		req.Cuisine,
		m.rules.Catalog().DisplayLocation(req.Location),
		req.DiningDate,
		req.DiningTime,
		req.NumPeople,
		req.Email,
	))
}

// buildRequest constructs a DiningRequest only when every slot is present and
// valid.
func (m *Machine) buildRequest(slots Slots) (domain.DiningRequest, error) {
	if name, _, missing := slots.NextMissing(); missing {
		return domain.DiningRequest{}, fmt.Errorf("dialog: slot %s is missing", name)
	}
	if v := m.rules.Validate(slots); v != nil {
		return domain.DiningRequest{}, fmt.Errorf("dialog: slot %s is invalid", v.Slot)
	}

	catalog := m.rules.Catalog()
	rawLocation, _ := slots.Get(SlotLocation)
	rawCuisine, _ := slots.Get(SlotCuisine)
	date, _ := slots.Get(SlotDiningDate)
	diningTime, _ := slots.Get(SlotDiningTime)
	rawPeople, _ := slots.Get(SlotNumPeople)
	email, _ := slots.Get(SlotEmail)

	location, _ := catalog.NormalizeLocation(rawLocation)
	cuisine, _ := catalog.Cuisine(rawCuisine)
	people, _ := strconv.Atoi(strings.TrimSpace(rawPeople))

	return domain.DiningRequest{
		Location:   location,
		Cuisine:    cuisine,
		DiningDate: strings.TrimSpace(date),
		DiningTime: diningTime,
		NumPeople:  people,
		Email:      strings.TrimSpace(email),
		InsertedAt: m.now().UTC(),
	}, nil
}

func elicit(t Turn, slot SlotName, msg string) Decision {
	return Decision{Action: ActionElicitSlot, SlotToElicit: slot, Message: msg, Session: t.Session}
}

func closeWith(t Turn, outcome Outcome, msg string) Decision {
	return Decision{Action: ActionClose, Outcome: outcome, Message: msg, Session: t.Session}
}
