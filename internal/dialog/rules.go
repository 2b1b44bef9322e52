package dialog

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout   = "2006-01-02"
	MinPartySize = 1
	MaxPartySize = 20
)

// Violation names the slot that failed validation and the corrective prompt.
type Violation struct {
	Slot    SlotName
	Message string
}

// Rules validates slot values against a Catalog.
type Rules struct {
	catalog Catalog
	now     func() time.Time
}

// NewRules returns Rules backed by the given catalog. A nil clock defaults to
// time.Now.
func NewRules(catalog Catalog, now func() time.Time) *Rules {
	if now == nil {
		now = time.Now
	}
	return &Rules{catalog: catalog, now: now}
}

func (r *Rules) Catalog() Catalog { return r.catalog }

// Validate checks every filled slot in elicitation order and returns the first
// violation, or nil when all filled slots are acceptable.
func (r *Rules) Validate(slots Slots) *Violation {
	for _, name := range ElicitationOrder() {
		if v := r.Check(name, slots[name]); v != nil {
			return v
		}
	}
	return nil
}

// Check validates a single slot. Unset values produce no opinion.
func (r *Rules) Check(name SlotName, value Value) *Violation {
	raw, ok := value.Get()
	if !ok {
		return nil
	}
	var msg string
	switch name {
	case SlotLocation:
		msg = r.checkLocation(raw)
	case SlotCuisine:
		msg = r.checkCuisine(raw)
	case SlotDiningDate:
		msg = r.checkDate(raw)
	case SlotNumPeople:
		msg = checkPartySize(raw)
	case SlotEmail:
		msg = checkEmail(raw)
	case SlotDiningTime:
		// Accepted verbatim.
	}
	if msg == "" {
		return nil
	}
	return &Violation{Slot: name, Message: msg}
}

func (r *Rules) checkLocation(raw string) string {
	if _, ok := r.catalog.NormalizeLocation(raw); ok {
		return ""
	}
	return fmt.Sprintf("Sorry, we cannot fulfill requests for %s. Please enter a valid location: %s.",
		titleCase(raw), r.catalog.locationList())
}

func (r *Rules) checkCuisine(raw string) string {
	if _, ok := r.catalog.Cuisine(raw); ok {
		return ""
	}
	return fmt.Sprintf("Sorry, we don't have %s restaurants. Please choose from: %s.",
		raw, r.catalog.cuisineList())
}

func (r *Rules) checkDate(raw string) string {
	d, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return "Sorry, I didn't understand that date. Please enter a valid date (e.g. March 5th)."
	}
	now := r.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if d.Before(today) {
		return "Sorry, that date is in the past. Please enter a future date."
	}
	return ""
}

func checkPartySize(raw string) string {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return "Sorry, that doesn't look like a valid number. Please enter a number (e.g. 2)."
	}
	if n < MinPartySize || n > MaxPartySize {
		return fmt.Sprintf("Sorry, party size must be between %d and %d. How many people are in your party?",
			MinPartySize, MaxPartySize)
	}
	return ""
}

func checkEmail(raw string) string {
	if strings.Contains(raw, "@") {
		return ""
	}
	return "Sorry, that email looks invalid. Please enter a valid email address."
}
