package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// legacyTimestamp is the zone-less ISO-8601 form written by older producers;
// it is read as UTC.
const legacyTimestamp = "2006-01-02T15:04:05.999999999"

// DiningRequest is a fully validated dining-suggestions request as carried on
// the queue. It is only constructed once every slot has passed validation.
type DiningRequest struct {
	Location   string    `json:"location"`
	Cuisine    string    `json:"cuisine"`
	DiningDate string    `json:"diningDate"`
	DiningTime string    `json:"diningTime"`
	NumPeople  int       `json:"numPeople,string"`
	Email      string    `json:"email"`
	InsertedAt time.Time `json:"insertedAtTimestamp"`
}

// UnmarshalJSON accepts numPeople as a JSON string or number and
// insertedAtTimestamp with or without a zone offset.
func (r *DiningRequest) UnmarshalJSON(b []byte) error {
	type plain DiningRequest
	aux := struct {
		*plain
		NumPeople  json.RawMessage `json:"numPeople"`
		InsertedAt string          `json:"insertedAtTimestamp"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	n, err := parsePartySize(aux.NumPeople)
	if err != nil {
		return err
	}
	r.NumPeople = n
	ts, err := parseTimestamp(aux.InsertedAt)
	if err != nil {
		return err
	}
	r.InsertedAt = ts
	return nil
}

func parsePartySize(raw json.RawMessage) (int, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("domain: numPeople: %w", err)
		}
		s = strings.TrimSpace(s)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("domain: numPeople %q is not an integer", s)
	}
	return n, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(legacyTimestamp, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("domain: insertedAtTimestamp %q: %w", s, err)
	}
	return t, nil
}

// Candidate is a single search index hit.
type Candidate struct {
	RestaurantID string `json:"RestaurantID"`
	Cuisine      string `json:"Cuisine"`
	City         string `json:"City"`
}

// Restaurant is the display record held in the record store.
type Restaurant struct {
	ID          string
	Name        string
	Address     string
	City        string
	Cuisine     string
	ZipCode     string
	Rating      float64
	ReviewCount int
}

// QueueMessage is one received queue message and its acknowledgment token.
type QueueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// Email is a single-recipient plain-text notification.
type Email struct {
	To      string
	Subject string
	Body    string
}
