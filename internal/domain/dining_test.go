package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDiningRequest_UnmarshalPartySize(t *testing.T) {
	cases := map[string]int{
		`{"numPeople":"4"}`:   4,
		`{"numPeople":" 4 "}`: 4,
		`{"numPeople":4}`:     4,
		`{"numPeople":null}`:  0,
		`{}`:                  0,
	}
	for body, want := range cases {
		var r DiningRequest
		require.NoError(t, json.Unmarshal([]byte(body), &r), body)
		require.Equal(t, want, r.NumPeople, body)
	}

	var r DiningRequest
	require.Error(t, json.Unmarshal([]byte(`{"numPeople":"4.5"}`), &r))
}

func TestDiningRequest_UnmarshalTimestamp(t *testing.T) {
	cases := map[string]time.Time{
		`{"insertedAtTimestamp":"2026-10-15T09:00:00.123456"}`:      time.Date(2026, 10, 15, 9, 0, 0, 123456000, time.UTC),
		`{"insertedAtTimestamp":"2026-10-15T09:00:00"}`:             time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
		`{"insertedAtTimestamp":"2026-10-15T09:00:00Z"}`:            time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
		`{"insertedAtTimestamp":"2026-10-15T11:00:00+02:00"}`:       time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
		`{"insertedAtTimestamp":"2026-10-15T09:00:00.5Z","x":true}`: time.Date(2026, 10, 15, 9, 0, 0, 500000000, time.UTC),
	}
	for body, want := range cases {
		var r DiningRequest
		require.NoError(t, json.Unmarshal([]byte(body), &r), body)
		require.True(t, want.Equal(r.InsertedAt), "%s: got %s", body, r.InsertedAt)
	}

	var r DiningRequest
	require.Error(t, json.Unmarshal([]byte(`{"insertedAtTimestamp":"yesterday"}`), &r))
}

func TestDiningRequest_RoundTrip(t *testing.T) {
	in := DiningRequest{
		Location:   "nyc",
		Cuisine:    "Italian",
		DiningDate: "2026-03-12",
		DiningTime: "19:30",
		NumPeople:  4,
		Email:      "diner@example.com",
		InsertedAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	require.Contains(t, string(b), `"numPeople":"4"`)

	var out DiningRequest
	require.NoError(t, json.Unmarshal(b, &out))
	require.Equal(t, in, out)
}
