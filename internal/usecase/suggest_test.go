package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dining-concierge/internal/dialog"
	"dining-concierge/internal/domain"
	"dining-concierge/internal/integrations/queue"
)

type mockQueue struct {
	msg        *domain.QueueMessage
	receiveErr error
	deleteErr  error
	deleted    []string
	calls      []string
	receives   int
}

func (m *mockQueue) ReceiveOne(_ context.Context) (*domain.QueueMessage, error) {
	m.receives++
	m.calls = append(m.calls, "receive")
	return m.msg, m.receiveErr
}

func (m *mockQueue) Delete(_ context.Context, receiptHandle string) error {
	m.calls = append(m.calls, "delete")
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, receiptHandle)
	return nil
}

type mockSearch struct {
	hits    []domain.Candidate
	err     error
	calls   int
	cuisine string
	cities  []string
	size    int
}

func (m *mockSearch) Search(_ context.Context, cuisine string, cities []string, size int) ([]domain.Candidate, error) {
	m.calls++
	m.cuisine, m.cities, m.size = cuisine, cities, size
	return m.hits, m.err
}

type mockRecords struct {
	records map[string]domain.Restaurant
	err     error
	lookups []string
}

func (m *mockRecords) GetRestaurant(_ context.Context, id string) (domain.Restaurant, bool, error) {
	m.lookups = append(m.lookups, id)
	if m.err != nil {
		return domain.Restaurant{}, false, m.err
	}
	r, ok := m.records[id]
	return r, ok, nil
}

type mockNotifier struct {
	err   error
	sent  []domain.Email
	queue *mockQueue
}

func (m *mockNotifier) Send(_ context.Context, e domain.Email) (string, error) {
	if m.queue != nil {
		m.queue.calls = append(m.queue.calls, "send")
	}
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, e)
	return "ses-1", nil
}

// identity keeps hit order so sampling is deterministic.
func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func queuedRequest(t *testing.T, location, cuisine string) *domain.QueueMessage {
	t.Helper()
	body, err := json.Marshal(domain.DiningRequest{
		Location:   location,
		Cuisine:    cuisine,
		DiningDate: "2026-03-12",
		DiningTime: "19:30",
		NumPeople:  2,
		Email:      "diner@example.com",
		InsertedAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return &domain.QueueMessage{ID: "m-1", Body: string(body), ReceiptHandle: "rh-1"}
}

func hits(ids ...string) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Candidate{RestaurantID: id, Cuisine: "Italian", City: "Manhattan"})
	}
	return out
}

func records(ids ...string) map[string]domain.Restaurant {
	out := make(map[string]domain.Restaurant, len(ids))
	for _, id := range ids {
		out[id] = domain.Restaurant{ID: id, Name: "Name " + id, Address: "Addr " + id}
	}
	return out
}

type suggestFixture struct {
	queue    *mockQueue
	search   *mockSearch
	records  *mockRecords
	notifier *mockNotifier
	svc      *SuggestService
}

func newSuggestFixture(t *testing.T, msg *domain.QueueMessage, found []domain.Candidate, recs map[string]domain.Restaurant) *suggestFixture {
	t.Helper()
	f := &suggestFixture{
		queue:   &mockQueue{msg: msg},
		search:  &mockSearch{hits: found},
		records: &mockRecords{records: recs},
	}
	f.notifier = &mockNotifier{queue: f.queue}
	svc, err := NewSuggestService(f.queue, f.search, f.records, f.notifier, dialog.DefaultCatalog(), WithPermutation(identity))
	require.NoError(t, err)
	f.svc = svc
	return f
}

func expectUsecaseError(t *testing.T, err error, code ErrorCode, reason string) {
	t.Helper()
	var usecaseErr *Error
	require.ErrorAs(t, err, &usecaseErr)
	require.Equal(t, code, usecaseErr.Code)
	require.Equal(t, reason, usecaseErr.Reason)
}

func TestNewSuggestService_ValidatesDependencies(t *testing.T) {
	c := dialog.DefaultCatalog()
	_, err := NewSuggestService(nil, &mockSearch{}, &mockRecords{}, &mockNotifier{}, c)
	require.Error(t, err)
	_, err = NewSuggestService(&mockQueue{}, nil, &mockRecords{}, &mockNotifier{}, c)
	require.Error(t, err)
	_, err = NewSuggestService(&mockQueue{}, &mockSearch{}, nil, &mockNotifier{}, c)
	require.Error(t, err)
	_, err = NewSuggestService(&mockQueue{}, &mockSearch{}, &mockRecords{}, nil, c)
	require.Error(t, err)
}

func TestProcessNext_EmptyQueue(t *testing.T) {
	f := newSuggestFixture(t, nil, nil, nil)
	out, err := f.svc.ProcessNext(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusNoMessages, out.Status)
	require.Zero(t, f.search.calls)
	require.Empty(t, f.notifier.sent)
	require.Equal(t, 1, f.queue.receives)
}

func TestProcessNext_HappyPath(t *testing.T) {
	f := newSuggestFixture(t, queuedRequest(t, "manhattan", "Italian"), hits("a", "b", "c", "d"), records("a", "b", "c", "d"))

	out, err := f.svc.ProcessNext(context.Background())
	require.NoError(t, err)
	require.Equal(t, SuggestOutput{Status: StatusDelivered, MessageID: "m-1", Suggestions: 3}, out)

	require.Equal(t, "Italian", f.search.cuisine)
	require.Equal(t, []string{"Manhattan"}, f.search.cities)
	require.Equal(t, 50, f.search.size)
	require.Equal(t, []string{"a", "b", "c"}, f.records.lookups)

	require.Len(t, f.notifier.sent, 1)
	email := f.notifier.sent[0]
	require.Equal(t, "diner@example.com", email.To)
	require.Equal(t, "Your Italian Restaurant Suggestions!", email.Subject)
	require.Equal(t, "Hello! Here are my Italian restaurant suggestions for 2 people in Manhattan on 2026-03-12 at 19:30:\n\n"+
		"1. Name a, located at Addr a\n"+
		"2. Name b, located at Addr b\n"+
		"3. Name c, located at Addr c\n"+
		"\nEnjoy your meal!", email.Body)

	require.Equal(t, []string{"receive", "send", "delete"}, f.queue.calls)
	require.Equal(t, []string{"rh-1"}, f.queue.deleted)
}

func TestProcessNext_UmbrellaLocationExpands(t *testing.T) {
	f := newSuggestFixture(t, queuedRequest(t, dialog.UmbrellaNYC, "Chinese"), hits("a"), records("a"))
	_, err := f.svc.ProcessNext(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"New York", "Manhattan", "Brooklyn", "Queens"}, f.search.cities)
	require.Contains(t, f.notifier.sent[0].Body, "in NYC on")
}

func TestProcessNext_NoHitsDeletesWithoutEmail(t *testing.T) {
	f := newSuggestFixture(t, queuedRequest(t, "boston", "Japanese"), nil, nil)
	out, err := f.svc.ProcessNext(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusNoMatches, out.Status)
	require.Empty(t, f.notifier.sent)
	require.Empty(t, f.records.lookups)
	require.Equal(t, []string{"rh-1"}, f.queue.deleted)
}

func TestProcessNext_MissingRecordsAreSkipped(t *testing.T) {
	f := newSuggestFixture(t, queuedRequest(t, "manhattan", "Italian"), hits("a", "b", "c"), records("a", "c"))
	out, err := f.svc.ProcessNext(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, out.Suggestions)
	body := f.notifier.sent[0].Body
	require.Contains(t, body, "1. Name a, located at Addr a\n2. Name c, located at Addr c\n")
	require.NotContains(t, body, "Name b")
}

func TestProcessNext_NoResolvableRecordsStillEmails(t *testing.T) {
	f := newSuggestFixture(t, queuedRequest(t, "manhattan", "Italian"), hits("a", "b"), records())
	out, err := f.svc.ProcessNext(context.Background())
	require.NoError(t, err)
	require.Equal(t, SuggestOutput{Status: StatusDelivered, MessageID: "m-1"}, out)
	require.Equal(t, []string{"a", "b"}, f.records.lookups)

	require.Len(t, f.notifier.sent, 1)
	require.Equal(t, "Hello! Here are my Italian restaurant suggestions for 2 people in Manhattan on 2026-03-12 at 19:30:\n\n"+
		"\nEnjoy your meal!", f.notifier.sent[0].Body)
	require.Equal(t, []string{"receive", "send", "delete"}, f.queue.calls)
	require.Equal(t, []string{"rh-1"}, f.queue.deleted)
}

func TestProcessNext_HitsWithoutIDsDeleteWithoutEmail(t *testing.T) {
	f := newSuggestFixture(t, queuedRequest(t, "manhattan", "Italian"), hits("", ""), records())
	out, err := f.svc.ProcessNext(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusNoMatches, out.Status)
	require.Empty(t, f.records.lookups)
	require.Empty(t, f.notifier.sent)
	require.Equal(t, []string{"rh-1"}, f.queue.deleted)
}

func TestProcessNext_SamplesDistinctRestaurants(t *testing.T) {
	f := newSuggestFixture(t, queuedRequest(t, "manhattan", "Italian"), hits("a", "a", "b", "", "b", "c"), records("a", "b", "c"))
	out, err := f.svc.ProcessNext(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, out.Suggestions)
	require.Equal(t, []string{"a", "b", "c"}, f.records.lookups)
}

func TestProcessNext_FewerHitsThanSuggestions(t *testing.T) {
	f := newSuggestFixture(t, queuedRequest(t, "manhattan", "Italian"), hits("a"), records("a"))
	out, err := f.svc.ProcessNext(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, out.Suggestions)
}

func TestProcessNext_RandomSampleUsesPermutation(t *testing.T) {
	f := newSuggestFixture(t, queuedRequest(t, "manhattan", "Italian"), hits("a", "b", "c", "d", "e"), records("a", "b", "c", "d", "e"))
	reverse := func(n int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = n - 1 - i
		}
		return out
	}
	svc, err := NewSuggestService(f.queue, f.search, f.records, f.notifier, dialog.DefaultCatalog(), WithPermutation(reverse))
	require.NoError(t, err)
	_, err = svc.ProcessNext(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"e", "d", "c"}, f.records.lookups)
}

func TestProcessNext_DefaultSamplingStaysWithinHits(t *testing.T) {
	ids := make([]string, 10)
	for i := range ids {
		ids[i] = fmt.Sprintf("r-%d", i)
	}
	f := newSuggestFixture(t, queuedRequest(t, "manhattan", "Italian"), hits(ids...), records(ids...))
	svc, err := NewSuggestService(f.queue, f.search, f.records, f.notifier, dialog.DefaultCatalog())
	require.NoError(t, err)

	out, err := svc.ProcessNext(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, out.Suggestions)
	seen := map[string]bool{}
	for _, id := range f.records.lookups {
		require.False(t, seen[id], "duplicate pick %s", id)
		seen[id] = true
	}
}

func TestProcessNext_NotificationFailureKeepsMessage(t *testing.T) {
	f := newSuggestFixture(t, queuedRequest(t, "manhattan", "Italian"), hits("a"), records("a"))
	f.notifier.err = errors.New("MessageRejected")

	_, err := f.svc.ProcessNext(context.Background())
	expectUsecaseError(t, err, ErrorUpstream, "notification_error")
	require.Empty(t, f.queue.deleted)
}

func TestProcessNext_SearchFailureKeepsMessage(t *testing.T) {
	f := newSuggestFixture(t, queuedRequest(t, "manhattan", "Italian"), nil, nil)
	f.search.err = errors.New("503")

	_, err := f.svc.ProcessNext(context.Background())
	expectUsecaseError(t, err, ErrorUpstream, "search_error")
	require.Empty(t, f.queue.deleted)
	require.Empty(t, f.notifier.sent)
}

func TestProcessNext_RecordStoreFailureKeepsMessage(t *testing.T) {
	f := newSuggestFixture(t, queuedRequest(t, "manhattan", "Italian"), hits("a"), nil)
	f.records.err = errors.New("dynamodb down")

	_, err := f.svc.ProcessNext(context.Background())
	expectUsecaseError(t, err, ErrorUpstream, "record_lookup_error")
	require.Empty(t, f.queue.deleted)
	require.Empty(t, f.notifier.sent)
}

func TestProcessNext_MalformedMessageIsNotDeleted(t *testing.T) {
	f := newSuggestFixture(t, &domain.QueueMessage{ID: "m-9", Body: "{", ReceiptHandle: "rh-9"}, nil, nil)
	_, err := f.svc.ProcessNext(context.Background())
	expectUsecaseError(t, err, ErrorInvalidInput, "malformed_message")
	require.Empty(t, f.queue.deleted)
	require.Zero(t, f.search.calls)
}

func TestProcessNext_QueueErrors(t *testing.T) {
	f := newSuggestFixture(t, nil, nil, nil)
	f.queue.receiveErr = queue.ErrNotConfigured
	_, err := f.svc.ProcessNext(context.Background())
	expectUsecaseError(t, err, ErrorMisconfigured, "queue_not_configured")

	f.queue.receiveErr = errors.New("throttled")
	_, err = f.svc.ProcessNext(context.Background())
	expectUsecaseError(t, err, ErrorUpstream, "queue_receive_error")
}

func TestProcessNext_DeleteFailureAfterSendIsReported(t *testing.T) {
	f := newSuggestFixture(t, queuedRequest(t, "manhattan", "Italian"), hits("a"), records("a"))
	f.queue.deleteErr = errors.New("ReceiptHandleIsInvalid")

	_, err := f.svc.ProcessNext(context.Background())
	expectUsecaseError(t, err, ErrorUpstream, "queue_delete_error")
	require.Len(t, f.notifier.sent, 1)
}

func TestComposeEmail_DefaultsForSparseRecords(t *testing.T) {
	e := composeEmail(domain.DiningRequest{Cuisine: "Mexican", NumPeople: 4, DiningDate: "d", DiningTime: "t", Email: "x@y"}, "Austin",
		[]domain.Restaurant{{ID: "r"}})
	require.Contains(t, e.Body, "1. Unknown, located at Unknown address\n")
	require.Equal(t, "Your Mexican Restaurant Suggestions!", e.Subject)
}
