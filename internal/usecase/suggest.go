package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"dining-concierge/internal/dialog"
	"dining-concierge/internal/domain"
	"dining-concierge/internal/integrations/queue"
)

const (
	defaultSearchSize  = 50
	defaultSuggestions = 3
)

type MessageQueue interface {
	ReceiveOne(ctx context.Context) (*domain.QueueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type RestaurantSearcher interface {
	Search(ctx context.Context, cuisine string, cities []string, size int) ([]domain.Candidate, error)
}

type RestaurantReader interface {
	GetRestaurant(ctx context.Context, id string) (domain.Restaurant, bool, error)
}

type Notifier interface {
	Send(ctx context.Context, e domain.Email) (string, error)
}

type SuggestStatus string

const (
	StatusNoMessages SuggestStatus = "no_messages"
	StatusNoMatches  SuggestStatus = "no_matches"
	StatusDelivered  SuggestStatus = "delivered"
)

type SuggestOutput struct {
	Status      SuggestStatus
	MessageID   string
	Suggestions int
}

// SuggestService fulfills queued dining requests one message at a time.
type SuggestService struct {
	queue    MessageQueue
	search   RestaurantSearcher
	records  RestaurantReader
	notifier Notifier
	catalog  dialog.Catalog
	logger   *slog.Logger

	searchSize  int
	suggestions int
	perm        func(n int) []int
}

type SuggestOption func(*SuggestService)

func WithSuggestLogger(l *slog.Logger) SuggestOption {
	return func(s *SuggestService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPermutation replaces the source of random orderings used to sample hits.
func WithPermutation(perm func(n int) []int) SuggestOption {
	return func(s *SuggestService) {
		if perm != nil {
			s.perm = perm
		}
	}
}

func WithLimits(searchSize, suggestions int) SuggestOption {
	return func(s *SuggestService) {
		if searchSize > 0 {
			s.searchSize = searchSize
		}
		if suggestions > 0 {
			s.suggestions = suggestions
		}
	}
}

func NewSuggestService(q MessageQueue, search RestaurantSearcher, records RestaurantReader, n Notifier, catalog dialog.Catalog, opts ...SuggestOption) (*SuggestService, error) {
	if q == nil {
		return nil, errors.New("usecase: queue must not be nil")
	}
	if search == nil {
		return nil, errors.New("usecase: searcher must not be nil")
	}
	if records == nil {
		return nil, errors.New("usecase: restaurant reader must not be nil")
	}
	if n == nil {
		return nil, errors.New("usecase: notifier must not be nil")
	}
	s := &SuggestService{
		queue:       q,
		search:      search,
		records:     records,
		notifier:    n,
		catalog:     catalog,
		logger:      slog.Default(),
		searchSize:  defaultSearchSize,
		suggestions: defaultSuggestions,
		perm:        rand.Perm,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ProcessNext claims at most one queued request and fulfills it. The message
// is deleted only once it is fully handled; any error leaves it on the queue
// for redelivery.
func (s *SuggestService) ProcessNext(ctx context.Context) (SuggestOutput, error) {
	msg, err := s.queue.ReceiveOne(ctx)
	if err != nil {
		if errors.Is(err, queue.ErrNotConfigured) {
			return SuggestOutput{}, newError(ErrorMisconfigured, "queue_not_configured", err)
		}
		return SuggestOutput{}, newError(ErrorUpstream, "queue_receive_error", err)
	}
	if msg == nil {
		s.logger.Info("no messages in queue")
		return SuggestOutput{Status: StatusNoMessages}, nil
	}
	log := s.logger.With("message_id", msg.ID)

	req, err := queue.Decode(*msg)
	if err != nil {
		log.Error("undecodable message left for redrive", "err", err)
		return SuggestOutput{}, newError(ErrorInvalidInput, "malformed_message", err)
	}

	cities := s.catalog.Cities(req.Location)
	hits, err := s.search.Search(ctx, req.Cuisine, cities, s.searchSize)
	if err != nil {
		return SuggestOutput{}, newError(ErrorUpstream, "search_error", err)
	}
	log.Info("search complete", "cuisine", req.Cuisine, "cities", cities, "hits", len(hits))

	picks := s.sample(hits)
	if len(picks) == 0 {
		if err := s.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
			return SuggestOutput{}, newError(ErrorUpstream, "queue_delete_error", err)
		}
		log.Info("no restaurants found, request dropped")
		return SuggestOutput{Status: StatusNoMatches, MessageID: msg.ID}, nil
	}

	// Records missing from the store are skipped; the diner is emailed even
	// if none resolve.
	restaurants, err := s.resolve(ctx, log, picks)
	if err != nil {
		return SuggestOutput{}, newError(ErrorUpstream, "record_lookup_error", err)
	}

	sesID, err := s.notifier.Send(ctx, composeEmail(req, s.catalog.DisplayLocation(req.Location), restaurants))
	if err != nil {
		return SuggestOutput{}, newError(ErrorUpstream, "notification_error", err)
	}
	log.Info("suggestions sent", "ses_message_id", sesID, "count", len(restaurants))

	if err := s.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		return SuggestOutput{}, newError(ErrorUpstream, "queue_delete_error", err)
	}
	return SuggestOutput{Status: StatusDelivered, MessageID: msg.ID, Suggestions: len(restaurants)}, nil
}

// sample picks up to s.suggestions hits with distinct restaurant IDs,
// uniformly at random.
func (s *SuggestService) sample(hits []domain.Candidate) []domain.Candidate {
	if len(hits) == 0 {
		return nil
	}
	picked := make([]domain.Candidate, 0, s.suggestions)
	seen := make(map[string]struct{}, s.suggestions)
	for _, i := range s.perm(len(hits)) {
		if len(picked) == s.suggestions {
			break
		}
		h := hits[i]
		if _, dup := seen[h.RestaurantID]; dup || h.RestaurantID == "" {
			continue
		}
		seen[h.RestaurantID] = struct{}{}
		picked = append(picked, h)
	}
	return picked
}

func (s *SuggestService) resolve(ctx context.Context, log *slog.Logger, picks []domain.Candidate) ([]domain.Restaurant, error) {
	out := make([]domain.Restaurant, 0, len(picks))
	for _, p := range picks {
		r, ok, err := s.records.GetRestaurant(ctx, p.RestaurantID)
		if err != nil {
			return nil, err
		}
		if !ok {
			log.Warn("indexed restaurant missing from record store", "restaurant_id", p.RestaurantID)
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func composeEmail(req domain.DiningRequest, location string, restaurants []domain.Restaurant) domain.Email {
	var list strings.Builder
	for i, r := range restaurants {
		name := r.Name
		if name == "" {
			name = "Unknown"
		}
		address := r.Address
		if address == "" {
			address = "Unknown address"
		}
		fmt.Fprintf(&list, "%d. %s, located at %s\n", i+1, name, address)
	}
	return domain.Email{
		To:      req.Email,
		Subject: fmt.Sprintf("Your %s Restaurant Suggestions!", req.Cuisine),
		Body: fmt.Sprintf("Hello! Here are my %s restaurant suggestions for %d people in %s on %s at %s:\n\n%s\nEnjoy your meal!",
			req.Cuisine, req.NumPeople, location, req.DiningDate, req.DiningTime, list.String()),
	}
}
