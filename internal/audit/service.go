// Package audit keeps an append-only event log per company.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finboard-hq/finboard/internal/platform/store"
)

const logKey = "log"

// Event is a single audit record. The log is never trimmed or mutated.
type Event struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	At        time.Time `json:"at"`
}

// ErrIncomplete indicates a record is missing required fields.
var ErrIncomplete = errors.New("audit: entity and action required")

// Service appends and reads per-company audit events.
type Service struct {
	store store.Store
	now   func() time.Time
}

// NewService constructs the audit service.
func NewService(st store.Store) *Service {
	return &Service{store: st, now: time.Now}
}

// WithClock overrides the clock for deterministic tests.
func (s *Service) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Record appends one event to the company's log.
func (s *Service) Record(ctx context.Context, companyID string, event Event) error {
	if event.Entity == "" || event.Action == "" {
		return ErrIncomplete
	}
	event.ID = uuid.NewString()
	event.CompanyID = companyID
	if event.At.IsZero() {
		event.At = s.now().UTC()
	}
	return s.store.Update(ctx, companyID, store.CollectionAudit, logKey, func(current []byte) ([]byte, error) {
		var events []Event
		if current != nil {
			if err := json.Unmarshal(current, &events); err != nil {
				return nil, fmt.Errorf("audit: decode log: %w", err)
			}
		}
		events = append(events, event)
		return json.Marshal(events)
	})
}

// List returns the company's events in append order.
func (s *Service) List(ctx context.Context, companyID string) ([]Event, error) {
	doc, err := s.store.Get(ctx, companyID, store.CollectionAudit, logKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var events []Event
	if err := json.Unmarshal(doc, &events); err != nil {
		return nil, fmt.Errorf("audit: decode log: %w", err)
	}
	return events, nil
}
