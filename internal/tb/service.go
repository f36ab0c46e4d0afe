package tb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finboard-hq/finboard/internal/audit"
	"github.com/finboard-hq/finboard/internal/coa"
	"github.com/finboard-hq/finboard/internal/fx"
	"github.com/finboard-hq/finboard/internal/platform/store"
)

var (
	// ErrNotFound indicates the trial balance does not exist.
	ErrNotFound = errors.New("tb: trial balance not found")
	// ErrLocked indicates a mutation was attempted on an approved or locked
	// trial balance. Mutations are rejected, never silently ignored.
	ErrLocked = errors.New("tb: trial balance is locked for adjustments")
	// ErrInvalidTransition indicates a status change that skips or reverses.
	ErrInvalidTransition = errors.New("tb: invalid status transition")
	// ErrAdjustmentSides indicates an adjustment with both or neither side set.
	ErrAdjustmentSides = errors.New("tb: adjustment requires exactly one positive side")
	// ErrAdjustmentNotFound indicates the adjustment id does not exist.
	ErrAdjustmentNotFound = errors.New("tb: adjustment not found")
	// ErrNoEntries indicates a save with nothing left after filtering.
	ErrNoEntries = errors.New("tb: no postable entries")
)

// AddInput carries a new trial balance prior to filtering and conversion.
type AddInput struct {
	PeriodStart string
	PeriodEnd   string
	Currency    string
	Entries     []Entry
}

// SaveResult reports what a save actually persisted.
type SaveResult struct {
	TB             TrialBalance
	Stripped       []string
	FXFallbackUsed bool
}

// AdjustmentInput carries a new adjustment.
type AdjustmentInput struct {
	AccountCode string  `json:"account_code" validate:"required"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
	Reason      string  `json:"reason"`
	CreatedBy   string  `json:"created_by"`
	Currency    string  `json:"currency,omitempty"`
}

// Service owns trial-balance persistence and the lifecycle rules.
type Service struct {
	store  store.Store
	coa    *coa.Service
	fx     *fx.Service
	audit  *audit.Service
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the trial-balance service.
func NewService(st store.Store, coaSvc *coa.Service, fxSvc *fx.Service, auditSvc *audit.Service, logger *slog.Logger) *Service {
	return &Service{store: st, coa: coaSvc, fx: fxSvc, audit: auditSvc, logger: logger, now: time.Now}
}

// WithClock overrides the clock for deterministic tests.
func (s *Service) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// List returns every trial balance saved for the company.
func (s *Service) List(ctx context.Context, companyID string) ([]TrialBalance, error) {
	docs, err := s.store.List(ctx, companyID, store.CollectionTB)
	if err != nil {
		return nil, err
	}
	balances := make([]TrialBalance, 0, len(docs))
	for _, doc := range docs {
		var t TrialBalance
		if err := json.Unmarshal(doc, &t); err != nil {
			return nil, fmt.Errorf("tb: decode: %w", err)
		}
		balances = append(balances, t)
	}
	return balances, nil
}

// Get returns one trial balance by id.
func (s *Service) Get(ctx context.Context, companyID, tbID string) (TrialBalance, error) {
	doc, err := s.store.Get(ctx, companyID, store.CollectionTB, tbID)
	if errors.Is(err, store.ErrNotFound) {
		return TrialBalance{}, ErrNotFound
	}
	if err != nil {
		return TrialBalance{}, err
	}
	var t TrialBalance
	if err := json.Unmarshal(doc, &t); err != nil {
		return TrialBalance{}, fmt.Errorf("tb: decode: %w", err)
	}
	return t, nil
}

// Add filters, converts, and persists a new trial balance in draft status.
// Zero-valued entries, entries posted against parent accounts, and entries
// whose code is unknown to the CoA never reach the store. The write is a
// single Put, so a save lands whole or not at all.
func (s *Service) Add(ctx context.Context, companyID string, in AddInput) (SaveResult, error) {
	accounts, err := s.coa.List(ctx, companyID)
	if err != nil {
		return SaveResult{}, err
	}
	parents := coa.ParentCodes(accounts)
	known := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		known[a.Code] = true
	}

	result := SaveResult{}
	baseCurrency := strings.ToUpper(strings.TrimSpace(in.Currency))
	entries := make([]Entry, 0, len(in.Entries))
	for _, e := range in.Entries {
		if e.Debit == 0 && e.Credit == 0 {
			continue
		}
		if parents[e.AccountCode] {
			continue
		}
		if !known[e.AccountCode] {
			result.Stripped = append(result.Stripped, e.AccountCode)
			continue
		}
		entry, fallback, err := s.convertEntry(ctx, companyID, baseCurrency, in.PeriodEnd, e)
		if err != nil {
			return SaveResult{}, err
		}
		result.FXFallbackUsed = result.FXFallbackUsed || fallback
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return SaveResult{}, ErrNoEntries
	}

	t := TrialBalance{
		ID:          uuid.NewString(),
		CompanyID:   companyID,
		PeriodStart: in.PeriodStart,
		PeriodEnd:   in.PeriodEnd,
		Entries:     entries,
		Status:      StatusDraft,
		Currency:    baseCurrency,
		CreatedAt:   s.now().UTC(),
	}
	doc, err := json.Marshal(t)
	if err != nil {
		return SaveResult{}, err
	}
	if err := s.store.Put(ctx, companyID, store.CollectionTB, t.ID, doc); err != nil {
		return SaveResult{}, err
	}
	if result.FXFallbackUsed && s.logger != nil {
		s.logger.Warn("tb saved with fx fallback rate",
			slog.String("company_id", companyID), slog.String("tb_id", t.ID))
	}
	result.TB = t
	return result, nil
}

// convertEntry converts a foreign-currency entry into the base currency. A
// missing rate applies the fallback rate of 1.0 and raises the flag.
func (s *Service) convertEntry(ctx context.Context, companyID, baseCurrency, date string, e Entry) (Entry, bool, error) {
	cur := strings.ToUpper(strings.TrimSpace(e.Currency))
	if cur == "" || cur == baseCurrency {
		return e, false, nil
	}
	rate, err := s.fx.FindRate(ctx, companyID, cur, date)
	if err != nil {
		return Entry{}, false, err
	}
	debit := fx.Convert(e.Debit, rate)
	credit := fx.Convert(e.Credit, rate)

	origDebit, origCredit := e.Debit, e.Credit
	applied := fx.FallbackRate
	if rate != nil {
		applied = rate.Rate
	}
	e.OriginalDebit = &origDebit
	e.OriginalCredit = &origCredit
	e.FXRateToBase = &applied
	e.Debit = debit.Amount
	e.Credit = credit.Amount
	return e, debit.FallbackUsed || credit.FallbackUsed, nil
}

// UpdateStatus advances the trial balance one step. The whole check-and-set
// runs against a freshly read document, so concurrent calls cannot skip a
// state or move backwards. Re-asserting the current status is a no-op.
func (s *Service) UpdateStatus(ctx context.Context, companyID, tbID string, target Status) error {
	if !target.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, target)
	}
	return s.store.Update(ctx, companyID, store.CollectionTB, tbID, func(current []byte) ([]byte, error) {
		if current == nil {
			return nil, ErrNotFound
		}
		var t TrialBalance
		if err := json.Unmarshal(current, &t); err != nil {
			return nil, fmt.Errorf("tb: decode: %w", err)
		}
		if t.Status == target {
			return current, nil
		}
		if !CanTransition(t.Status, target) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, target)
		}
		t.Status = target
		return json.Marshal(t)
	})
}

// AddAdjustment appends an adjustment while the trial balance is still
// mutable, then records the audit event. Rejected calls leave no audit trace.
func (s *Service) AddAdjustment(ctx context.Context, companyID, tbID string, in AdjustmentInput) (Adjustment, error) {
	if err := validateSides(in.Debit, in.Credit); err != nil {
		return Adjustment{}, err
	}
	if strings.TrimSpace(in.AccountCode) == "" {
		return Adjustment{}, fmt.Errorf("%w: account code required", ErrAdjustmentSides)
	}
	adj := Adjustment{
		ID:          uuid.NewString(),
		TBID:        tbID,
		AccountCode: in.AccountCode,
		Debit:       in.Debit,
		Credit:      in.Credit,
		Reason:      in.Reason,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   s.now().UTC(),
		Currency:    in.Currency,
	}
	err := s.store.Update(ctx, companyID, store.CollectionTB, tbID, func(current []byte) ([]byte, error) {
		if current == nil {
			return nil, ErrNotFound
		}
		var t TrialBalance
		if err := json.Unmarshal(current, &t); err != nil {
			return nil, fmt.Errorf("tb: decode: %w", err)
		}
		if !t.Status.Mutable() {
			return nil, fmt.Errorf("%w: status %s", ErrLocked, t.Status)
		}
		t.Adjustments = append(t.Adjustments, adj)
		return json.Marshal(t)
	})
	if err != nil {
		return Adjustment{}, err
	}
	s.recordAudit(ctx, companyID, adj.ID, "create", in.CreatedBy)
	return adj, nil
}

// DeleteAdjustment removes an adjustment under the same mutability gate.
func (s *Service) DeleteAdjustment(ctx context.Context, companyID, tbID, adjID, actor string) error {
	err := s.store.Update(ctx, companyID, store.CollectionTB, tbID, func(current []byte) ([]byte, error) {
		if current == nil {
			return nil, ErrNotFound
		}
		var t TrialBalance
		if err := json.Unmarshal(current, &t); err != nil {
			return nil, fmt.Errorf("tb: decode: %w", err)
		}
		if !t.Status.Mutable() {
			return nil, fmt.Errorf("%w: status %s", ErrLocked, t.Status)
		}
		kept := t.Adjustments[:0]
		found := false
		for _, a := range t.Adjustments {
			if a.ID == adjID {
				found = true
				continue
			}
			kept = append(kept, a)
		}
		if !found {
			return nil, ErrAdjustmentNotFound
		}
		t.Adjustments = kept
		return json.Marshal(t)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, companyID, adjID, "delete", actor)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, companyID, adjID, action, actor string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, companyID, audit.Event{
		Entity:   "adjustment",
		EntityID: adjID,
		Action:   action,
		Actor:    actor,
	})
	if err != nil && s.logger != nil {
		s.logger.Error("record adjustment audit event", slog.Any("error", err))
	}
}

func validateSides(debit, credit float64) error {
	if debit < 0 || credit < 0 {
		return fmt.Errorf("%w: negative amounts", ErrAdjustmentSides)
	}
	if (debit > 0) == (credit > 0) {
		return ErrAdjustmentSides
	}
	return nil
}
