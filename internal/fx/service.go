package fx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/finboard-hq/finboard/internal/platform/store"
)

// FallbackRate is applied when no rate record matches a lookup. Consumers must
// surface the fallback flag rather than treat the converted figure as exact.
const FallbackRate = 1.0

var (
	// ErrRateNotFound indicates the rate record does not exist.
	ErrRateNotFound = errors.New("fx: rate not found")
	// ErrInvalidCurrency indicates a currency code failed ISO 4217 validation.
	ErrInvalidCurrency = errors.New("fx: invalid currency code")
	// ErrInvalidDate indicates the rate date is not a valid day.
	ErrInvalidDate = errors.New("fx: invalid rate date")
)

// Service maintains the per-company rate registry.
type Service struct {
	store    store.Store
	validate *validator.Validate
	now      func() time.Time
}

// NewService constructs the fx service.
func NewService(st store.Store) *Service {
	return &Service{store: st, validate: validator.New(), now: time.Now}
}

// WithClock overrides the clock for deterministic tests.
func (s *Service) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

func rateKey(target, date string) string {
	return target + "@" + date
}

// List returns all rates registered for a company.
func (s *Service) List(ctx context.Context, companyID string) ([]Rate, error) {
	docs, err := s.store.List(ctx, companyID, store.CollectionRates)
	if err != nil {
		return nil, err
	}
	rates := make([]Rate, 0, len(docs))
	for _, doc := range docs {
		var r Rate
		if err := json.Unmarshal(doc, &r); err != nil {
			return nil, fmt.Errorf("fx: decode rate: %w", err)
		}
		rates = append(rates, r)
	}
	return rates, nil
}

// Upsert registers or replaces the rate for (target, date).
func (s *Service) Upsert(ctx context.Context, companyID string, in RateInput) (Rate, error) {
	if err := s.validate.Struct(in); err != nil {
		return Rate{}, fmt.Errorf("%w: %v", ErrInvalidCurrency, err)
	}
	base := strings.ToUpper(strings.TrimSpace(in.Base))
	target := strings.ToUpper(strings.TrimSpace(in.Target))
	for _, code := range []string{base, target} {
		if _, err := currency.ParseISO(code); err != nil {
			return Rate{}, fmt.Errorf("%w: %s", ErrInvalidCurrency, code)
		}
	}
	if _, err := time.Parse(DateLayout, in.Date); err != nil {
		return Rate{}, fmt.Errorf("%w: %s", ErrInvalidDate, in.Date)
	}
	rate := Rate{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		Base:      base,
		Target:    target,
		Date:      in.Date,
		Rate:      in.Rate,
		CreatedAt: s.now().UTC(),
	}
	doc, err := json.Marshal(rate)
	if err != nil {
		return Rate{}, err
	}
	if err := s.store.Put(ctx, companyID, store.CollectionRates, rateKey(target, in.Date), doc); err != nil {
		return Rate{}, err
	}
	return rate, nil
}

// Delete removes a rate record by id.
func (s *Service) Delete(ctx context.Context, companyID, id string) error {
	rates, err := s.List(ctx, companyID)
	if err != nil {
		return err
	}
	for _, r := range rates {
		if r.ID == id {
			return s.store.Delete(ctx, companyID, store.CollectionRates, rateKey(r.Target, r.Date))
		}
	}
	return ErrRateNotFound
}

// FindRate resolves the rate for (company, target, date). A nil result with a
// nil error means no rate is on file; callers then apply the fallback policy.
func (s *Service) FindRate(ctx context.Context, companyID, target, date string) (*Rate, error) {
	target = strings.ToUpper(strings.TrimSpace(target))
	doc, err := s.store.Get(ctx, companyID, store.CollectionRates, rateKey(target, date))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var r Rate
	if err := json.Unmarshal(doc, &r); err != nil {
		return nil, fmt.Errorf("fx: decode rate: %w", err)
	}
	return &r, nil
}

// Convert converts amount into base currency using the resolved rate. When
// rate is nil the fallback rate of 1.0 applies and the flag is raised; the
// caller decides how to surface it. Convert never fails.
func Convert(amount float64, rate *Rate) Conversion {
	if rate == nil {
		return Conversion{Amount: Round2(amount * FallbackRate), FallbackUsed: true}
	}
	converted := decimal.NewFromFloat(amount).
		Mul(decimal.NewFromFloat(rate.Rate)).
		Round(2)
	f, _ := converted.Float64()
	return Conversion{Amount: f}
}

// Round2 rounds a monetary value to 2 decimal places, half away from zero.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
