package consol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/finboard-hq/finboard/internal/elimination"
	"github.com/finboard-hq/finboard/internal/fx"
	"github.com/finboard-hq/finboard/internal/platform/store"
	"github.com/finboard-hq/finboard/internal/tb"
)

// Consolidation adjustments target multiple companies, so they live under a
// reserved scope in the store rather than any single company.
const adjustmentScope = "consolidated"

const seriesKey = "monthly"

var (
	// ErrAdjustmentNotFound indicates the adjustment id does not exist.
	ErrAdjustmentNotFound = errors.New("consol: adjustment not found")
	// ErrInvalidAdjustment indicates the adjustment input failed validation.
	ErrInvalidAdjustment = errors.New("consol: invalid adjustment")
	// ErrNoCompanies indicates a report query without a company selection.
	ErrNoCompanies = errors.New("consol: at least one company required")
)

// TrialBalances is the subset of the trial-balance service the engine reads.
type TrialBalances interface {
	List(ctx context.Context, companyID string) ([]tb.TrialBalance, error)
}

// Rates is the subset of the fx service the engine reads.
type Rates interface {
	FindRate(ctx context.Context, companyID, target, date string) (*fx.Rate, error)
}

// Service is the consolidation and aggregation engine.
type Service struct {
	store    store.Store
	tb       TrialBalances
	fx       Rates
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewService constructs the consolidation service.
func NewService(st store.Store, tbSvc TrialBalances, fxSvc Rates, logger *slog.Logger) *Service {
	return &Service{
		store:    st,
		tb:       tbSvc,
		fx:       fxSvc,
		logger:   logger,
		validate: validator.New(),
		now:      time.Now,
	}
}

// WithClock overrides the clock for deterministic tests.
func (s *Service) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// SaveSeries stores a company's monthly series wholesale.
func (s *Service) SaveSeries(ctx context.Context, companyID string, series CompanySeries) error {
	series.CompanyID = companyID
	series.Currency = strings.ToUpper(strings.TrimSpace(series.Currency))
	sort.Slice(series.Points, func(i, j int) bool { return series.Points[i].Date < series.Points[j].Date })
	doc, err := json.Marshal(series)
	if err != nil {
		return err
	}
	return s.store.Put(ctx, companyID, store.CollectionSeries, seriesKey, doc)
}

// Series returns a company's stored series; a missing series is empty, not an
// error, so the company contributes zero to any consolidation.
func (s *Service) Series(ctx context.Context, companyID string) (CompanySeries, error) {
	doc, err := s.store.Get(ctx, companyID, store.CollectionSeries, seriesKey)
	if errors.Is(err, store.ErrNotFound) {
		return CompanySeries{CompanyID: companyID}, nil
	}
	if err != nil {
		return CompanySeries{}, err
	}
	var series CompanySeries
	if err := json.Unmarshal(doc, &series); err != nil {
		return CompanySeries{}, fmt.Errorf("consol: decode series: %w", err)
	}
	return series, nil
}

// ListAdjustments returns consolidation adjustments, optionally filtered to
// those targeting any of the given companies.
func (s *Service) ListAdjustments(ctx context.Context, companies []string) ([]Adjustment, error) {
	docs, err := s.store.List(ctx, adjustmentScope, store.CollectionAdjustments)
	if err != nil {
		return nil, err
	}
	filter := make(map[string]bool, len(companies))
	for _, id := range companies {
		filter[id] = true
	}
	adjustments := make([]Adjustment, 0, len(docs))
	for _, doc := range docs {
		var adj Adjustment
		if err := json.Unmarshal(doc, &adj); err != nil {
			return nil, fmt.Errorf("consol: decode adjustment: %w", err)
		}
		if len(filter) > 0 && !intersects(adj.Companies, filter) {
			continue
		}
		adjustments = append(adjustments, adj)
	}
	sort.Slice(adjustments, func(i, j int) bool { return adjustments[i].CreatedAt.Before(adjustments[j].CreatedAt) })
	return adjustments, nil
}

// AddAdjustment validates and stores a consolidation adjustment.
func (s *Service) AddAdjustment(ctx context.Context, in AdjustmentInput) (Adjustment, error) {
	if err := s.validate.Struct(in); err != nil {
		return Adjustment{}, fmt.Errorf("%w: %v", ErrInvalidAdjustment, err)
	}
	if _, err := time.Parse(DateLayout, in.Date); err != nil {
		return Adjustment{}, fmt.Errorf("%w: bad date %q", ErrInvalidAdjustment, in.Date)
	}
	adj := Adjustment{
		ID:        uuid.NewString(),
		Companies: in.Companies,
		Date:      in.Date,
		Field:     in.Field,
		Delta:     in.Delta,
		Note:      in.Note,
		CreatedAt: s.now().UTC(),
	}
	doc, err := json.Marshal(adj)
	if err != nil {
		return Adjustment{}, err
	}
	if err := s.store.Put(ctx, adjustmentScope, store.CollectionAdjustments, adj.ID, doc); err != nil {
		return Adjustment{}, err
	}
	return adj, nil
}

// DeleteAdjustment removes a consolidation adjustment by id.
func (s *Service) DeleteAdjustment(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, adjustmentScope, store.CollectionAdjustments, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrAdjustmentNotFound
	}
	return err
}

// GetReports builds the consolidated report for the query: merge the selected
// companies' series, apply adjustments, rebuild cash, then derive KPIs,
// balance sheet, cash flow, and eliminations. Missing company data counts as
// zero contribution; missing FX rates fall back to 1.0 and raise the flag.
func (s *Service) GetReports(ctx context.Context, q Query) (Report, error) {
	if len(q.Companies) == 0 {
		return Report{}, ErrNoCompanies
	}
	reportCurrency := strings.ToUpper(strings.TrimSpace(q.Currency))

	var fallbackUsed bool
	perCompany := make([][]Point, 0, len(q.Companies))
	for _, companyID := range q.Companies {
		series, err := s.Series(ctx, companyID)
		if err != nil {
			return Report{}, err
		}
		points, fb, err := s.convertSeries(ctx, companyID, series, reportCurrency)
		if err != nil {
			return Report{}, err
		}
		fallbackUsed = fallbackUsed || fb
		perCompany = append(perCompany, points)
	}

	adjustments, err := s.ListAdjustments(ctx, nil)
	if err != nil {
		return Report{}, err
	}

	// Adjustments and the cash rebuild see the full merged history so that an
	// adjustment dated outside [from, to] still feeds the in-range running
	// cash instead of leaking a synthetic bucket into the report window.
	merged := Merge(perCompany)
	merged = ApplyAdjustments(merged, adjustments, q.Companies)
	merged = RecomputeCash(merged)
	merged = FilterRange(merged, q.From, q.To)

	kpis := ComputeKPIs(merged)

	latest, prior, unbalanced, err := s.tbBalances(ctx, q.Companies)
	if err != nil {
		return Report{}, err
	}

	var last Point
	if len(merged) > 0 {
		last = merged[len(merged)-1]
	}
	bs := BuildBalanceSheet(latest, last)
	cf := BuildCashFlow(kpis.NetIncome, kpis.Revenue, latest, prior)

	report := Report{
		KPIs:           kpis,
		Series:         merged,
		BalanceSheet:   bs,
		CashFlow:       cf,
		Eliminations:   elimination.BuildEntries(totalRevenue(merged), len(q.Companies)),
		FXFallbackUsed: fallbackUsed,
	}
	report.Insights = buildInsights(report, unbalanced)
	return report, nil
}

// convertSeries converts a company's points into the reporting currency.
// Rates are looked up per point month against the company's rate registry.
func (s *Service) convertSeries(ctx context.Context, companyID string, series CompanySeries, reportCurrency string) ([]Point, bool, error) {
	if reportCurrency == "" || series.Currency == "" || series.Currency == reportCurrency {
		return series.Points, false, nil
	}
	var fallbackUsed bool
	converted := make([]Point, 0, len(series.Points))
	for _, p := range series.Points {
		rate, err := s.fx.FindRate(ctx, companyID, series.Currency, firstOfMonth(p.Date))
		if err != nil {
			return nil, false, err
		}
		rev := fx.Convert(p.Revenue, rate)
		cogs := fx.Convert(p.COGS, rate)
		exp := fx.Convert(p.Expenses, rate)
		cash := fx.Convert(p.Cash, rate)
		fallbackUsed = fallbackUsed || rev.FallbackUsed
		converted = append(converted, Point{
			Date:     p.Date,
			Revenue:  rev.Amount,
			COGS:     cogs.Amount,
			Expenses: exp.Amount,
			Cash:     cash.Amount,
		})
	}
	if fallbackUsed && s.logger != nil {
		s.logger.Warn("fx fallback rate used in consolidation",
			slog.String("company_id", companyID), slog.String("currency", series.Currency))
	}
	return converted, fallbackUsed, nil
}

// tbBalances sums account-code net balances over the latest and prior trial
// balances of each selected company. Companies without trial balances
// contribute nothing.
func (s *Service) tbBalances(ctx context.Context, companies []string) (latest, prior map[string]float64, unbalanced bool, err error) {
	latest = make(map[string]float64)
	prior = make(map[string]float64)
	anyLatest := false
	for _, companyID := range companies {
		balances, err := s.tb.List(ctx, companyID)
		if err != nil {
			return nil, nil, false, err
		}
		if len(balances) == 0 {
			continue
		}
		sort.Slice(balances, func(i, j int) bool { return balances[i].PeriodEnd < balances[j].PeriodEnd })
		newest := balances[len(balances)-1]
		anyLatest = true
		accumulate(latest, newest)
		if !tb.ComputeAdjustedTotals(newest).Balanced {
			unbalanced = true
		}
		if len(balances) > 1 {
			accumulate(prior, balances[len(balances)-2])
		}
	}
	if !anyLatest {
		return nil, nil, false, nil
	}
	return latest, prior, unbalanced, nil
}

func accumulate(balances map[string]float64, t tb.TrialBalance) {
	for _, e := range t.Entries {
		balances[e.AccountCode] += e.Debit - e.Credit
	}
	for _, a := range t.Adjustments {
		balances[a.AccountCode] += a.Debit - a.Credit
	}
}

func totalRevenue(series []Point) float64 {
	var total float64
	for _, p := range series {
		total += p.Revenue
	}
	return total
}

func buildInsights(r Report, unbalancedTB bool) []string {
	var insights []string
	if r.KPIs.BurnRate < 0 {
		insights = append(insights, fmt.Sprintf("Operating burn of %.2f this period: expenses exceed gross profit.", -r.KPIs.BurnRate))
	}
	if r.FXFallbackUsed {
		insights = append(insights, "Some figures were converted with the fallback rate of 1.0 because no exchange rate was on file.")
	}
	if unbalancedTB {
		insights = append(insights, "At least one company's latest trial balance does not balance; statement figures may be unreliable.")
	}
	if r.BalanceSheet.Estimated {
		insights = append(insights, "Balance sheet uses heuristic ratios; upload trial balances for direct figures.")
	}
	return insights
}
