package fx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/finboard-hq/finboard/internal/platform/store"
)

func newTestService() *Service {
	svc := NewService(store.NewMemory())
	svc.WithClock(func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) })
	return svc
}

func TestUpsertAndFindRate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	rate, err := svc.Upsert(ctx, "co-1", RateInput{Base: "NGN", Target: "USD", Date: "2024-03-01", Rate: 1500})
	require.NoError(t, err)
	require.NotEmpty(t, rate.ID)
	require.Equal(t, "USD", rate.Target)

	found, err := svc.FindRate(ctx, "co-1", "usd", "2024-03-01")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, 1500.0, found.Rate)

	// Lookup is exact-date only, no nearest-date fallback.
	found, err = svc.FindRate(ctx, "co-1", "USD", "2024-03-02")
	require.NoError(t, err)
	require.Nil(t, found)

	// Rates are company-scoped.
	found, err = svc.FindRate(ctx, "co-2", "USD", "2024-03-01")
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestUpsertRejectsBadInput(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Upsert(ctx, "co-1", RateInput{Base: "NGN", Target: "XQZ", Date: "2024-03-01", Rate: 1})
	require.ErrorIs(t, err, ErrInvalidCurrency)

	_, err = svc.Upsert(ctx, "co-1", RateInput{Base: "NGN", Target: "USD", Date: "03/01/2024", Rate: 1})
	require.ErrorIs(t, err, ErrInvalidDate)

	_, err = svc.Upsert(ctx, "co-1", RateInput{Base: "NGN", Target: "USD", Date: "2024-03-01"})
	require.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestDeleteRate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	rate, err := svc.Upsert(ctx, "co-1", RateInput{Base: "NGN", Target: "EUR", Date: "2024-03-01", Rate: 1600})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "co-1", rate.ID))
	require.ErrorIs(t, svc.Delete(ctx, "co-1", rate.ID), ErrRateNotFound)

	found, err := svc.FindRate(ctx, "co-1", "EUR", "2024-03-01")
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestConvertWithRate(t *testing.T) {
	rate := &Rate{Rate: 1.175}
	conv := Convert(100, rate)
	require.Equal(t, 117.5, conv.Amount)
	require.False(t, conv.FallbackUsed)

	conv = Convert(100.555, &Rate{Rate: 1})
	require.Equal(t, 100.56, conv.Amount)
}

func TestConvertFallback(t *testing.T) {
	// No rate on file: the amount passes through unchanged and the flag is raised.
	conv := Convert(100, nil)
	require.Equal(t, 100.0, conv.Amount)
	require.True(t, conv.FallbackUsed)
}

func TestRound2(t *testing.T) {
	require.Equal(t, 1.24, Round2(1.235))
	require.Equal(t, -1.24, Round2(-1.235))
	require.Equal(t, 0.0, Round2(0))
}
