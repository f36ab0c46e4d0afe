package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/finboard-hq/finboard/internal/platform/store"
)

func TestRecordAppendsInOrder(t *testing.T) {
	svc := NewService(store.NewMemory())
	svc.WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) })
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, "co-1", Event{Entity: "adjustment", EntityID: "adj-1", Action: "create", Actor: "jo"}))
	require.NoError(t, svc.Record(ctx, "co-1", Event{Entity: "adjustment", EntityID: "adj-1", Action: "delete", Actor: "jo"}))
	require.NoError(t, svc.Record(ctx, "co-2", Event{Entity: "tb", EntityID: "tb-1", Action: "status", Actor: "kay"}))

	events, err := svc.List(ctx, "co-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "create", events[0].Action)
	require.Equal(t, "delete", events[1].Action)
	require.NotEmpty(t, events[0].ID)
	require.Equal(t, "co-1", events[0].CompanyID)

	other, err := svc.List(ctx, "co-2")
	require.NoError(t, err)
	require.Len(t, other, 1)
}

func TestRecordRejectsIncomplete(t *testing.T) {
	svc := NewService(store.NewMemory())
	err := svc.Record(context.Background(), "co-1", Event{Entity: "adjustment"})
	require.ErrorIs(t, err, ErrIncomplete)

	events, err := svc.List(context.Background(), "co-1")
	require.NoError(t, err)
	require.Empty(t, events)
}
