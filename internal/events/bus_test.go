package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/minimarket/pos-api/internal/events"
)

type captureNotifier struct {
	events []events.Event
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return c.err
}

func TestEmitPersistsEvent(t *testing.T) {
	log := events.NewLog()
	notifier := &captureNotifier{}
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	bus := events.Bus{
		Store:     log,
		Notifiers: []events.Notifier{notifier},
		Now:       func() time.Time { return now },
	}

	ctx := context.Background()
	event, err := bus.Emit(ctx, events.TopicSaleCompleted, "sale/42", map[string]any{"receiptNumber": 42})
	require.NoError(t, err)
	require.NotEqual(t, "00000000-0000-0000-0000-000000000000", event.ID.String())
	require.Equal(t, now, event.OccurredAt)
	require.JSONEq(t, `{"receiptNumber":42}`, string(event.Payload))

	require.Equal(t, 1, log.Len())
	require.Len(t, notifier.events, 1)
	require.Equal(t, event.ID, notifier.events[0].ID)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	require.EqualValues(t, 42, decoded["receiptNumber"])
}

func TestEmitValidation(t *testing.T) {
	bus := events.Bus{Store: events.NewLog()}
	ctx := context.Background()

	_, err := bus.Emit(ctx, "  ", "sale/1", nil)
	require.Error(t, err)

	_, err = bus.Emit(ctx, events.TopicSaleCompleted, "", nil)
	require.Error(t, err)

	_, err = bus.Emit(ctx, events.TopicSaleCompleted, "sale/1", "not-json")
	require.Error(t, err)

	ev, err := bus.Emit(ctx, events.TopicSaleCompleted, "sale/1", nil)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(ev.Payload))
}

func TestEmitJoinsNotifierFailures(t *testing.T) {
	log := events.NewLog()
	failing := &captureNotifier{err: errors.New("smtp down")}
	ok := &captureNotifier{}
	bus := events.Bus{Store: log, Notifiers: []events.Notifier{failing, ok}}

	_, err := bus.Emit(context.Background(), events.TopicProductAdded, "product/1", nil)
	require.Error(t, err)
	// The event is still recorded and later notifiers still run.
	require.Equal(t, 1, log.Len())
	require.Len(t, ok.events, 1)
}

func TestLogByTopic(t *testing.T) {
	log := events.NewLog()
	bus := events.Bus{Store: log}
	ctx := context.Background()

	_, err := bus.Emit(ctx, events.TopicProductAdded, "product/1", nil)
	require.NoError(t, err)
	_, err = bus.Emit(ctx, events.TopicSaleCompleted, "sale/1", nil)
	require.NoError(t, err)
	_, err = bus.Emit(ctx, events.TopicProductAdded, "product/2", nil)
	require.NoError(t, err)

	added := log.ByTopic(events.TopicProductAdded)
	require.Len(t, added, 2)
	require.Equal(t, "product/1", added[0].Aggregate)
	require.Equal(t, "product/2", added[1].Aggregate)
	require.Len(t, log.All(), 3)
}
