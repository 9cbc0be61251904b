package clickhouse

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leshachaplin/medtrack/internal/domain"
)

func TestRowsFromBatch(t *testing.T) {
	received := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	batch := domain.EventBatch{
		ID:         "batch-1",
		IP:         "10.0.0.1",
		ReceivedAt: received,
		Events: []domain.Event{
			{Event: "page_view", Properties: map[string]any{"page": "/"}, SessionID: "s1", Timestamp: 1_700_000_000_123},
			{Event: "form_submit", UserID: "u1", SessionID: "s1", Timestamp: 1_700_000_000_456},
		},
	}

	rows, err := rowsFromBatch(batch)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Equal(t, "batch-1", rows[0].BatchID)
	require.Equal(t, "10.0.0.1", rows[0].IP)
	require.Equal(t, received, rows[0].ReceivedAt)
	require.Equal(t, "page_view", rows[0].Event)
	require.JSONEq(t, `{"page":"/"}`, rows[0].Properties)
	require.Equal(t, time.UnixMilli(1_700_000_000_123).UTC(), rows[0].OccurredAt)

	require.Equal(t, "u1", rows[1].UserID)
	require.Equal(t, "{}", rows[1].Properties)
}

func TestRowsFromBatch_BadProperties(t *testing.T) {
	_, err := rowsFromBatch(domain.EventBatch{
		Events: []domain.Event{{Event: "x", Properties: map[string]any{"v": math.Inf(1)}}},
	})
	require.ErrorContains(t, err, "marshal properties of event 0")
}
