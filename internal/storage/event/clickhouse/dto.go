package clickhouse

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/leshachaplin/medtrack/internal/domain"
)

type event struct {
	BatchID    string    `ch:"batch_id"`
	ReceivedAt time.Time `ch:"received_at"`
	IP         string    `ch:"ip"`
	Event      string    `ch:"event"`
	Properties string    `ch:"properties"`
	UserID     string    `ch:"user_id"`
	SessionID  string    `ch:"session_id"`
	OccurredAt time.Time `ch:"occurred_at"`
}

func rowsFromBatch(batch domain.EventBatch) ([]event, error) {
	rows := make([]event, len(batch.Events))
	for i, e := range batch.Events {
		e.Normalize()
		props, err := json.Marshal(e.Properties)
		if err != nil {
			return nil, fmt.Errorf("marshal properties of event %d: %w", i, err)
		}

		rows[i] = event{
			BatchID:    batch.ID,
			ReceivedAt: batch.ReceivedAt,
			IP:         batch.IP,
			Event:      e.Event,
			Properties: string(props),
			UserID:     e.UserID,
			SessionID:  e.SessionID,
			OccurredAt: time.UnixMilli(e.Timestamp).UTC(),
		}
	}
	return rows, nil
}
