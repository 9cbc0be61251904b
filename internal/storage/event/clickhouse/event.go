package clickhouse

import (
	"context"
	"fmt"

	"github.com/leshachaplin/medtrack/internal/domain"
)

func (c *Clickhouse) StoreEvents(ctx context.Context, batch domain.EventBatch) error {
	rows, err := rowsFromBatch(batch)
	if err != nil {
		return err
	}

	b, err := c.conn.PrepareBatch(ctx, `INSERT INTO events`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	for i := 0; i < len(rows); i++ {
		if errAppend := b.AppendStruct(&rows[i]); errAppend != nil {
			return fmt.Errorf("append event %d: %w", i, errAppend)
		}
	}
	return b.Send()
}

// CountEvents returns how many events were stored for a session.
func (c *Clickhouse) CountEvents(ctx context.Context, sessionID string) (uint64, error) {
	var count uint64
	if err := c.conn.QueryRow(ctx, `SELECT count() FROM events WHERE session_id = ?`, sessionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}
