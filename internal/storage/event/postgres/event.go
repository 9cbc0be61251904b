package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leshachaplin/medtrack/internal/domain"
)

// StoreEvents inserts the whole batch in one transaction.
func (p *Postgres) StoreEvents(ctx context.Context, batch domain.EventBatch) (err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				p.logger.Warn().Err(rbErr).Str("batch_id", batch.ID).Msg("rollback failed")
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, queryInsertEvent)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range batch.Events {
		e.Normalize()
		props, errMarshal := json.Marshal(e.Properties)
		if errMarshal != nil {
			return fmt.Errorf("failed to marshal properties of event %d: %w", i, errMarshal)
		}

		if _, err = stmt.ExecContext(ctx,
			batch.ID,
			batch.ReceivedAt,
			batch.IP,
			e.Event,
			string(props),
			sql.NullString{String: e.UserID, Valid: e.UserID != ""},
			e.SessionID,
			time.UnixMilli(e.Timestamp).UTC(),
		); err != nil {
			return fmt.Errorf("insert event %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// CountEvents returns how many events were stored for a session.
func (p *Postgres) CountEvents(ctx context.Context, sessionID string) (uint64, error) {
	var count uint64
	if err := p.db.QueryRowContext(ctx, queryCountSessionEvents, sessionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}
