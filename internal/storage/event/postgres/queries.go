package postgres

const queryInsertEvent = `
	INSERT INTO analytics_events (batch_id, received_at, ip, event, properties, user_id, session_id, occurred_at)
	VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8)
`

const queryCountSessionEvents = `SELECT COUNT(*) FROM analytics_events WHERE session_id = $1`
