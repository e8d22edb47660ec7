package loginhistory

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/campverse/authcore/internal/postgres"
)

// PostgresLedger stores entries in login_history.
type PostgresLedger struct {
	db *postgres.DB
}

func NewPostgresLedger(db *postgres.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

const entryColumns = `id, user_id, status, fail_reason, auth_method, device, client, platform, user_agent, ip_address,
loc_city, loc_region, loc_country, loc_country_code, loc_formatted, session_id, created_at`

const (
	qAppend = `
INSERT INTO login_history (` + entryColumns + `)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NULLIF($16, ''), $17);`

	qHistory = `
SELECT ` + entryColumns + `, COUNT(*) OVER ()
FROM login_history
WHERE user_id = $1 AND ($2 = '' OR status = $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4;`

	qCountHistory = `
SELECT COUNT(*) FROM login_history WHERE user_id = $1 AND ($2 = '' OR status = $2);`

	qCountFailures = `
SELECT COUNT(*)
FROM login_history
WHERE status = 'failed' AND created_at >= $1
  AND ($2 = '' OR user_id = $2)
  AND ($3 = '' OR ip_address = $3);`

	qSuccessfulSince = `
SELECT ` + entryColumns + `
FROM login_history
WHERE user_id = $1 AND status = 'success' AND created_at >= $2
ORDER BY created_at DESC;`

	qStats = `
SELECT status, COUNT(*)
FROM login_history
WHERE user_id = $1 AND created_at >= $2
GROUP BY status;`

	qPurge = `DELETE FROM login_history WHERE created_at < $1;`
)

func (l *PostgresLedger) Append(ctx context.Context, e Entry) error {
	if err := e.validate(); err != nil {
		return err
	}
	ctx, cancel := l.db.WithTimeout(ctx)
	defer cancel()

	d := e.Device
	_, err := l.db.Conn(ctx).Exec(ctx, qAppend,
		e.ID, e.UserID, string(e.Status), string(e.FailReason), string(e.AuthMethod),
		d.Device, d.Client, d.Platform, d.UserAgent, d.IP,
		d.Location.City, d.Location.Region, d.Location.Country, d.Location.CountryCode, d.Location.Formatted,
		e.SessionID, e.Timestamp)
	if err != nil {
		return fmt.Errorf("%w: append: %v", ErrUnavailable, err)
	}
	return nil
}

func scanEntry(row pgx.Row, extra ...any) (Entry, error) {
	var (
		e          Entry
		failReason *string
		sessionID  *string
	)
	dest := []any{
		&e.ID, &e.UserID, &e.Status, &failReason, &e.AuthMethod,
		&e.Device.Device, &e.Device.Client, &e.Device.Platform, &e.Device.UserAgent, &e.Device.IP,
		&e.Device.Location.City, &e.Device.Location.Region, &e.Device.Location.Country,
		&e.Device.Location.CountryCode, &e.Device.Location.Formatted,
		&sessionID, &e.Timestamp,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return Entry{}, err
	}
	if failReason != nil {
		e.FailReason = FailReason(*failReason)
	}
	if sessionID != nil {
		e.SessionID = *sessionID
	}
	return e, nil
}

func (l *PostgresLedger) History(ctx context.Context, userID string, q Query) ([]Entry, int, error) {
	q = q.Normalize()
	ctx, cancel := l.db.WithTimeout(ctx)
	defer cancel()

	rows, err := l.db.Conn(ctx).Query(ctx, qHistory, userID, string(q.Status), q.Limit, q.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: history: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	out := make([]Entry, 0, q.Limit)
	total := 0
	for rows.Next() {
		e, err := scanEntry(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: history scan: %v", ErrUnavailable, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: history: %v", ErrUnavailable, err)
	}

	// An offset past the end yields no rows and therefore no window count.
	if len(out) == 0 && q.Offset > 0 {
		if err := l.db.Conn(ctx).QueryRow(ctx, qCountHistory, userID, string(q.Status)).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("%w: history count: %v", ErrUnavailable, err)
		}
	}
	return out, total, nil
}

func (l *PostgresLedger) CountFailures(ctx context.Context, key FailureKey, since time.Time) (int, error) {
	ctx, cancel := l.db.WithTimeout(ctx)
	defer cancel()

	var n int
	if err := l.db.Conn(ctx).QueryRow(ctx, qCountFailures, since, key.UserID, key.IP).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count failures: %v", ErrUnavailable, err)
	}
	return n, nil
}

func (l *PostgresLedger) SuccessfulSince(ctx context.Context, userID string, since time.Time) ([]Entry, error) {
	ctx, cancel := l.db.WithTimeout(ctx)
	defer cancel()

	rows, err := l.db.Conn(ctx).Query(ctx, qSuccessfulSince, userID, since)
	if err != nil {
		return nil, fmt.Errorf("%w: recent logins: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	out := make([]Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: recent logins scan: %v", ErrUnavailable, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: recent logins: %v", ErrUnavailable, err)
	}
	return out, nil
}

func (l *PostgresLedger) Stats(ctx context.Context, userID string, since time.Time) (Stats, error) {
	ctx, cancel := l.db.WithTimeout(ctx)
	defer cancel()

	rows, err := l.db.Conn(ctx).Query(ctx, qStats, userID, since)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: stats: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var s Stats
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, fmt.Errorf("%w: stats scan: %v", ErrUnavailable, err)
		}
		switch Status(status) {
		case StatusSuccess:
			s.Successful = count
		case StatusFailed:
			s.Failed = count
		}
		s.Total += count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("%w: stats: %v", ErrUnavailable, err)
	}
	return s, nil
}

func (l *PostgresLedger) Purge(ctx context.Context, before time.Time) (int64, error) {
	ctx, cancel := l.db.WithTimeout(ctx)
	defer cancel()

	tag, err := l.db.Conn(ctx).Exec(ctx, qPurge, before)
	if err != nil {
		return 0, fmt.Errorf("%w: purge: %v", ErrUnavailable, err)
	}
	return tag.RowsAffected(), nil
}

var _ Ledger = (*PostgresLedger)(nil)
