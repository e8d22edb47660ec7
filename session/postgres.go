package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/campverse/authcore/device"
	"github.com/campverse/authcore/internal"
	"github.com/campverse/authcore/internal/postgres"
)

// PostgresStore implements Store on the sessions table.
type PostgresStore struct {
	db  *postgres.DB
	now Clock
}

func NewPostgresStore(db *postgres.DB) *PostgresStore {
	return &PostgresStore{db: db, now: systemClock}
}

// WithClock replaces the time source.
func (s *PostgresStore) WithClock(c Clock) *PostgresStore {
	if c != nil {
		s.now = c
	}
	return s
}

const sessionColumns = `id, user_id, refresh_hash, device, client, platform, user_agent, ip_address,
loc_city, loc_region, loc_country, loc_country_code, loc_formatted,
is_active, created_at, last_activity_at, expires_at, revoked_at, revoked_by, revoke_reason`

const (
	qRevokeSameDevice = `
UPDATE sessions
SET is_active = FALSE, revoked_at = $5, revoke_reason = $6
WHERE user_id = $1 AND device = $2 AND client = $3 AND platform = $4 AND is_active;`

	qInsertSession = `
INSERT INTO sessions (id, user_id, refresh_hash, device, client, platform, user_agent, ip_address,
    loc_city, loc_region, loc_country, loc_country_code, loc_formatted,
    is_active, created_at, last_activity_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, TRUE, $14, $14, $15);`

	qFindByRefresh = `
SELECT ` + sessionColumns + `
FROM sessions
WHERE refresh_hash = $1 AND is_active AND expires_at > $2;`

	qGetSession = `
SELECT ` + sessionColumns + `
FROM sessions
WHERE id = $1;`

	qRotate = `
UPDATE sessions
SET refresh_hash = $2, expires_at = $3, last_activity_at = $4
WHERE refresh_hash = $1 AND is_active AND expires_at > $4
RETURNING ` + sessionColumns + `;`

	qTouch = `
UPDATE sessions SET last_activity_at = $2 WHERE id = $1 AND is_active;`

	qRevoke = `
UPDATE sessions
SET is_active = FALSE, revoked_at = $2, revoked_by = NULLIF($3, ''), revoke_reason = $4
WHERE id = $1 AND is_active
RETURNING ` + sessionColumns + `;`

	qRevokeAllExcept = `
UPDATE sessions
SET is_active = FALSE, revoked_at = $3, revoked_by = NULLIF($4, ''), revoke_reason = $5
WHERE user_id = $1 AND is_active AND id <> $2
RETURNING id;`

	qListActive = `
SELECT ` + sessionColumns + `
FROM sessions
WHERE user_id = $1 AND is_active AND expires_at > $2
ORDER BY last_activity_at DESC;`

	qSweep = `
DELETE FROM sessions
WHERE expires_at < $1 OR (NOT is_active AND revoked_at < $2);`
)

func scanSession(row pgx.Row) (*Session, error) {
	var (
		s         Session
		revokedBy *string
		reason    *string
	)
	if err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.RefreshHash,
		&s.Device.Device,
		&s.Device.Client,
		&s.Device.Platform,
		&s.Device.UserAgent,
		&s.Device.IP,
		&s.Device.Location.City,
		&s.Device.Location.Region,
		&s.Device.Location.Country,
		&s.Device.Location.CountryCode,
		&s.Device.Location.Formatted,
		&s.IsActive,
		&s.CreatedAt,
		&s.LastActivityAt,
		&s.ExpiresAt,
		&s.RevokedAt,
		&revokedBy,
		&reason,
	); err != nil {
		if postgres.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scan session: %v", ErrUnavailable, err)
	}
	if revokedBy != nil {
		s.RevokedBy = *revokedBy
	}
	if reason != nil {
		s.RevokeReason = RevokeReason(*reason)
	}
	return &s, nil
}

func (s *PostgresStore) Create(ctx context.Context, userID string, info device.Info, ttl time.Duration) (*Session, string, error) {
	raw, err := internal.NewRefreshSecret()
	if err != nil {
		return nil, "", err
	}
	hash, err := internal.HashRefreshSecret(raw)
	if err != nil {
		return nil, "", err
	}
	info = info.Normalize()

	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	// A concurrent login from the same device can win the partial unique
	// index between our revoke and insert; one retry revokes it in turn.
	for attempt := 0; ; attempt++ {
		now := s.now()
		sess := &Session{
			ID:             internal.NewID(),
			UserID:         userID,
			RefreshHash:    hash,
			Device:         info,
			IsActive:       true,
			CreatedAt:      now,
			LastActivityAt: now,
			ExpiresAt:      now.Add(ttl),
		}

		err = s.db.WithTx(ctx, func(ctx context.Context) error {
			q := s.db.Conn(ctx)
			if _, err := q.Exec(ctx, qRevokeSameDevice,
				userID, info.Device, info.Client, info.Platform, now, string(ReasonManual)); err != nil {
				return err
			}
			_, err := q.Exec(ctx, qInsertSession,
				sess.ID, userID, hash, info.Device, info.Client, info.Platform, info.UserAgent, info.IP,
				info.Location.City, info.Location.Region, info.Location.Country, info.Location.CountryCode,
				info.Location.Formatted, now, sess.ExpiresAt)
			return err
		})
		if err == nil {
			return sess, raw, nil
		}
		if attempt == 0 && postgres.IsUniqueViolation(err) {
			continue
		}
		return nil, "", fmt.Errorf("%w: create session: %v", ErrUnavailable, err)
	}
}

func (s *PostgresStore) FindByRefresh(ctx context.Context, rawRefresh string) (*Session, error) {
	hash, err := internal.HashRefreshSecret(rawRefresh)
	if err != nil {
		return nil, ErrNotFound
	}
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	return scanSession(s.db.Conn(ctx).QueryRow(ctx, qFindByRefresh, hash, s.now()))
}

func (s *PostgresStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	return scanSession(s.db.Conn(ctx).QueryRow(ctx, qGetSession, sessionID))
}

func (s *PostgresStore) Rotate(ctx context.Context, oldHash, newHash string, ttl time.Duration) (*Session, error) {
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	now := s.now()
	return scanSession(s.db.Conn(ctx).QueryRow(ctx, qRotate, oldHash, newHash, now.Add(ttl), now))
}

func (s *PostgresStore) Touch(ctx context.Context, sessionID string) error {
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	if _, err := s.db.Conn(ctx).Exec(ctx, qTouch, sessionID, s.now()); err != nil {
		return fmt.Errorf("%w: touch session: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Revoke(ctx context.Context, sessionID string, reason RevokeReason, revokedBy string) (*Session, error) {
	if !reason.Valid() {
		return nil, ErrInvalidReason
	}
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	return scanSession(s.db.Conn(ctx).QueryRow(ctx, qRevoke, sessionID, s.now(), revokedBy, string(reason)))
}

func (s *PostgresStore) RevokeAllExcept(ctx context.Context, userID, keepID string, reason RevokeReason, revokedBy string) ([]string, error) {
	if !reason.Valid() {
		return nil, ErrInvalidReason
	}
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	rows, err := s.db.Conn(ctx).Query(ctx, qRevokeAllExcept, userID, keepID, s.now(), revokedBy, string(reason))
	if err != nil {
		return nil, fmt.Errorf("%w: revoke sessions: %v", ErrUnavailable, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("%w: revoke sessions: %v", ErrUnavailable, err)
	}
	return ids, nil
}

func (s *PostgresStore) RevokeAll(ctx context.Context, userID string, reason RevokeReason, revokedBy string) ([]string, error) {
	return s.RevokeAllExcept(ctx, userID, "", reason, revokedBy)
}

func (s *PostgresStore) ListActive(ctx context.Context, userID string) ([]Session, error) {
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	rows, err := s.db.Conn(ctx).Query(ctx, qListActive, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	out := make([]Session, 0)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list sessions: %v", ErrUnavailable, err)
	}
	return out, nil
}

func (s *PostgresStore) SweepExpired(ctx context.Context, revokedRetention time.Duration) (int64, error) {
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	now := s.now()
	tag, err := s.db.Conn(ctx).Exec(ctx, qSweep, now, now.Add(-revokedRetention))
	if err != nil {
		return 0, fmt.Errorf("%w: sweep sessions: %v", ErrUnavailable, err)
	}
	return tag.RowsAffected(), nil
}

// IsUnavailable reports a durable-layer failure, as opposed to a lookup miss.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, context.DeadlineExceeded)
}

var _ Store = (*PostgresStore)(nil)
