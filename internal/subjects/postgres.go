// Package subjects resolves authcore subjects from the users table.
package subjects

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/campverse/authcore"
	"github.com/campverse/authcore/internal/postgres"
)

const (
	qLookupByID = `
SELECT id, email, name, roles, status
FROM users
WHERE id = $1;`

	qLookupByEmail = `
SELECT id, email, name, roles, status, password_hash
FROM users
WHERE lower(email) = lower($1);`

	qInsertUser = `
INSERT INTO users (id, email, name, password_hash, roles, status)
VALUES ($1, $2, $3, $4, $5, $6);`
)

// Store implements authcore.SubjectProvider and authcore.CredentialProvider.
type Store struct {
	db *postgres.DB
}

func NewStore(db *postgres.DB) *Store {
	return &Store{db: db}
}

func (s *Store) LookupSubject(ctx context.Context, userID string) (authcore.Subject, error) {
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	subject, err := scanSubject(s.db.Conn(ctx).QueryRow(ctx, qLookupByID, userID))
	if err != nil {
		return authcore.Subject{}, lookupError(err, userID)
	}
	return subject, nil
}

func (s *Store) LookupCredentials(ctx context.Context, identifier string) (authcore.Subject, string, error) {
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	var hash string
	subject, err := scanSubject(s.db.Conn(ctx).QueryRow(ctx, qLookupByEmail, strings.TrimSpace(identifier)), &hash)
	if err != nil {
		return authcore.Subject{}, "", lookupError(err, identifier)
	}
	return subject, hash, nil
}

// NewUser is the insert shape used by seeding and tests.
type NewUser struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Roles        []string
	Status       authcore.SubjectStatus
}

func (s *Store) Create(ctx context.Context, u NewUser) error {
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	if u.Status == "" {
		u.Status = authcore.StatusActive
	}
	if len(u.Roles) == 0 {
		u.Roles = []string{"user"}
	}
	if _, err := s.db.Conn(ctx).Exec(ctx, qInsertUser, u.ID, u.Email, u.Name, u.PasswordHash, u.Roles, string(u.Status)); err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("user %s already exists: %w", u.Email, err)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func scanSubject(row pgx.Row, extra ...any) (authcore.Subject, error) {
	var (
		subject authcore.Subject
		status  string
	)
	dest := append([]any{&subject.ID, &subject.Email, &subject.Name, &subject.Roles, &status}, extra...)
	if err := row.Scan(dest...); err != nil {
		return authcore.Subject{}, err
	}
	subject.Status = authcore.SubjectStatus(status)
	return subject, nil
}

func lookupError(err error, key string) error {
	if postgres.IsNoRows(err) {
		return fmt.Errorf("%w: %s", authcore.ErrSubjectMissing, key)
	}
	return fmt.Errorf("lookup subject: %w", err)
}

var (
	_ authcore.SubjectProvider    = (*Store)(nil)
	_ authcore.CredentialProvider = (*Store)(nil)
)
