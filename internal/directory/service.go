// Package directory is a PostgreSQL-backed people directory. It stands in for
// an external graph tenant in development and on-prem installs; its searches
// keep the gateway's starts-with semantics so the resolver behaves the same
// against either backend.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kairoshq/kairos/internal/db"
	"github.com/kairoshq/kairos/internal/people"
)

// ErrDuplicateEmail is returned by Upsert when the email is already registered
// to another person.
var ErrDuplicateEmail = errors.New("directory email already in use")

// defaultLimit caps searches when the caller passes no limit.
const defaultLimit = 20

const (
	personColumns = "id, display_name, given_name, family_name, email, alternate_emails, created_at, updated_at"

	searchByNameSQL = `
SELECT ` + personColumns + `
FROM people
WHERE lower(display_name) LIKE $1
   OR lower(email) LIKE $1
   OR EXISTS (SELECT 1 FROM unnest(alternate_emails) AS alt WHERE lower(alt) LIKE $1)
ORDER BY display_name
LIMIT $2`

	searchByPrefixSQL = `
SELECT ` + personColumns + `
FROM people
WHERE lower(display_name) LIKE $1
   OR lower(given_name) LIKE $1
   OR lower(family_name) LIKE $1
   OR lower(email) LIKE $1
ORDER BY display_name
LIMIT $2`

	searchBySurnameSQL = `
SELECT ` + personColumns + `
FROM people
WHERE lower(family_name) LIKE $1
ORDER BY display_name
LIMIT $2`

	getByIDSQL = `
SELECT ` + personColumns + `
FROM people
WHERE id = $1`

	listSQL = `
SELECT ` + personColumns + `
FROM people
ORDER BY display_name`

	insertSQL = `
INSERT INTO people (display_name, given_name, family_name, email, alternate_emails)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + personColumns

	updateSQL = `
UPDATE people
SET display_name = $2,
    given_name = $3,
    family_name = $4,
    email = $5,
    alternate_emails = $6,
    updated_at = now()
WHERE id = $1
RETURNING ` + personColumns

	deleteSQL = `DELETE FROM people WHERE id = $1`
)

// Person is one directory row, the administration view of an identity.
type Person struct {
	people.Identity
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpsertRequest creates a person when ID is empty and updates the row otherwise.
type UpsertRequest struct {
	ID              string   `json:"id,omitempty"`
	DisplayName     string   `json:"display_name"`
	GivenName       string   `json:"given_name,omitempty"`
	FamilyName      string   `json:"family_name,omitempty"`
	Email           string   `json:"email,omitempty"`
	AlternateEmails []string `json:"alternate_emails,omitempty"`
}

// Service implements people.DirectorySearcher over the local people table and
// adds the administration operations the people endpoints expose.
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewService(log *slog.Logger, pool *pgxpool.Pool) (*Service, error) {
	if pool == nil {
		return nil, fmt.Errorf("directory service: pool is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		pool:   pool,
		logger: log.With(slog.String("service", "directory")),
	}, nil
}

// SearchByName runs the primary starts-with search on display name, email, and
// alternate emails for the whole term.
func (s *Service) SearchByName(ctx context.Context, term string, limit int) ([]people.Identity, error) {
	return s.search(ctx, searchByNameSQL, term, limit)
}

// SearchByPrefix runs the starts-with search for one token across display
// name, given name, family name, and email.
func (s *Service) SearchByPrefix(ctx context.Context, token string, limit int) ([]people.Identity, error) {
	return s.search(ctx, searchByPrefixSQL, token, limit)
}

// SearchBySurnameInitial matches people whose family name starts with the initial.
func (s *Service) SearchBySurnameInitial(ctx context.Context, initial string, limit int) ([]people.Identity, error) {
	return s.search(ctx, searchBySurnameSQL, initial, limit)
}

func (s *Service) search(ctx context.Context, query, term string, limit int) ([]people.Identity, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.pool.Query(ctx, query, prefixPattern(term), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []people.Identity
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, person.Identity)
	}
	return items, rows.Err()
}

// GetByID fetches one person by UUID. Unknown and malformed ids both map to
// people.ErrNotFound, mirroring the graph gateway's 404 handling.
func (s *Service) GetByID(ctx context.Context, id string) (people.Identity, error) {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return people.Identity{}, people.ErrNotFound
	}
	person, err := scanPerson(s.pool.QueryRow(ctx, getByIDSQL, pgID))
	if errors.Is(err, pgx.ErrNoRows) {
		return people.Identity{}, people.ErrNotFound
	}
	if err != nil {
		return people.Identity{}, err
	}
	return person.Identity, nil
}

// List returns every person ordered by display name.
func (s *Service) List(ctx context.Context) ([]Person, error) {
	rows, err := s.pool.Query(ctx, listSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Person
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, person)
	}
	return items, rows.Err()
}

// Upsert creates a person when req.ID is empty and updates the row otherwise.
// A taken email reports ErrDuplicateEmail; an unknown id reports people.ErrNotFound.
func (s *Service) Upsert(ctx context.Context, req UpsertRequest) (Person, error) {
	display := strings.TrimSpace(req.DisplayName)
	if display == "" {
		return Person{}, fmt.Errorf("directory upsert: display_name is required")
	}
	given := textOrNull(req.GivenName)
	family := textOrNull(req.FamilyName)
	email := textOrNull(req.Email)
	alternates := normalizeEmails(req.AlternateEmails)

	var person Person
	var err error
	if strings.TrimSpace(req.ID) == "" {
		person, err = scanPerson(s.pool.QueryRow(ctx, insertSQL, display, given, family, email, alternates))
	} else {
		pgID, parseErr := db.ParseUUID(req.ID)
		if parseErr != nil {
			return Person{}, people.ErrNotFound
		}
		person, err = scanPerson(s.pool.QueryRow(ctx, updateSQL, pgID, display, given, family, email, alternates))
		if errors.Is(err, pgx.ErrNoRows) {
			return Person{}, people.ErrNotFound
		}
	}
	if db.IsUniqueViolation(err) {
		return Person{}, ErrDuplicateEmail
	}
	if err != nil {
		return Person{}, err
	}
	if strings.TrimSpace(req.ID) == "" {
		s.logger.Info("person created", slog.String("id", person.ID), slog.String("display_name", person.DisplayName))
	} else {
		s.logger.Info("person updated", slog.String("id", person.ID))
	}
	return person, nil
}

// Delete removes a person. Deleting an unknown id reports people.ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return people.ErrNotFound
	}
	tag, err := s.pool.Exec(ctx, deleteSQL, pgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return people.ErrNotFound
	}
	s.logger.Info("person deleted", slog.String("id", id))
	return nil
}

func scanPerson(row pgx.Row) (Person, error) {
	var (
		id         pgtype.UUID
		display    string
		given      pgtype.Text
		family     pgtype.Text
		email      pgtype.Text
		alternates []string
		createdAt  pgtype.Timestamptz
		updatedAt  pgtype.Timestamptz
	)
	if err := row.Scan(&id, &display, &given, &family, &email, &alternates, &createdAt, &updatedAt); err != nil {
		return Person{}, err
	}
	return Person{
		Identity: people.Identity{
			ID:          db.UUIDString(id),
			DisplayName: display,
			Mail:        db.TextToString(email),
			Aliases:     alternates,
			GivenName:   db.TextToString(given),
			FamilyName:  db.TextToString(family),
		},
		CreatedAt: db.TimeFromPg(createdAt),
		UpdatedAt: db.TimeFromPg(updatedAt),
	}, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// prefixPattern builds the LIKE pattern for a starts-with match on term.
// LIKE metacharacters in the term are escaped so they match literally.
func prefixPattern(term string) string {
	return likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

func textOrNull(s string) pgtype.Text {
	trimmed := strings.TrimSpace(s)
	return pgtype.Text{String: trimmed, Valid: trimmed != ""}
}

func normalizeEmails(emails []string) []string {
	out := make([]string, 0, len(emails))
	for _, email := range emails {
		if trimmed := strings.TrimSpace(email); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
