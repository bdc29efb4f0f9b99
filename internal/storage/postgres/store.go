// Package postgres is the PostgreSQL Store, built on sqlx and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"job-ingest-go/internal/models"
	"job-ingest-go/internal/storage"
)

//go:embed schema.sql
var schema string

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
	defaultPingTimeout     = 5 * time.Second

	uniqueViolation = "23505"
)

const companyColumns = `id, name, normalized_name, COALESCE(domain, '') AS domain, created_at, updated_at`

var jobColumns = strings.Join(storage.JobColumns, ", ")

// Store persists companies and resolved jobs in PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.Store = (*Store)(nil)

// Open connects with dsn and verifies the connection.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), defaultPingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return New(db), nil
}

// New wraps an existing connection.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Migrate applies the embedded schema. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) FindCompanyByDomain(ctx context.Context, domain string) (*models.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE LOWER(domain) = LOWER($1)`
	var c models.Company
	if err := s.db.GetContext(ctx, &c, query, domain); err != nil {
		return nil, mapErr("find company by domain", err)
	}
	return &c, nil
}

func (s *Store) FindCompanyByName(ctx context.Context, normalizedName string) (*models.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE normalized_name = $1`
	var c models.Company
	if err := s.db.GetContext(ctx, &c, query, normalizedName); err != nil {
		return nil, mapErr("find company by name", err)
	}
	return &c, nil
}

func (s *Store) CreateCompany(ctx context.Context, c *models.Company) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	query := `
		INSERT INTO companies (id, name, normalized_name, domain, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query, c.ID, c.Name, c.NormalizedName, c.Domain, c.CreatedAt, c.UpdatedAt)
	return mapErr("create company", err)
}

func (s *Store) UpdateCompany(ctx context.Context, c *models.Company) error {
	query := `UPDATE companies SET name = $2, domain = NULLIF($3, ''), updated_at = $4 WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, c.ID, c.Name, c.Domain, c.UpdatedAt)
	return requireRows("update company", res, err, storage.ErrNotFound)
}

func (s *Store) FindJobByKey(ctx context.Context, key string) (*models.ResolvedJob, error) {
	query := `SELECT ` + jobColumns + ` FROM resolved_jobs WHERE dedupe_key = $1`
	var rec storage.JobRecord
	if err := s.db.GetContext(ctx, &rec, query, key); err != nil {
		return nil, mapErr("find job by key", err)
	}
	return rec.Job(), nil
}

// CreateJob inserts j. A concurrent insert of the same key loses with
// storage.ErrDuplicateKey.
func (s *Store) CreateJob(ctx context.Context, j *models.ResolvedJob) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	query := `INSERT INTO resolved_jobs (` + jobColumns + `) VALUES (` + namedList(storage.JobColumns) + `)
		ON CONFLICT (dedupe_key) DO NOTHING`
	res, err := s.db.NamedExecContext(ctx, query, storage.RecordFromJob(j))
	return requireRows("create job", res, err, storage.ErrDuplicateKey)
}

// UpdateJob overwrites every mutable column, guarded by source priority.
func (s *Store) UpdateJob(ctx context.Context, j *models.ResolvedJob) error {
	var sets []string
	for _, col := range storage.JobColumns {
		switch col {
		case "id", "dedupe_key", "first_seen_at":
			continue
		}
		sets = append(sets, col+" = :"+col)
	}
	query := `UPDATE resolved_jobs SET ` + strings.Join(sets, ", ") + `
		WHERE dedupe_key = :dedupe_key AND source_priority <= :source_priority
		RETURNING id, first_seen_at`

	q, args, err := s.db.BindNamed(query, storage.RecordFromJob(j))
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	var kept struct {
		ID          string    `db:"id"`
		FirstSeenAt time.Time `db:"first_seen_at"`
	}
	if err := s.db.GetContext(ctx, &kept, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrOutranked
		}
		return fmt.Errorf("update job: %w", err)
	}
	j.ID, j.FirstSeenAt = kept.ID, kept.FirstSeenAt
	return nil
}

func (s *Store) TouchJob(ctx context.Context, key string, seenAt time.Time) error {
	query := `UPDATE resolved_jobs SET last_seen_at = GREATEST(last_seen_at, $2) WHERE dedupe_key = $1`
	res, err := s.db.ExecContext(ctx, query, key, seenAt)
	return requireRows("touch job", res, err, storage.ErrNotFound)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func namedList(cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = ":" + c
	}
	return strings.Join(out, ", ")
}

func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return storage.ErrDuplicateKey
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireRows(op string, res sql.Result, err error, none error) error {
	if err != nil {
		return mapErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return none
	}
	return nil
}
