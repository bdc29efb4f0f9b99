// Package supabase persists companies and resolved jobs through the Supabase
// PostgREST API. The tables are the ones created by the postgres package schema.
package supabase

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	supabase "github.com/nedpals/supabase-go"

	"job-ingest-go/internal/models"
	"job-ingest-go/internal/storage"
)

const (
	companiesTable = "companies"
	jobsTable      = "resolved_jobs"
)

// Store uses the nedpals/supabase-go SDK. The SDK does not take a context,
// so ctx is only checked before each call.
type Store struct {
	client *supabase.Client
}

var _ storage.Store = (*Store)(nil)

// New creates a Store. It reads SUPABASE_URL and SUPABASE_KEY from the
// environment when empty values are provided.
func New(supabaseURL, supabaseKey string) (*Store, error) {
	if supabaseURL == "" {
		supabaseURL = os.Getenv("SUPABASE_URL")
	}
	if supabaseKey == "" {
		supabaseKey = os.Getenv("SUPABASE_KEY")
	}
	if supabaseURL == "" || supabaseKey == "" {
		return nil, fmt.Errorf("supabase URL and key must be provided via config or SUPABASE_URL / SUPABASE_KEY env vars")
	}
	return &Store{client: supabase.CreateClient(supabaseURL, supabaseKey)}, nil
}

func (s *Store) FindCompanyByDomain(ctx context.Context, domain string) (*models.Company, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []models.Company
	err := s.client.DB.From(companiesTable).Select("*").Eq("domain", strings.ToLower(domain)).Execute(&rows)
	if err != nil {
		return nil, mapErr("find company by domain", err)
	}
	return firstCompany(rows)
}

func (s *Store) FindCompanyByName(ctx context.Context, normalizedName string) (*models.Company, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []models.Company
	err := s.client.DB.From(companiesTable).Select("*").Eq("normalized_name", normalizedName).Execute(&rows)
	if err != nil {
		return nil, mapErr("find company by name", err)
	}
	return firstCompany(rows)
}

func (s *Store) CreateCompany(ctx context.Context, c *models.Company) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Domain = strings.ToLower(c.Domain)
	var results []models.Company
	return mapErr("create company", s.client.DB.From(companiesTable).Insert(*c).Execute(&results))
}

func (s *Store) UpdateCompany(ctx context.Context, c *models.Company) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	patch := map[string]any{
		"name":       c.Name,
		"updated_at": c.UpdatedAt,
	}
	if c.Domain != "" {
		patch["domain"] = strings.ToLower(c.Domain)
	}
	var results []models.Company
	err := s.client.DB.From(companiesTable).Update(patch).Eq("id", c.ID).Execute(&results)
	return mapErr("update company", err)
}

func (s *Store) FindJobByKey(ctx context.Context, key string) (*models.ResolvedJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []storage.JobRecord
	err := s.client.DB.From(jobsTable).Select("*").Eq("dedupe_key", key).Execute(&rows)
	if err != nil {
		return nil, mapErr("find job by key", err)
	}
	if len(rows) == 0 {
		return nil, storage.ErrNotFound
	}
	return rows[0].Job(), nil
}

func (s *Store) CreateJob(ctx context.Context, j *models.ResolvedJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	var results []storage.JobRecord
	return mapErr("create job", s.client.DB.From(jobsTable).Insert(storage.RecordFromJob(j)).Execute(&results))
}

// UpdateJob reads the stored priority first so it can report ErrOutranked;
// the write itself is still filtered on source_priority.
func (s *Store) UpdateJob(ctx context.Context, j *models.ResolvedJob) error {
	stored, err := s.FindJobByKey(ctx, j.DedupeKey)
	if err != nil {
		return err
	}
	if stored.SourcePriority > j.SourcePriority {
		return storage.ErrOutranked
	}
	j.ID, j.FirstSeenAt = stored.ID, stored.FirstSeenAt

	var results []storage.JobRecord
	err = s.client.DB.From(jobsTable).
		Update(storage.RecordFromJob(j)).
		Eq("dedupe_key", j.DedupeKey).
		Lte("source_priority", strconv.Itoa(j.SourcePriority)).
		Execute(&results)
	return mapErr("update job", err)
}

func (s *Store) TouchJob(ctx context.Context, key string, seenAt time.Time) error {
	stored, err := s.FindJobByKey(ctx, key)
	if err != nil {
		return err
	}
	if !seenAt.After(stored.LastSeenAt) {
		return nil
	}
	var results []storage.JobRecord
	err = s.client.DB.From(jobsTable).
		Update(map[string]any{"last_seen_at": seenAt}).
		Eq("dedupe_key", key).
		Execute(&results)
	return mapErr("touch job", err)
}

func (s *Store) Close() error { return nil }

func firstCompany(rows []models.Company) (*models.Company, error) {
	if len(rows) == 0 {
		return nil, storage.ErrNotFound
	}
	c := rows[0]
	return &c, nil
}

// mapErr turns PostgREST unique violations into storage.ErrDuplicateKey.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return storage.ErrDuplicateKey
	}
	return fmt.Errorf("supabase %s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}
