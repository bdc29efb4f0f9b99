// Package storage defines the persistence boundary for companies and
// resolved jobs. Backends live in subpackages.
package storage

import (
	"context"
	"errors"
	"time"

	"job-ingest-go/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("storage: not found")
	// ErrDuplicateKey is returned when a create collides with a unique key
	// (company name/domain or job dedupe key).
	ErrDuplicateKey = errors.New("storage: duplicate key")
	// ErrOutranked is returned by UpdateJob when the stored record has a
	// higher source priority than the incoming one.
	ErrOutranked = errors.New("storage: stored record has higher source priority")
)

// Store is the persistence contract the resolver depends on. Implementations
// must enforce uniqueness of Company.NormalizedName, Company.Domain (when set)
// and ResolvedJob.DedupeKey.
type Store interface {
	FindCompanyByDomain(ctx context.Context, domain string) (*models.Company, error)
	FindCompanyByName(ctx context.Context, normalizedName string) (*models.Company, error)
	CreateCompany(ctx context.Context, c *models.Company) error
	UpdateCompany(ctx context.Context, c *models.Company) error

	FindJobByKey(ctx context.Context, dedupeKey string) (*models.ResolvedJob, error)
	CreateJob(ctx context.Context, j *models.ResolvedJob) error
	// UpdateJob overwrites the record with j.DedupeKey only when the stored
	// source priority is <= j.SourcePriority.
	UpdateJob(ctx context.Context, j *models.ResolvedJob) error
	// TouchJob moves LastSeenAt forward without touching any other field.
	TouchJob(ctx context.Context, dedupeKey string, seenAt time.Time) error

	Close() error
}
