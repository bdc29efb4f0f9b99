// Package memory is an in-process Store used for tests, dry runs and
// single-node deployments.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"job-ingest-go/internal/models"
	"job-ingest-go/internal/storage"
)

// Store keeps records in slices and indexes them by key. Records are copied
// in and out so callers never share memory with the store.
type Store struct {
	mu        sync.RWMutex
	companies []models.Company
	byDomain  map[string]int
	byName    map[string]int
	byID      map[string]int
	jobs      []models.ResolvedJob
	byKey     map[string]int
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		byDomain: make(map[string]int),
		byName:   make(map[string]int),
		byID:     make(map[string]int),
		byKey:    make(map[string]int),
	}
}

func (s *Store) FindCompanyByDomain(_ context.Context, domain string) (*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byDomain[strings.ToLower(domain)]
	if !ok || domain == "" {
		return nil, storage.ErrNotFound
	}
	c := s.companies[i]
	return &c, nil
}

func (s *Store) FindCompanyByName(_ context.Context, normalizedName string) (*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byName[normalizedName]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := s.companies[i]
	return &c, nil
}

func (s *Store) CreateCompany(_ context.Context, c *models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	domain := strings.ToLower(c.Domain)
	if _, ok := s.byName[c.NormalizedName]; ok {
		return storage.ErrDuplicateKey
	}
	if _, ok := s.byDomain[domain]; ok && domain != "" {
		return storage.ErrDuplicateKey
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.companies = append(s.companies, *c)
	i := len(s.companies) - 1
	s.byName[c.NormalizedName] = i
	s.byID[c.ID] = i
	if domain != "" {
		s.byDomain[domain] = i
	}
	return nil
}

func (s *Store) UpdateCompany(_ context.Context, c *models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[c.ID]
	if !ok {
		return storage.ErrNotFound
	}
	domain := strings.ToLower(c.Domain)
	if j, ok := s.byDomain[domain]; ok && domain != "" && j != i {
		return storage.ErrDuplicateKey
	}
	prev := s.companies[i]
	if prev.Domain != "" && !strings.EqualFold(prev.Domain, c.Domain) {
		delete(s.byDomain, strings.ToLower(prev.Domain))
	}
	s.companies[i] = *c
	if domain != "" {
		s.byDomain[domain] = i
	}
	return nil
}

func (s *Store) FindJobByKey(_ context.Context, key string) (*models.ResolvedJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byKey[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	j := s.jobs[i]
	return &j, nil
}

func (s *Store) CreateJob(_ context.Context, j *models.ResolvedJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byKey[j.DedupeKey]; ok {
		return storage.ErrDuplicateKey
	}
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	s.jobs = append(s.jobs, *j)
	s.byKey[j.DedupeKey] = len(s.jobs) - 1
	return nil
}

func (s *Store) UpdateJob(_ context.Context, j *models.ResolvedJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byKey[j.DedupeKey]
	if !ok {
		return storage.ErrNotFound
	}
	stored := s.jobs[i]
	if stored.SourcePriority > j.SourcePriority {
		return storage.ErrOutranked
	}
	j.ID = stored.ID
	j.FirstSeenAt = stored.FirstSeenAt
	s.jobs[i] = *j
	return nil
}

func (s *Store) TouchJob(_ context.Context, key string, seenAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byKey[key]
	if !ok {
		return storage.ErrNotFound
	}
	if seenAt.After(s.jobs[i].LastSeenAt) {
		s.jobs[i].LastSeenAt = seenAt
	}
	return nil
}

// Jobs returns a snapshot of every stored job in insertion order.
func (s *Store) Jobs() []models.ResolvedJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ResolvedJob(nil), s.jobs...)
}

// Companies returns a snapshot of every stored company in insertion order.
func (s *Store) Companies() []models.Company {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Company(nil), s.companies...)
}

func (s *Store) Close() error { return nil }
