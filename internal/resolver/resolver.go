// Package resolver turns raw candidates into persisted, deduplicated jobs.
// For each candidate it classifies the title, parses and validates salary,
// finds or creates the company, builds the dedupe key and applies the
// create/update/skip decision table under a per-key lock.
package resolver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"job-ingest-go/internal/logger"
	"job-ingest-go/internal/models"
	"job-ingest-go/internal/roles"
	"job-ingest-go/internal/salary"
	"job-ingest-go/internal/salary/extract"
	"job-ingest-go/internal/storage"
)

// ErrInvalidCandidate wraps struct validation failures.
var ErrInvalidCandidate = errors.New("resolver: invalid candidate")

const (
	DefaultWriteTimeout = 10 * time.Second
	maxWriteAttempts    = 3
)

// Resolver is safe for concurrent use.
type Resolver struct {
	store        storage.Store
	normalizer   *salary.Normalizer
	locker       KeyLocker
	priorities   Priorities
	validate     *validator.Validate
	log          logger.Logger
	now          func() time.Time
	writeTimeout time.Duration
}

type Option func(*Resolver)

func WithLocker(l KeyLocker) Option { return func(r *Resolver) { r.locker = l } }

func WithPriorities(p Priorities) Option { return func(r *Resolver) { r.priorities = p } }

func WithLogger(l logger.Logger) Option { return func(r *Resolver) { r.log = l } }

func WithClock(now func() time.Time) Option { return func(r *Resolver) { r.now = now } }

// WithWriteTimeout bounds the store work for one candidate. That work runs
// detached from the caller's cancellation.
func WithWriteTimeout(d time.Duration) Option { return func(r *Resolver) { r.writeTimeout = d } }

func New(store storage.Store, normalizer *salary.Normalizer, opts ...Option) *Resolver {
	r := &Resolver{
		store:        store,
		normalizer:   normalizer,
		locker:       NewStripedLocker(DefaultStripes),
		priorities:   DefaultPriorities(),
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		log:          logger.NewNop(),
		now:          time.Now,
		writeTimeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve decides and persists one candidate. A cancelled ctx prevents the
// candidate from starting, but once started the writes finish on a detached
// context bounded by the write timeout.
func (r *Resolver) Resolve(ctx context.Context, c models.RawCandidate) (models.Decision, error) {
	if err := r.validate.Struct(c); err != nil {
		return models.Decision{}, fmt.Errorf("%w: %v", ErrInvalidCandidate, err)
	}
	if err := ctx.Err(); err != nil {
		return models.Decision{}, err
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.writeTimeout)
	defer cancel()

	now := r.now().UTC()
	company, err := r.resolveCompany(wctx, c, now)
	if err != nil {
		return models.Decision{}, err
	}

	job := r.buildJob(c, company.ID, now)

	unlock, err := r.locker.Lock(wctx, job.DedupeKey)
	if err != nil {
		return models.Decision{}, fmt.Errorf("lock %s: %w", job.DedupeKey, err)
	}
	defer unlock()

	outcome, err := r.apply(wctx, job, now)
	if err != nil {
		return models.Decision{}, err
	}

	r.logFor(ctx).Debug("candidate resolved",
		logger.String("source_id", c.SourceID),
		logger.String("dedupe_key", job.DedupeKey),
		logger.String("outcome", string(outcome)),
		logger.String("salary_reason", string(job.Validation.Reason)),
	)

	return models.Decision{
		Outcome:   outcome,
		JobID:     job.ID,
		CompanyID: company.ID,
		DedupeKey: job.DedupeKey,
		Reason:    job.Validation.Reason,
	}, nil
}

// logFor prefers the run-scoped logger carried by ctx.
func (r *Resolver) logFor(ctx context.Context) logger.Logger {
	return logger.FromContextOr(ctx, r.log)
}

// apply runs the decision table. Losing a create race to another writer
// re-reads and decides again.
func (r *Resolver) apply(ctx context.Context, job *models.ResolvedJob, now time.Time) (models.Outcome, error) {
	for range maxWriteAttempts {
		existing, err := r.store.FindJobByKey(ctx, job.DedupeKey)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("find job: %w", err)
		}
		if errors.Is(err, storage.ErrNotFound) {
			existing = nil
		}

		switch decide(existing, job.SourcePriority, job.ContentHash) {
		case models.OutcomeCreated:
			err := r.store.CreateJob(ctx, job)
			if errors.Is(err, storage.ErrDuplicateKey) {
				r.logFor(ctx).Debug("create lost race, re-reading", logger.String("dedupe_key", job.DedupeKey))
				continue
			}
			if err != nil {
				return "", fmt.Errorf("create job: %w", err)
			}
			return models.OutcomeCreated, nil

		case models.OutcomeUpdated:
			job.ID = existing.ID
			job.FirstSeenAt = existing.FirstSeenAt
			err := r.store.UpdateJob(ctx, job)
			if errors.Is(err, storage.ErrOutranked) {
				continue
			}
			if err != nil {
				return "", fmt.Errorf("update job: %w", err)
			}
			return models.OutcomeUpdated, nil

		default:
			job.ID = existing.ID
			if err := r.store.TouchJob(ctx, job.DedupeKey, now); err != nil {
				return "", fmt.Errorf("touch job: %w", err)
			}
			return models.OutcomeSkipped, nil
		}
	}
	return "", fmt.Errorf("resolve %s: gave up after %d attempts: %w", job.DedupeKey, maxWriteAttempts, storage.ErrDuplicateKey)
}

func (r *Resolver) resolveCompany(ctx context.Context, c models.RawCandidate, now time.Time) (*models.Company, error) {
	name := NormalizeCompanyName(c.CompanyNameRaw)
	if name == "" {
		return nil, fmt.Errorf("%w: company name %q normalizes to nothing", ErrInvalidCandidate, c.CompanyNameRaw)
	}
	domain := NormalizeDomain(c.CompanyDomain)
	if domain != "" && r.validate.Var(domain, "hostname_rfc1123") != nil {
		r.logFor(ctx).Debug("ignoring malformed company domain",
			logger.String("source_id", c.SourceID),
			logger.String("domain", c.CompanyDomain),
		)
		domain = ""
	}

	for range maxWriteAttempts {
		if domain != "" {
			co, err := r.store.FindCompanyByDomain(ctx, domain)
			if err == nil {
				return co, nil
			}
			if !errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("find company by domain: %w", err)
			}
		}

		co, err := r.store.FindCompanyByName(ctx, name)
		if err == nil {
			if domain != "" && co.Domain == "" {
				co.Domain = domain
				co.UpdatedAt = now
				if err := r.store.UpdateCompany(ctx, co); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
					return nil, fmt.Errorf("update company: %w", err)
				}
			}
			return co, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("find company by name: %w", err)
		}

		co = &models.Company{
			Name:           strings.TrimSpace(c.CompanyNameRaw),
			NormalizedName: name,
			Domain:         domain,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		err = r.store.CreateCompany(ctx, co)
		if errors.Is(err, storage.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create company: %w", err)
		}
		return co, nil
	}
	return nil, fmt.Errorf("resolve company %q: %w", name, storage.ErrDuplicateKey)
}

func (r *Resolver) buildJob(c models.RawCandidate, companyID string, now time.Time) *models.ResolvedJob {
	role := roles.Normalize(c.Title)
	sal, val := r.parseSalary(c)

	job := &models.ResolvedJob{
		DedupeKey:       DedupeKey(companyID, c.Title, c.Location()),
		CompanyID:       companyID,
		Title:           strings.TrimSpace(c.Title),
		TitleSlug:       role.Slug,
		Seniority:       string(role.Seniority),
		Discipline:      string(role.Discipline),
		IsPeopleManager: role.IsPeopleManager,
		LocationText:    c.Location(),
		CountryCode:     c.CountryCode(),
		Description:     c.Description(),
		URL:             c.URL,
		ApplyURL:        c.ApplyURL,
		SourceID:        c.SourceID,
		SourceName:      c.SourceName,
		SourcePriority:  r.priorities.Of(c.SourceKind),
		Salary:          sal,
		Validation:      val,
		FirstSeenAt:     now,
		LastSeenAt:      now,
		UpdatedAt:       now,
	}
	job.ContentHash = contentHash(job)
	return job
}

// parseSalary prefers structured numbers, then the free-text salary field,
// then the description.
func (r *Resolver) parseSalary(c models.RawCandidate) (*models.NormalizedSalary, models.SalaryValidation) {
	hints := extract.Hints{CountryCode: c.CountryCode(), Location: c.Location()}

	if c.SalaryMin != nil || c.SalaryMax != nil {
		return r.normalizer.Normalize(salary.Input{
			Min:         c.SalaryMin,
			Max:         c.SalaryMax,
			CurrencyRaw: deref(c.SalaryCurrencyRaw),
			IntervalRaw: deref(c.SalaryIntervalRaw),
			Source:      models.SalarySourceATS,
			RawText:     structuredText(c),
		})
	}

	if raw := strings.TrimSpace(deref(c.SalaryRaw)); raw != "" {
		if cand := extract.ParseText(raw, hints); cand != nil {
			return r.normalizer.Normalize(cand.Input(models.SalarySourceSalaryRaw, raw))
		}
	}

	if desc := c.Description(); desc != "" {
		if cand := extract.ForVendor(c.ATSVendor).Extract(desc, hints); cand != nil {
			source := models.SalarySourceDescription
			if cand.Structured {
				source = models.SalarySourceATS
			}
			return r.normalizer.Normalize(cand.Input(source, cand.Text))
		}
	}

	return nil, models.SalaryValidation{
		Source:       models.SalarySourceNone,
		RawText:      deref(c.SalaryRaw),
		NormalizedAt: r.now().UTC(),
	}
}

func structuredText(c models.RawCandidate) string {
	var parts []string
	for _, v := range []*float64{c.SalaryMin, c.SalaryMax} {
		if v != nil {
			parts = append(parts, strconv.FormatFloat(*v, 'f', -1, 64))
		}
	}
	s := strings.Join(parts, "-")
	if cur := deref(c.SalaryCurrencyRaw); cur != "" {
		s += " " + cur
	}
	if iv := deref(c.SalaryIntervalRaw); iv != "" {
		s += " / " + iv
	}
	return s
}

// contentHash covers the fields a source can change; timestamps are excluded.
func contentHash(j *models.ResolvedJob) string {
	h := sha256.New()
	write := func(parts ...string) {
		for _, p := range parts {
			h.Write([]byte(p))
			h.Write([]byte{0})
		}
	}
	write(j.Title, j.LocationText, j.CountryCode, j.Description, j.URL, j.ApplyURL, j.SourceID,
		string(j.Validation.Source), string(j.Validation.Reason), strconv.Itoa(j.Validation.Confidence))
	if s := j.Salary; s != nil {
		write(s.Currency, string(s.Interval), int64String(s.MinAnnual), int64String(s.MaxAnnual))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func int64String(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
