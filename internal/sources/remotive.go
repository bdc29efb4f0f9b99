package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"job-ingest-go/internal/models"
	"job-ingest-go/pkg/httpclient"
)

const remotiveBaseURL = "https://remotive.com/api/remote-jobs"

// RemotiveSource reads the Remotive public API. Salary arrives as free text.
type RemotiveSource struct {
	client     *httpclient.HttpClient
	baseURL    string
	categories []string
	now        func() time.Time
}

func NewRemotiveSource(client *httpclient.HttpClient, cfg SourceConfig) *RemotiveSource {
	base := cfg.BaseURL
	if base == "" {
		base = remotiveBaseURL
	}
	return &RemotiveSource{client: client, baseURL: base, categories: cfg.Categories, now: time.Now}
}

func (r *RemotiveSource) GetName() string { return "remotive" }
func (r *RemotiveSource) GetKind() models.SourceKind { return models.SourceKindBoard }
func (r *RemotiveSource) GetRateLimit() int { return 100 }
func (r *RemotiveSource) GetBaseURL() string { return r.baseURL }

// RemotiveResponse represents the API response from Remotive
type RemotiveResponse struct {
	Jobs []RemotiveJob `json:"jobs"`
}

// RemotiveJob represents a job from Remotive API
type RemotiveJob struct {
	ID                        int    `json:"id"`
	URL                       string `json:"url"`
	Title                     string `json:"title"`
	CompanyName               string `json:"company_name"`
	Category                  string `json:"category"`
	JobType                   string `json:"job_type"`
	PublicationDate           string `json:"publication_date"`
	CandidateRequiredLocation string `json:"candidate_required_location"`
	Salary                    string `json:"salary"`
	Description               string `json:"description"`
}

// FetchCandidates pulls every configured category, or the whole feed when
// none is configured. A job listed under two categories is returned once.
func (r *RemotiveSource) FetchCandidates(ctx context.Context, pace Pacer) ([]models.RawCandidate, error) {
	urls := []string{r.baseURL}
	if len(r.categories) > 0 {
		urls = urls[:0]
		for _, c := range r.categories {
			urls = append(urls, r.baseURL+"?category="+url.QueryEscape(strings.ToLower(c)))
		}
	}

	seen := make(map[int]bool)
	var out []models.RawCandidate
	for _, u := range urls {
		if err := pace.Wait(ctx); err != nil {
			return out, err
		}
		var resp RemotiveResponse
		if err := r.client.GetJSON(ctx, u, &resp); err != nil {
			return out, fmt.Errorf("failed to fetch from Remotive: %w", err)
		}
		fetched := r.now().UTC()
		for _, j := range resp.Jobs {
			if seen[j.ID] {
				continue
			}
			seen[j.ID] = true
			out = append(out, r.candidate(j, fetched))
		}
	}
	return out, nil
}

func (r *RemotiveSource) candidate(j RemotiveJob, fetched time.Time) models.RawCandidate {
	location := j.CandidateRequiredLocation
	if location == "" {
		location = "Remote"
	}
	return models.RawCandidate{
		Title:           strings.TrimSpace(j.Title),
		CompanyNameRaw:  strings.TrimSpace(j.CompanyName),
		LocationText:    &location,
		DescriptionHTML: optional(j.Description),
		SalaryRaw:       optional(j.Salary),
		SourceID:        "remotive:" + strconv.Itoa(j.ID),
		SourceName:      r.GetName(),
		SourceKind:      r.GetKind(),
		URL:             j.URL,
		FetchedAt:       fetched,
	}
}

// optional returns nil for blank strings.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
