package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"job-ingest-go/internal/models"
	"job-ingest-go/pkg/httpclient"
)

const remoteOKBaseURL = "https://remoteok.com/api"

// RemoteOKSource reads the RemoteOK feed. Its salary fields are annual USD
// numbers, so they are passed through as structured amounts.
type RemoteOKSource struct {
	client  *httpclient.HttpClient
	baseURL string
	now     func() time.Time
}

func NewRemoteOKSource(client *httpclient.HttpClient, cfg SourceConfig) *RemoteOKSource {
	base := cfg.BaseURL
	if base == "" {
		base = remoteOKBaseURL
	}
	return &RemoteOKSource{client: client, baseURL: base, now: time.Now}
}

func (r *RemoteOKSource) GetName() string { return "remoteok" }
func (r *RemoteOKSource) GetKind() models.SourceKind { return models.SourceKindBoard }
func (r *RemoteOKSource) GetRateLimit() int { return 60 }
func (r *RemoteOKSource) GetBaseURL() string { return r.baseURL }

// flexID accepts both string and numeric ids.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// RemoteOKJob represents a job from RemoteOK API
type RemoteOKJob struct {
	ID          flexID   `json:"id"`
	Slug        string   `json:"slug"`
	Company     string   `json:"company"`
	Position    string   `json:"position"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	URL         string   `json:"url"`
	ApplyURL    string   `json:"apply_url"`
	SalaryMin   float64  `json:"salary_min"`
	SalaryMax   float64  `json:"salary_max"`
}

func (r *RemoteOKSource) FetchCandidates(ctx context.Context, pace Pacer) ([]models.RawCandidate, error) {
	if err := pace.Wait(ctx); err != nil {
		return nil, err
	}
	var jobs []RemoteOKJob
	if err := r.client.GetJSON(ctx, r.baseURL, &jobs); err != nil {
		return nil, fmt.Errorf("failed to fetch from RemoteOK: %w", err)
	}

	fetched := r.now().UTC()
	out := make([]models.RawCandidate, 0, len(jobs))
	for _, j := range jobs {
		// the first element is a legal notice, not a job
		if j.ID == "" {
			continue
		}
		out = append(out, r.candidate(j, fetched))
	}
	return out, nil
}

func (r *RemoteOKSource) candidate(j RemoteOKJob, fetched time.Time) models.RawCandidate {
	c := models.RawCandidate{
		Title:           strings.TrimSpace(j.Position),
		CompanyNameRaw:  strings.TrimSpace(j.Company),
		LocationText:    optional(j.Location),
		DescriptionHTML: optional(j.Description),
		SourceID:        "remoteok:" + string(j.ID),
		SourceName:      r.GetName(),
		SourceKind:      r.GetKind(),
		URL:             j.URL,
		ApplyURL:        j.ApplyURL,
		FetchedAt:       fetched,
	}
	if c.URL == "" && j.Slug != "" {
		c.URL = "https://remoteok.com/remote-jobs/" + j.Slug
	}
	if j.SalaryMin > 0 || j.SalaryMax > 0 {
		usd, year := "USD", "year"
		c.SalaryCurrencyRaw = &usd
		c.SalaryIntervalRaw = &year
		if j.SalaryMin > 0 {
			lo := j.SalaryMin
			c.SalaryMin = &lo
		}
		if j.SalaryMax > 0 {
			hi := j.SalaryMax
			c.SalaryMax = &hi
		}
	}
	return c
}
