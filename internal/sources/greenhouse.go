package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"job-ingest-go/internal/logger"
	"job-ingest-go/internal/models"
	"job-ingest-go/pkg/httpclient"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io"

// GreenhouseSource reads public Greenhouse job boards. Each board token is
// one employer; descriptions arrive entity-encoded.
type GreenhouseSource struct {
	client  *httpclient.HttpClient
	baseURL string
	boards  []string
	log     logger.Logger
	now     func() time.Time
}

func NewGreenhouseSource(client *httpclient.HttpClient, cfg SourceConfig, log logger.Logger) *GreenhouseSource {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = greenhouseBaseURL
	}
	return &GreenhouseSource{client: client, baseURL: base, boards: cfg.Boards, log: log, now: time.Now}
}

func (g *GreenhouseSource) GetName() string { return "greenhouse" }
func (g *GreenhouseSource) GetKind() models.SourceKind { return models.SourceKindATS }
func (g *GreenhouseSource) GetRateLimit() int { return 120 }
func (g *GreenhouseSource) GetBaseURL() string { return g.baseURL }

type greenhouseBoard struct {
	Name string `json:"name"`
}

type greenhouseJobs struct {
	Jobs []GreenhouseJob `json:"jobs"`
}

// GreenhouseJob is one posting from /v1/boards/{token}/jobs?content=true.
type GreenhouseJob struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	AbsoluteURL string `json:"absolute_url"`
	CompanyName string `json:"company_name"`
	Content     string `json:"content"`
	Location    struct {
		Name string `json:"name"`
	} `json:"location"`
}

// FetchCandidates walks every configured board. A failing board is logged
// and skipped unless every board fails.
func (g *GreenhouseSource) FetchCandidates(ctx context.Context, pace Pacer) ([]models.RawCandidate, error) {
	if len(g.boards) == 0 {
		return nil, fmt.Errorf("greenhouse: no boards configured")
	}

	var out []models.RawCandidate
	var lastErr error
	failed := 0
	for _, token := range g.boards {
		cs, err := g.fetchBoard(ctx, pace, token)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			failed++
			lastErr = err
			g.log.Warn("greenhouse board failed", logger.String("board", token), logger.Error(err))
			continue
		}
		out = append(out, cs...)
	}
	if failed == len(g.boards) {
		return nil, fmt.Errorf("greenhouse: all %d boards failed: %w", failed, lastErr)
	}
	return out, nil
}

func (g *GreenhouseSource) fetchBoard(ctx context.Context, pace Pacer, token string) ([]models.RawCandidate, error) {
	boardURL := g.baseURL + "/v1/boards/" + url.PathEscape(token)

	if err := pace.Wait(ctx); err != nil {
		return nil, err
	}
	var board greenhouseBoard
	if err := g.client.GetJSON(ctx, boardURL, &board); err != nil {
		return nil, fmt.Errorf("board %s: %w", token, err)
	}

	if err := pace.Wait(ctx); err != nil {
		return nil, err
	}
	var resp greenhouseJobs
	if err := g.client.GetJSON(ctx, boardURL+"/jobs?content=true", &resp); err != nil {
		return nil, fmt.Errorf("board %s jobs: %w", token, err)
	}

	fetched := g.now().UTC()
	out := make([]models.RawCandidate, 0, len(resp.Jobs))
	for _, j := range resp.Jobs {
		company := j.CompanyName
		if company == "" {
			company = board.Name
		}
		if company == "" {
			company = token
		}
		out = append(out, models.RawCandidate{
			Title:           strings.TrimSpace(j.Title),
			CompanyNameRaw:  strings.TrimSpace(company),
			LocationText:    optional(j.Location.Name),
			DescriptionHTML: optional(j.Content),
			SourceID:        "greenhouse:" + token + ":" + strconv.FormatInt(j.ID, 10),
			SourceName:      g.GetName(),
			SourceKind:      g.GetKind(),
			ATSVendor:       "greenhouse",
			URL:             j.AbsoluteURL,
			ApplyURL:        j.AbsoluteURL,
			FetchedAt:       fetched,
		})
	}
	return out, nil
}
