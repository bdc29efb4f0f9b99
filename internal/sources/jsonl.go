package sources

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"job-ingest-go/internal/logger"
	"job-ingest-go/internal/models"
	"job-ingest-go/pkg/httpclient"
)

const maxJSONLLine = 4 << 20

// JSONLSource reads newline-delimited RawCandidate records from a file or an
// http(s) URL. Records carry their own source kind; missing kinds default to
// the configured one.
type JSONLSource struct {
	client *httpclient.HttpClient
	path   string
	kind   models.SourceKind
	log    logger.Logger
	now    func() time.Time
}

func NewJSONLSource(client *httpclient.HttpClient, cfg SourceConfig, log logger.Logger) *JSONLSource {
	kind := models.SourceKind(strings.ToLower(cfg.Kind))
	if kind == "" {
		kind = models.SourceKindGeneric
	}
	return &JSONLSource{client: client, path: cfg.Path, kind: kind, log: log, now: time.Now}
}

func (j *JSONLSource) GetName() string { return "jsonl" }
func (j *JSONLSource) GetKind() models.SourceKind { return j.kind }
func (j *JSONLSource) GetRateLimit() int { return 60 }
func (j *JSONLSource) GetBaseURL() string { return j.path }

func (j *JSONLSource) FetchCandidates(ctx context.Context, pace Pacer) ([]models.RawCandidate, error) {
	if j.path == "" {
		return nil, fmt.Errorf("jsonl: no path configured")
	}
	if err := pace.Wait(ctx); err != nil {
		return nil, err
	}

	var r io.ReadCloser
	if strings.HasPrefix(j.path, "http://") || strings.HasPrefix(j.path, "https://") {
		resp, err := j.client.Get(ctx, j.path)
		if err != nil {
			return nil, fmt.Errorf("jsonl: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("jsonl: %s returned status %d", j.path, resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(j.path)
		if err != nil {
			return nil, fmt.Errorf("jsonl: %w", err)
		}
		r = f
	}
	defer r.Close()

	return j.Decode(ctx, r)
}

// Decode reads records until EOF. Malformed lines are logged and skipped.
func (j *JSONLSource) Decode(ctx context.Context, r io.Reader) ([]models.RawCandidate, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), maxJSONLLine)

	fetched := j.now().UTC()
	var out []models.RawCandidate
	line := 0
	for sc.Scan() {
		line++
		if line%1000 == 0 && ctx.Err() != nil {
			return out, ctx.Err()
		}
		raw := strings.TrimSpace(sc.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		var c models.RawCandidate
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			j.log.Warn("skipping malformed jsonl record", logger.Int("line", line), logger.Error(err))
			continue
		}
		if c.SourceKind == "" {
			c.SourceKind = j.kind
		}
		if c.SourceName == "" {
			c.SourceName = j.GetName()
		}
		if c.SourceID == "" {
			c.SourceID = "jsonl:" + strconv.Itoa(line)
		}
		if c.FetchedAt.IsZero() {
			c.FetchedAt = fetched
		}
		out = append(out, c)
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("jsonl: read: %w", err)
	}
	return out, nil
}
