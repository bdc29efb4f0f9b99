// Package api is the HTTP surface of the ingest daemon.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"job-ingest-go/internal/ingest"
	"job-ingest-go/internal/logger"
	"job-ingest-go/internal/models"
	"job-ingest-go/internal/roles"
	"job-ingest-go/internal/salary"
	"job-ingest-go/internal/salary/extract"
	"job-ingest-go/internal/sources"
)

// RunService is the subset of *ingest.Runner the handlers need.
type RunService interface {
	Run(ctx context.Context, selection string) (*ingest.RunReport, error)
	Start(ctx context.Context, selection string) (<-chan *ingest.RunReport, error)
	Latest() *ingest.RunReport
	Running() bool
}

// Handler serves run control and debugging endpoints. Asynchronous runs use
// the base context so they outlive the request that started them.
type Handler struct {
	runs       RunService
	normalizer *salary.Normalizer
	log        logger.Logger
	baseCtx    context.Context
	wg         sync.WaitGroup
}

func NewHandler(baseCtx context.Context, runs RunService, normalizer *salary.Normalizer, log logger.Logger) *Handler {
	return &Handler{runs: runs, normalizer: normalizer, log: log, baseCtx: baseCtx}
}

// Wait blocks until every asynchronous run started through the API returns.
func (h *Handler) Wait() { h.wg.Wait() }

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"running": h.runs.Running(),
	})
}

// RunRequest is the body of POST /v1/runs.
type RunRequest struct {
	Sources string `json:"sources"`
	Wait    bool   `json:"wait"`
}

// StartRun handles POST /v1/runs.
func (h *Handler) StartRun(c *gin.Context) {
	var req RunRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Sources == "" {
		req.Sources = "all"
	}

	if req.Wait {
		ctx := context.WithoutCancel(c.Request.Context())
		report, err := h.runs.Run(ctx, req.Sources)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, report)
		return
	}

	done, err := h.runs.Start(h.baseCtx, req.Sources)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if report := <-done; report != nil && report.Error != "" {
			h.log.Warn("api-triggered run failed",
				logger.String("run_id", report.RunID),
				logger.String("sources", req.Sources),
				logger.String("error", report.Error),
			)
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "sources": req.Sources})
}

// LatestRun handles GET /v1/runs/latest.
func (h *Handler) LatestRun(c *gin.Context) {
	report := h.runs.Latest()
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no run has completed yet"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// ParseSalaryRequest is the body of POST /v1/salary/parse. Text is parsed as
// a salary field; HTML is run through the vendor extractor like a
// description.
type ParseSalaryRequest struct {
	Text        string `json:"text" binding:"required_without=HTML"`
	HTML        string `json:"html"`
	Vendor      string `json:"vendor"`
	CountryCode string `json:"country_code" binding:"omitempty,len=2"`
	Location    string `json:"location"`
}

// ParseSalaryResponse shows every stage of the salary pipeline.
type ParseSalaryResponse struct {
	Candidate  *extract.Candidate       `json:"candidate"`
	Salary     *models.NormalizedSalary `json:"salary"`
	Validation models.SalaryValidation  `json:"validation"`
}

// ParseSalary handles POST /v1/salary/parse.
func (h *Handler) ParseSalary(c *gin.Context) {
	var req ParseSalaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ParseSalary(h.normalizer, req))
}

// ParseSalary runs extraction and normalization without touching storage.
func ParseSalary(n *salary.Normalizer, req ParseSalaryRequest) ParseSalaryResponse {
	hints := extract.Hints{CountryCode: req.CountryCode, Location: req.Location}

	var cand *extract.Candidate
	source := models.SalarySourceSalaryRaw
	raw := req.Text
	if req.Text != "" {
		cand = extract.ParseText(req.Text, hints)
	} else {
		cand = extract.ForVendor(req.Vendor).Extract(req.HTML, hints)
		source = models.SalarySourceDescription
		if cand != nil {
			raw = cand.Text
			if cand.Structured {
				source = models.SalarySourceATS
			}
		}
	}

	resp := ParseSalaryResponse{Candidate: cand}
	if cand == nil {
		resp.Validation = models.SalaryValidation{Source: models.SalarySourceNone, RawText: raw}
		return resp
	}
	resp.Salary, resp.Validation = n.Normalize(cand.Input(source, raw))
	return resp
}

// ClassifyTitle handles GET /v1/roles/classify?title=...
func (h *Handler) ClassifyTitle(c *gin.Context) {
	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	role := roles.Normalize(title)
	c.JSON(http.StatusOK, gin.H{
		"title":             title,
		"title_token":       roles.TitleToken(title),
		"seniority":         role.Seniority,
		"discipline":        role.Discipline,
		"is_people_manager": role.IsPeopleManager,
		"slug":              role.Slug,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ingest.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, sources.ErrUnknownSource), errors.Is(err, ingest.ErrNoSources):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
