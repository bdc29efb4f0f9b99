// Package sources holds the collectors that turn upstream job feeds into
// raw candidates, and the registry that decides which of them run.
package sources

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"job-ingest-go/internal/models"
)

// ErrUnknownSource is returned by Select for a name nobody registered.
var ErrUnknownSource = errors.New("sources: unknown source")

// Pacer spaces out upstream requests. *rate.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Source is one upstream feed.
type Source interface {
	GetName() string
	GetKind() models.SourceKind
	GetRateLimit() int // requests per minute
	GetBaseURL() string
	// FetchCandidates calls pace.Wait before every upstream request.
	FetchCandidates(ctx context.Context, pace Pacer) ([]models.RawCandidate, error)
}

// SourceConfig holds configuration for one source. Not every field applies
// to every source.
type SourceConfig struct {
	Enabled    bool     `mapstructure:"enabled" json:"enabled"`
	RateLimit  int      `mapstructure:"rate_limit" json:"rate_limit"`
	BaseURL    string   `mapstructure:"base_url" json:"base_url,omitempty"`
	Categories []string `mapstructure:"categories" json:"categories,omitempty"`
	Boards     []string `mapstructure:"boards" json:"boards,omitempty"`
	Path       string   `mapstructure:"path" json:"path,omitempty"`
	Kind       string   `mapstructure:"kind" json:"kind,omitempty"`
}

// SourceManager manages all job sources
type SourceManager struct {
	mu      sync.RWMutex
	sources map[string]Source
	configs map[string]SourceConfig
}

func NewSourceManager() *SourceManager {
	return &SourceManager{
		sources: make(map[string]Source),
		configs: make(map[string]SourceConfig),
	}
}

// RegisterSource registers a source under its lowercased name.
func (sm *SourceManager) RegisterSource(source Source, config SourceConfig) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	name := strings.ToLower(source.GetName())
	if config.RateLimit <= 0 {
		config.RateLimit = source.GetRateLimit()
	}
	sm.sources[name] = source
	sm.configs[name] = config
}

// GetSources returns every registered source ordered by name.
func (sm *SourceManager) GetSources() []Source {
	return sm.filter(func(Source, SourceConfig) bool { return true })
}

// GetEnabledSources returns only enabled sources, ordered by name.
func (sm *SourceManager) GetEnabledSources() []Source {
	return sm.filter(func(_ Source, c SourceConfig) bool { return c.Enabled })
}

func (sm *SourceManager) GetSourceConfig(name string) (SourceConfig, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	config, exists := sm.configs[strings.ToLower(name)]
	return config, exists
}

// Select resolves a selection such as "all", "ats", "boards", "careers" or a
// comma-separated list of source names. Groups only include enabled
// sources; a source named explicitly runs even when disabled.
func (sm *SourceManager) Select(selection string) ([]Source, error) {
	selection = strings.TrimSpace(strings.ToLower(selection))
	if selection == "" || selection == "all" {
		return sm.GetEnabledSources(), nil
	}

	picked := make(map[string]bool)
	for _, tok := range strings.Split(selection, ",") {
		tok = strings.TrimSpace(tok)
		var group func(models.SourceKind) bool
		switch tok {
		case "":
			continue
		case "all":
			group = func(models.SourceKind) bool { return true }
		case "ats":
			group = func(k models.SourceKind) bool { return k == models.SourceKindATS }
		case "careers":
			group = func(k models.SourceKind) bool { return k == models.SourceKindCareers }
		case "boards":
			group = models.SourceKind.IsBoard
		}
		if group != nil {
			for _, s := range sm.filter(func(s Source, c SourceConfig) bool { return c.Enabled && group(s.GetKind()) }) {
				picked[strings.ToLower(s.GetName())] = true
			}
			continue
		}

		sm.mu.RLock()
		_, ok := sm.sources[tok]
		sm.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSource, tok)
		}
		picked[tok] = true
	}

	return sm.filter(func(s Source, _ SourceConfig) bool { return picked[strings.ToLower(s.GetName())] }), nil
}

func (sm *SourceManager) filter(keep func(Source, SourceConfig) bool) []Source {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	var out []Source
	for name, s := range sm.sources {
		if keep(s, sm.configs[name]) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetName() < out[j].GetName() })
	return out
}
