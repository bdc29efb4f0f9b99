package sources

import (
	"fmt"
	"sort"
	"strings"

	"job-ingest-go/internal/logger"
	"job-ingest-go/pkg/httpclient"
)

// Builtin lists the collector names Build understands.
func Builtin() []string {
	return []string{"greenhouse", "jsonl", "remoteok", "remotive"}
}

// Build constructs the named collector.
func Build(name string, cfg SourceConfig, client *httpclient.HttpClient, log logger.Logger) (Source, error) {
	switch strings.ToLower(name) {
	case "remotive":
		return NewRemotiveSource(client, cfg), nil
	case "remoteok":
		return NewRemoteOKSource(client, cfg), nil
	case "greenhouse":
		return NewGreenhouseSource(client, cfg, log), nil
	case "jsonl":
		return NewJSONLSource(client, cfg, log), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
}

// NewManagerFromConfig registers every configured source. Unknown names are
// an error so a typo in the config file does not silently drop a feed.
func NewManagerFromConfig(configs map[string]SourceConfig, client *httpclient.HttpClient, log logger.Logger) (*SourceManager, error) {
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	sm := NewSourceManager()
	for _, name := range names {
		src, err := Build(name, configs[name], client, log)
		if err != nil {
			return nil, err
		}
		sm.RegisterSource(src, configs[name])
	}
	log.Info("sources registered",
		logger.Int("registered", len(sm.GetSources())),
		logger.Int("enabled", len(sm.GetEnabledSources())),
	)
	return sm, nil
}
