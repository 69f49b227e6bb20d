package service

import (
	"github.com/google/uuid"
	"github.com/okian/defscout/internal/domain/features"
	"github.com/okian/defscout/pkg/logger"
)

// PipelineOption applies a configuration option to the Pipeline.
type PipelineOption func(*Pipeline)

// WithSeasons sets the seasons fetched by every run.
func WithSeasons(seasons []string) PipelineOption {
	return func(p *Pipeline) {
		p.seasons = append([]string(nil), seasons...)
	}
}

// WithPreprocessor replaces the default preprocessor.
func WithPreprocessor(pre Preprocessor) PipelineOption {
	return func(p *Pipeline) {
		if pre != nil {
			p.preprocessor = pre
		}
	}
}

// WithExcludedColumns sets the metric discovery exclusion list.
func WithExcludedColumns(cols []string) PipelineOption {
	return func(p *Pipeline) {
		if cols != nil {
			p.excluded = cols
		}
	}
}

// WithEngineerOptions sets the options used to build the engineer of each
// run. Player names are added per run from the fetched player index.
func WithEngineerOptions(opts ...features.Option) PipelineOption {
	return func(p *Pipeline) {
		p.engineerOpts = append(p.engineerOpts, opts...)
	}
}

// WithClusterer replaces the default clusterer.
func WithClusterer(c Clusterer) PipelineOption {
	return func(p *Pipeline) {
		if c != nil {
			p.clusterer = c
		}
	}
}

// WithRunIDFunc overrides run id generation.
func WithRunIDFunc(fn func() string) PipelineOption {
	return func(p *Pipeline) {
		if fn != nil {
			p.newRunID = fn
		}
	}
}

// WithPipelineLogger sets a custom logger for the pipeline.
func WithPipelineLogger(l logger.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

func newRunID() string { return uuid.NewString() }

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSchedule sets the cron expression of scheduled refreshes. An empty
// schedule disables them.
func WithSchedule(spec string) Option {
	return func(s *Service) {
		s.schedule = spec
	}
}

// WithRefreshOnStart controls whether Start triggers an immediate refresh.
func WithRefreshOnStart(enabled bool) Option {
	return func(s *Service) {
		s.refreshOnStart = enabled
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
