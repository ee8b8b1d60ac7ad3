package resolver

import (
	"github.com/lokireturns/loki-jsonschema-resolver/logging"
	"github.com/lokireturns/loki-jsonschema-resolver/merger"
	"github.com/lokireturns/loki-jsonschema-resolver/referrors"
)

// DefaultMaxPasses bounds a run when WithMaxPasses is not given.
const DefaultMaxPasses = 100

// Option configures a Resolver.
type Option func(*config) error

// config holds configuration for a Resolver
type config struct {
	logger           logging.Logger
	annotationFields []string
	preserveKeys     []string
	maxPasses        int
	recorder         Recorder
	store            Store
	dryRun           bool
}

func applyOptions(opts ...Option) (*config, error) {
	cfg := &config{
		logger:           logging.NopLogger{},
		annotationFields: append([]string(nil), merger.DefaultAnnotationFields...),
		preserveKeys:     append([]string(nil), merger.DefaultPreserveKeys...),
		maxPasses:        DefaultMaxPasses,
		recorder:         NopRecorder{},
		store:            FileStore{},
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// WithLogger sets the logger. Nil restores the no-op logger.
func WithLogger(l logging.Logger) Option {
	return func(cfg *config) error {
		if l == nil {
			l = logging.NopLogger{}
		}
		cfg.logger = l
		return nil
	}
}

// WithAnnotationFields replaces the fields kept across substitution.
func WithAnnotationFields(fields ...string) Option {
	return func(cfg *config) error {
		for _, f := range fields {
			if f == "" {
				return &referrors.ConfigError{Option: "annotation_fields", Message: "field names must not be empty"}
			}
		}
		cfg.annotationFields = append([]string(nil), fields...)
		return nil
	}
}

// WithPreserveKeys replaces the site keys kept verbatim across substitution.
func WithPreserveKeys(keys ...string) Option {
	return func(cfg *config) error {
		for _, k := range keys {
			if k == "" {
				return &referrors.ConfigError{Option: "preserve_keys", Message: "key names must not be empty"}
			}
		}
		cfg.preserveKeys = append([]string(nil), keys...)
		return nil
	}
}

// WithMaxPasses limits the number of fixpoint passes. Zero means no limit.
// Returns an error if n is negative.
func WithMaxPasses(n int) Option {
	return func(cfg *config) error {
		if n < 0 {
			return &referrors.ConfigError{Option: "max_passes", Value: n, Message: "must not be negative"}
		}
		cfg.maxPasses = n
		return nil
	}
}

// WithMetrics sets the recorder notified of run progress.
func WithMetrics(r Recorder) Option {
	return func(cfg *config) error {
		if r == nil {
			r = NopRecorder{}
		}
		cfg.recorder = r
		return nil
	}
}

// WithStore sets where documents are loaded from and saved to.
func WithStore(s Store) Option {
	return func(cfg *config) error {
		if s == nil {
			return &referrors.ConfigError{Option: "store", Message: "store cannot be nil"}
		}
		cfg.store = s
		return nil
	}
}

// WithDryRun keeps every write in memory. The resolved documents are
// returned in Result.Documents instead of being persisted.
func WithDryRun(enabled bool) Option {
	return func(cfg *config) error {
		cfg.dryRun = enabled
		return nil
	}
}
