package sessionkit

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/miraiworks/sessionkit/tokenstore"
)

// Builder assembles a [Manager]. Construction is allocation-only; the
// first network call happens in [Manager.Initialize].
type Builder struct {
	config  Config
	backend Backend
	store   tokenstore.Store
	logger  zerolog.Logger
	sink    AuditSink

	hasLogger bool
	built     bool
}

// New creates a builder with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithBackend sets the backend collaborator. Required.
func (b *Builder) WithBackend(backend Backend) *Builder {
	b.backend = backend
	return b
}

// WithTokenStore sets the token store. Defaults to an in-memory store,
// which does not survive a restart.
func (b *Builder) WithTokenStore(store tokenstore.Store) *Builder {
	b.store = store
	return b
}

// WithLogger sets the logger. Defaults to a no-op logger.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	b.hasLogger = true
	return b
}

// WithAuditSink sets the audit sink. Ignored unless Config.Audit.Enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// WithMetricsEnabled toggles the metrics system.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles backend latency histograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and assembles the Manager. A builder
// can be used once.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.backend == nil {
		return nil, errors.New("backend required")
	}

	store := b.store
	if store == nil {
		store = tokenstore.NewMemory()
	}

	logger := zerolog.Nop()
	if b.hasLogger {
		logger = b.logger
	}

	m := &Manager{
		config:  cfg,
		backend: b.backend,
		tokens:  store,
		logger:  logger,
		audit:   newAuditDispatcher(cfg.Audit, b.sink),
		metrics: NewMetrics(cfg.Metrics),
		// The session starts in the loading state; Initialize resolves it.
		state: Session{IsLoading: true},
	}

	b.built = true
	return m, nil
}
