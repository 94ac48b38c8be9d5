package goSession

import (
	"errors"
	"log/slog"
	"time"

	"github.com/Unicash-organization/goSession/credential"
	"github.com/Unicash-organization/goSession/fingerprint"
	"github.com/Unicash-organization/goSession/internal/audit"
	"github.com/Unicash-organization/goSession/internal/flows"
	"github.com/Unicash-organization/goSession/internal/metrics"
	"github.com/Unicash-organization/goSession/processor"
	"github.com/Unicash-organization/goSession/storage"
	"github.com/google/uuid"
)

// Builder assembles an Engine. A Builder is single-use.
type Builder struct {
	config Config

	store       storage.Store
	accounts    AccountService
	processor   processor.Processor
	environment *fingerprint.Environment
	navigator   Navigator
	logger      *slog.Logger
	auditSink   AuditSink
	now         func() time.Time

	built bool
}

// New returns a Builder carrying the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStorage sets the durable key-value store holding the credential, the
// fingerprint and the processor's namespaced keys. Required.
func (b *Builder) WithStorage(store storage.Store) *Builder {
	b.store = store
	return b
}

// WithAccountService sets the remote account authority. Required.
func (b *Builder) WithAccountService(svc AccountService) *Builder {
	b.accounts = svc
	return b
}

// WithProcessor sets the payment processor. Without one, payment flows fail
// to open with ErrProcessorUnavailable.
func (b *Builder) WithProcessor(p processor.Processor) *Builder {
	b.processor = p
	return b
}

// WithEnvironment overrides the detected device environment used to derive
// the fingerprint.
func (b *Builder) WithEnvironment(env fingerprint.Environment) *Builder {
	b.environment = &env
	return b
}

func (b *Builder) WithNavigator(nav Navigator) *Builder {
	b.navigator = nav
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock replaces time.Now. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and returns a ready Engine. The engine
// starts Unauthenticated and Unresolved; call Engine.Initialize to restore a
// persisted session.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.store == nil {
		return nil, errors.New("storage required")
	}
	if b.accounts == nil {
		return nil, errors.New("account service required")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}
	nav := b.navigator
	if nav == nil {
		nav = noopNavigator{}
	}

	env := fingerprint.DetectEnvironment("")
	if b.environment != nil {
		env = *b.environment
	}

	engine := &Engine{
		config:       cfg,
		accounts:     b.accounts,
		processor:    b.processor,
		store:        b.store,
		credentials:  credential.NewStore(b.store, cfg.Storage.CredentialKey),
		fingerprints: fingerprint.NewGenerator(b.store, cfg.Storage.FingerprintKey, env),
		navigator:    nav,
		logger:       logger,
		now:          now,
		watchers:     map[uint64]chan Snapshot{},
	}

	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = metrics.New(metrics.Config{
		Enabled:                 cfg.Metrics.Enabled,
		EnableLatencyHistograms: cfg.Metrics.EnableLatencyHistograms,
	})

	engine.flows = flows.New(flows.Deps{
		Login: flows.LoginDeps{
			Accounts:    b.accounts,
			Fingerprint: engine.fingerprints.GetOrCreate,
			Logger:      logger,
		},
		Revalidate: flows.RevalidateDeps{
			Accounts: b.accounts,
			Now:      now,
		},
		Logout: flows.LogoutDeps{
			Credentials: engine.credentials,
			Storage:     b.store,
			Namespaces:  cfg.Processor.StorageNamespaces,
		},
		Payment: flows.PaymentDeps{
			Accounts:          b.accounts,
			Processor:         b.processor,
			NewIdempotencyKey: uuid.NewString,
		},
	})

	b.built = true

	return engine, nil
}
