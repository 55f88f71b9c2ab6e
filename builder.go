package goGuard

import (
	"errors"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/goGuard/internal/audit"
	"github.com/MrEthical07/goGuard/internal/rate"
	"github.com/MrEthical07/goGuard/jwt"
	"github.com/MrEthical07/goGuard/password"
	"github.com/MrEthical07/goGuard/rules"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. It is configured during initialization and
// consumed by a single call to Build.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	directory UserDirectory
	verifier  PasswordVerifier
	auditSink AuditSink
	logger    *slog.Logger
	clock     func() time.Time

	rules    []rules.Rule
	rulesSet bool

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the configuration with a copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the client used by the login throttle. Without it
// Build dials RateLimit.RedisAddr when rate limiting is enabled.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserDirectory sets the user store. It is required.
func (b *Builder) WithUserDirectory(dir UserDirectory) *Builder {
	b.directory = dir
	return b
}

// WithPasswordVerifier overrides the verifier built from Config.Password.
func (b *Builder) WithPasswordVerifier(v PasswordVerifier) *Builder {
	b.verifier = v
	return b
}

// WithAuditSink sets the audit destination. Audit.Enabled must also be set;
// an enabled audit without a sink logs events through the engine logger.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the logger for operational warnings. The default discards.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides time.Now for token issuance and verification.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithRules sets the authorization rules in priority order, replacing any
// rules from Config.Rules.
func (b *Builder) WithRules(rs ...rules.Rule) *Builder {
	b.rules = append([]rules.Rule(nil), rs...)
	b.rulesSet = true
	return b
}

// WithMetricsEnabled toggles the Prometheus collectors.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the verification latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.directory == nil {
		return nil, errors.New("user directory required")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	// -------- TOKEN CODEC --------
	tokens, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		Secret:        cfg.JWT.Secret,
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	// -------- RULE TABLE --------
	var table *rules.Table
	if b.rulesSet {
		table, err = rules.NewTable(b.rules...)
	} else {
		table, err = compileRules(cfg.Rules)
	}
	if err != nil {
		return nil, err
	}

	// -------- PASSWORD VERIFIER --------
	verifier := b.verifier
	if verifier == nil {
		verifier, err = newDefaultVerifier(cfg.Password, cfg.Security.MaxCredentialBytes)
		if err != nil {
			return nil, err
		}
	}

	var dummyHash string
	if cfg.Security.EqualizeUnknownUserTiming {
		if h, ok := verifier.(interface{ Hash(string) (string, error) }); ok {
			dummyHash, err = h.Hash("goguard-timing-equalization")
			if err != nil {
				return nil, err
			}
		}
	}

	// -------- LOGIN THROTTLE --------
	var limiter *rate.Limiter
	if cfg.RateLimit.Enabled {
		client := b.redis
		if client == nil {
			if cfg.RateLimit.RedisAddr == "" {
				return nil, errors.New("RateLimit requires a redis client or RedisAddr")
			}
			client = redis.NewClient(&redis.Options{Addr: cfg.RateLimit.RedisAddr})
		}
		limiter = rate.New(client, rate.Config{
			EnableIPThrottle:      cfg.RateLimit.EnableIPThrottle,
			MaxLoginAttempts:      cfg.RateLimit.MaxLoginAttempts,
			LoginCooldownDuration: cfg.RateLimit.LoginCooldownDuration,
			KeyPrefix:             cfg.RateLimit.RedisPrefix,
		})
	}

	// -------- AUDIT --------
	sink := b.auditSink
	if sink == nil && cfg.Audit.Enabled {
		sink = NewSlogSink(logger)
	}
	dispatcher := internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		Retain:     []string{auditEventLoginSuccess},
		Now:        clock,
	}, sink)

	b.built = true

	return &Engine{
		config:    cfg,
		tokens:    tokens,
		table:     table,
		directory: b.directory,
		verifier:  verifier,
		dummyHash: dummyHash,
		limiter:   limiter,
		audit:     dispatcher,
		metrics:   NewMetrics(cfg.Metrics),
		logger:    logger,
		now:       clock,
	}, nil
}

func newDefaultVerifier(cfg PasswordConfig, maxBytes int) (*password.Multi, error) {
	argon, err := password.NewArgon2(password.Config{
		Memory:           cfg.Memory,
		Time:             cfg.Time,
		Parallelism:      cfg.Parallelism,
		SaltLength:       cfg.SaltLength,
		KeyLength:        cfg.KeyLength,
		MaxPasswordBytes: maxBytes,
	})
	if err != nil {
		return nil, err
	}
	bc, err := password.NewBcrypt(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	return &password.Multi{
		Argon2:    argon,
		Bcrypt:    bc,
		Preferred: password.Scheme(cfg.Scheme),
	}, nil
}

// NewPasswordHasher returns the verifier Build would install for cfg. New
// hashes use cfg.Password.Scheme; provisioning tools use it to seed users.
func NewPasswordHasher(cfg Config) (*password.Multi, error) {
	return newDefaultVerifier(cfg.Password, cfg.Security.MaxCredentialBytes)
}
