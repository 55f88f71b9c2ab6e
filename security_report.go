package goGuard

import "time"

// SecurityReport summarizes the security-relevant settings an Engine was
// built with. It never includes key material.
type SecurityReport struct {
	SigningAlgorithm       string
	AccessTTL              time.Duration
	Leeway                 time.Duration
	IssuerPinned           bool
	AudiencePinned         bool
	PasswordScheme         string
	Argon2                 PasswordConfigReport
	BcryptCost             int
	UnknownUserTimingEqual bool
	RateLimitingActive     bool
	IPThrottleActive       bool
	MaxLoginAttempts       int
	AuditEnabled           bool
	MetricsEnabled         bool
	RuleCount              int
}

type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	report := SecurityReport{
		SigningAlgorithm: e.tokens.Algorithm(),
		AccessTTL:        e.config.JWT.AccessTTL,
		Leeway:           e.config.JWT.Leeway,
		IssuerPinned:     e.config.JWT.Issuer != "",
		AudiencePinned:   e.config.JWT.Audience != "",
		PasswordScheme:   e.config.Password.Scheme,
		Argon2: PasswordConfigReport{
			Memory:      e.config.Password.Memory,
			Time:        e.config.Password.Time,
			Parallelism: e.config.Password.Parallelism,
			SaltLength:  e.config.Password.SaltLength,
			KeyLength:   e.config.Password.KeyLength,
		},
		BcryptCost:             e.config.Password.BcryptCost,
		UnknownUserTimingEqual: e.dummyHash != "",
		RateLimitingActive:     e.limiter != nil,
		AuditEnabled:           e.audit != nil,
		MetricsEnabled:         e.metrics != nil,
		RuleCount:              e.table.Len(),
	}
	if e.limiter != nil {
		report.IPThrottleActive = e.config.RateLimit.EnableIPThrottle
		report.MaxLoginAttempts = e.config.RateLimit.MaxLoginAttempts
	}
	return report
}
