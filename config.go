package goSession

import (
	"errors"
	"net/url"
	"strings"

	"github.com/Unicash-organization/goSession/credential"
	"github.com/Unicash-organization/goSession/fingerprint"
)

// Config defines engine behavior. Obtain defaults with [DefaultConfig] or
// [ConfigFromEnv] and adjust before passing to [Builder.WithConfig].
type Config struct {
	Storage   StorageConfig
	Processor ProcessorConfig
	Payment   PaymentConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageConfig names the durable keys the engine owns.
type StorageConfig struct {
	CredentialKey  string
	FingerprintKey string
}

/*
====================================
PROCESSOR CONFIG
====================================
*/

// ProcessorConfig describes the payment processor's footprint in storage.
type ProcessorConfig struct {
	// StorageNamespaces are key prefixes the processor's client-side SDK writes
	// to. Every key under them is purged on logout.
	StorageNamespaces []string
}

/*
====================================
PAYMENT CONFIG
====================================
*/

// PaymentConfig controls payment flows created by the engine.
type PaymentConfig struct {
	// ReturnURL is handed to the processor for redirect-based confirmation.
	ReturnURL string
	// RefreshOnComplete revalidates the session after a successful Finalize so
	// the profile reflects the new default card.
	RefreshOnComplete bool
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process metrics.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			CredentialKey:  credential.DefaultKey,
			FingerprintKey: fingerprint.DefaultKey,
		},
		Processor: ProcessorConfig{
			StorageNamespaces: []string{"__stripe_"},
		},
		Payment: PaymentConfig{
			ReturnURL:         "",
			RefreshOnComplete: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Processor.StorageNamespaces != nil {
		out.Processor.StorageNamespaces = append([]string(nil), cfg.Processor.StorageNamespaces...)
	}
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	// Storage
	if strings.TrimSpace(c.Storage.CredentialKey) == "" {
		return errors.New("Storage CredentialKey must be set")
	}
	if strings.TrimSpace(c.Storage.FingerprintKey) == "" {
		return errors.New("Storage FingerprintKey must be set")
	}
	if c.Storage.CredentialKey == c.Storage.FingerprintKey {
		return errors.New("Storage CredentialKey and FingerprintKey must differ")
	}

	// Processor
	for _, ns := range c.Processor.StorageNamespaces {
		if strings.TrimSpace(ns) == "" {
			return errors.New("Processor StorageNamespaces must not contain empty prefixes")
		}
		if strings.HasPrefix(c.Storage.CredentialKey, ns) || strings.HasPrefix(c.Storage.FingerprintKey, ns) {
			return errors.New("Processor StorageNamespaces must not cover engine-owned keys")
		}
	}

	// Payment
	if c.Payment.ReturnURL != "" {
		u, err := url.Parse(c.Payment.ReturnURL)
		if err != nil || u.Scheme == "" {
			return errors.New("Payment ReturnURL must be an absolute URL")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
