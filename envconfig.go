package goSession

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// DefaultEnvPrefix prefixes every variable read by ConfigFromEnv.
const DefaultEnvPrefix = "GOSESSION"

// Environment variable suffixes understood by ConfigFromEnv.
const (
	envCredentialKey      = "CREDENTIAL_KEY"
	envFingerprintKey     = "FINGERPRINT_KEY"
	envProcessorNamespace = "PROCESSOR_NAMESPACES"
	envPaymentReturnURL   = "PAYMENT_RETURN_URL"
	envRefreshOnComplete  = "PAYMENT_REFRESH_ON_COMPLETE"
	envAuditEnabled       = "AUDIT_ENABLED"
	envAuditBufferSize    = "AUDIT_BUFFER_SIZE"
	envAuditDropIfFull    = "AUDIT_DROP_IF_FULL"
	envMetricsEnabled     = "METRICS_ENABLED"
	envMetricsLatency     = "METRICS_LATENCY_HISTOGRAMS"
)

// ConfigFromEnv reads .env (if present) and the environment on top of the
// defaults. Environment variables override .env. An empty prefix uses
// DefaultEnvPrefix; PROCESSOR_NAMESPACES is comma-separated.
func ConfigFromEnv(prefix string) (Config, error) {
	return configFromViper(newEnvViper(".env"), prefix)
}

func newEnvViper(dotenv string) *viper.Viper {
	v := viper.New()
	if dotenv != "" {
		v.SetConfigFile(dotenv)
		v.SetConfigType("env")
		_ = v.ReadInConfig() // missing .env is fine
	}
	v.AutomaticEnv()
	return v
}

func configFromViper(v *viper.Viper, prefix string) (Config, error) {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), "_")
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	key := func(suffix string) string { return prefix + "_" + suffix }

	cfg := defaultConfig()
	v.SetDefault(key(envCredentialKey), cfg.Storage.CredentialKey)
	v.SetDefault(key(envFingerprintKey), cfg.Storage.FingerprintKey)
	v.SetDefault(key(envProcessorNamespace), strings.Join(cfg.Processor.StorageNamespaces, ","))
	v.SetDefault(key(envPaymentReturnURL), cfg.Payment.ReturnURL)
	v.SetDefault(key(envRefreshOnComplete), cfg.Payment.RefreshOnComplete)
	v.SetDefault(key(envAuditEnabled), cfg.Audit.Enabled)
	v.SetDefault(key(envAuditBufferSize), cfg.Audit.BufferSize)
	v.SetDefault(key(envAuditDropIfFull), cfg.Audit.DropIfFull)
	v.SetDefault(key(envMetricsEnabled), cfg.Metrics.Enabled)
	v.SetDefault(key(envMetricsLatency), cfg.Metrics.EnableLatencyHistograms)

	cfg.Storage.CredentialKey = strings.TrimSpace(v.GetString(key(envCredentialKey)))
	cfg.Storage.FingerprintKey = strings.TrimSpace(v.GetString(key(envFingerprintKey)))
	cfg.Processor.StorageNamespaces = splitList(v.GetString(key(envProcessorNamespace)))
	cfg.Payment.ReturnURL = strings.TrimSpace(v.GetString(key(envPaymentReturnURL)))
	cfg.Payment.RefreshOnComplete = v.GetBool(key(envRefreshOnComplete))
	cfg.Audit.Enabled = v.GetBool(key(envAuditEnabled))
	cfg.Audit.BufferSize = v.GetInt(key(envAuditBufferSize))
	cfg.Audit.DropIfFull = v.GetBool(key(envAuditDropIfFull))
	cfg.Metrics.Enabled = v.GetBool(key(envMetricsEnabled))
	cfg.Metrics.EnableLatencyHistograms = v.GetBool(key(envMetricsLatency))

	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Join(errors.New("config: invalid environment"), err)
	}
	return cfg, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
