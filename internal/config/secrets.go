package config

// RedactedConfig returns a copy of cfg with credentials replaced by "***",
// for logging the active configuration.
func RedactedConfig(cfg *Config) Config {
	out := *cfg
	out.Backtest.Strategies = append([]string(nil), cfg.Backtest.Strategies...)

	redact(&out.Storage.PostgresDSN)
	redact(&out.Storage.ClickhouseDSN)
	redact(&out.Archive.AccessKey)
	redact(&out.Archive.SecretKey)

	return out
}

func redact(s *string) {
	if *s != "" {
		*s = "***"
	}
}
