package config

import (
	"os"
	"strings"
)

// Config holds the kiosk daemon's runtime configuration, resolved from the
// environment. Optional integrations (Kafka, Redis, S3) stay disabled when
// their variables are unset.
type Config struct {
	Port     string
	MediaDir string

	// States is the declared behavioral state set, in order. The first
	// entry is not required to be the default; DefaultState always is.
	States []string

	// Kafka control-event ingress (optional)
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// Redis state persistence (optional)
	RedisAddr string
	RedisPass string

	// S3 media sync (optional)
	S3Bucket       string
	S3Prefix       string
	S3Region       string
	S3Profile      string
	S3UsePathStyle bool
}

// Load resolves configuration from the environment.
func Load() Config {
	cfg := Config{
		Port:     GetEnvOrDefault("PORT", "8080"),
		MediaDir: GetEnvOrDefault("MEDIA_DIR", "media"),
		States:   parseStates(os.Getenv("KIOSK_STATES")),

		KafkaTopic:   GetEnvOrDefault("KAFKA_CONTROL_TOPIC", "kiosk.control"),
		KafkaGroupID: GetEnvOrDefault("KAFKA_GROUP_ID", "kiosk-agent"),

		RedisAddr: strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPass: os.Getenv("REDIS_PASS"),

		S3Bucket:       strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3Region:       strings.TrimSpace(os.Getenv("S3_REGION")),
		S3Profile:      strings.TrimSpace(os.Getenv("S3_PROFILE")),
		S3UsePathStyle: strings.EqualFold(strings.TrimSpace(os.Getenv("S3_USE_PATH_STYLE")), "true"),
	}

	if brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if prefix := strings.TrimSpace(os.Getenv("S3_PREFIX")); prefix != "" {
		cfg.S3Prefix = strings.Trim(prefix, "/") + "/"
	}

	return cfg
}

// parseStates parses a comma-separated state list, falling back to the
// compiled-in set. The default state is always included.
func parseStates(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return append([]string(nil), DefaultStates...)
	}

	states := make([]string, 0, 8)
	seen := map[string]bool{}
	for _, s := range strings.Split(raw, ",") {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		states = append(states, s)
	}

	if !seen[DefaultState] {
		states = append([]string{DefaultState}, states...)
	}
	return states
}

// GetEnvOrDefault returns the value of an environment variable or a default value
func GetEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
