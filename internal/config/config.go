package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "BOXDPICK_"

// Storage backends for the shortlist.
const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Recommendation service
	APIURL         string        // base URL, "/movies" is appended
	APITimeout     time.Duration // per request, the service scrapes watchlists
	SubmitWait     time.Duration // how long POST /api/submit holds the response before answering 202
	NumMovies      int           // initial number of suggestions (1-5)
	UseCache       bool          // initial use_cache flag
	NotifyDuration time.Duration // how long a notification stays visible

	// Circuit breaker around the service
	BreakerFailures    int           // consecutive transport failures before opening
	BreakerOpenTimeout time.Duration // time spent open before a probe request

	// Shortlist storage
	Storage      string // "sqlite" | "redis" | "memory"
	SQLitePath   string // ex: "/data/boxdpick.db"
	ShortlistKey string // name of the persisted shortlist

	// Redis (only when Storage == "redis")
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts   []string // optional, restrict the API to these Host headers (e.g. "localhost")
	AllowedOrigins []string // CORS origins for the browser client, empty = same origin only
	AllowedCIDRS   []string // optional, restrict probes to specific IPs (e.g. "10.0.0.0/8")
	TrustProxy     bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	SubmitPerMin   int      // submit tokens refilled per client IP per minute
	SubmitBurst    int      // submit bucket size per client IP
}

// fileDefaults holds values from BOXDPICK_CONFIG_FILE, keyed by the
// lower-cased variable name without prefix (api_url, storage, ...).
var fileDefaults map[string]string

func Load() *Config {
	// A missing .env is the normal case in containers.
	_ = godotenv.Load()

	fileDefaults = nil
	if path := os.Getenv(envPrefix + "CONFIG_FILE"); path != "" {
		defaults, err := readDefaultsFile(path)
		if err != nil {
			panic(fmt.Sprintf("❌ FATAL: cannot read config file %s: %v", path, err))
		}
		fileDefaults = defaults
	}

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("BOXDPICK_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("BOXDPICK_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("BOXDPICK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("BOXDPICK_PRETTY_LOG", true),

		// Recommendation service
		APIURL:         getenv("BOXDPICK_API_URL", "http://localhost:8000/api"),
		APITimeout:     mustDuration("BOXDPICK_API_TIMEOUT", 2*time.Minute),
		SubmitWait:     mustDuration("BOXDPICK_SUBMIT_WAIT", 25*time.Second),
		NumMovies:      getenvInt("BOXDPICK_NUM_MOVIES", 1),
		UseCache:       mustBool("BOXDPICK_USE_CACHE", true),
		NotifyDuration: mustDuration("BOXDPICK_NOTIFY_DURATION", 3*time.Second),

		BreakerFailures:    getenvInt("BOXDPICK_BREAKER_FAILURES", 3),
		BreakerOpenTimeout: mustDuration("BOXDPICK_BREAKER_OPEN_TIMEOUT", 30*time.Second),

		// Storage
		Storage:      strings.ToLower(getenv("BOXDPICK_STORAGE", StorageSQLite)),
		SQLitePath:   getenv("BOXDPICK_SQLITE_PATH", "boxdpick.db"),
		ShortlistKey: getenv("BOXDPICK_SHORTLIST_KEY", "default"),

		// Access restrictions
		AllowedHosts:   splitAndTrim(getenv("BOXDPICK_ALLOWED_HOSTS", "")),
		AllowedOrigins: splitAndTrim(getenv("BOXDPICK_ALLOWED_ORIGINS", "")),
		AllowedCIDRS:   parseAllowedIPs(getenv("BOXDPICK_ALLOWED_CIDRS", "")),
		TrustProxy:     mustBool("BOXDPICK_TRUST_PROXY", false),
		SubmitPerMin:   getenvInt("BOXDPICK_SUBMIT_PER_MIN", 30),
		SubmitBurst:    getenvInt("BOXDPICK_SUBMIT_BURST", 3),
	}

	switch cfg.Storage {
	case StorageSQLite, StorageMemory:
	case StorageRedis:
		loadRedis(cfg)
	default:
		panic(fmt.Sprintf("❌ FATAL: BOXDPICK_STORAGE must be sqlite, redis or memory, got %q", cfg.Storage))
	}

	if cfg.NumMovies < 1 || cfg.NumMovies > 5 {
		panic(fmt.Sprintf("❌ FATAL: BOXDPICK_NUM_MOVIES must be between 1 and 5, got %d", cfg.NumMovies))
	}

	if cfg.BreakerFailures < 1 {
		panic(fmt.Sprintf("❌ FATAL: BOXDPICK_BREAKER_FAILURES must be at least 1, got %d", cfg.BreakerFailures))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

func loadRedis(cfg *Config) {
	cfg.RedisAddr = requireEnv("BOXDPICK_REDIS_ADDR")
	cfg.RedisUser = getenv("BOXDPICK_REDIS_USERNAME", "default")
	cfg.RedisPasswordRequired = mustBool("BOXDPICK_REDIS_PASSWORD_REQUIRED", true)
	cfg.RedisPassword = getenv("BOXDPICK_REDIS_PASSWORD", "")
	cfg.RedisDB = requireEnvInt("BOXDPICK_REDIS_DB")
	cfg.RedisDT = mustDuration("BOXDPICK_REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.RedisRT = mustDuration("BOXDPICK_REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.RedisWT = mustDuration("BOXDPICK_REDIS_WRITE_TIMEOUT", 3*time.Second)
	cfg.RedisMaxWait = mustDuration("BOXDPICK_REDIS_MAX_WAIT", 10*time.Second)
	cfg.RedisPingTimeout = mustDuration("BOXDPICK_REDIS_PING_TIMEOUT", 5*time.Second)
	cfg.RedisPoolSize = getenvInt("BOXDPICK_REDIS_POOL_SIZE", 10)
	cfg.RedisConnectTimeout = mustDuration("BOXDPICK_REDIS_CONNECT_TIMEOUT", 30*time.Second)
	cfg.RedisRetryInterval = mustDuration("BOXDPICK_REDIS_RETRY_INTERVAL", 2*time.Second)
	cfg.RedisWarnThreshold = getenvInt("BOXDPICK_REDIS_WARN_THRESHOLD", 3)

	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: BOXDPICK_REDIS_PASSWORD is required when BOXDPICK_REDIS_PASSWORD_REQUIRED=true")
	}
}

// readDefaultsFile parses a flat YAML mapping. Nested values are rejected.
func readDefaultsFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseDefaults(data)
}

func parseDefaults(data []byte) (map[string]string, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			out[strings.ToLower(k)] = val
		case []any:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				parts = append(parts, fmt.Sprint(item))
			}
			out[strings.ToLower(k)] = strings.Join(parts, ",")
		case map[string]any:
			return nil, fmt.Errorf("key %q: nested mappings are not supported", k)
		default:
			out[strings.ToLower(k)] = fmt.Sprint(val)
		}
	}
	return out, nil
}

// helpers

// lookup reads key from the environment, then from the defaults file.
func lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if fileDefaults == nil {
		return ""
	}
	return fileDefaults[strings.ToLower(strings.TrimPrefix(key, envPrefix))]
}

func getenv(key, def string) string {
	if v := lookup(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := lookup(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := lookup(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func getenvInt(key string, def int) int {
	if v := lookup(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := lookup(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := lookup(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
