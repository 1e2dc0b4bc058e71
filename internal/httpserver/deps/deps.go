package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/boxdpick/internal/logger"
	"github.com/MrSnakeDoc/boxdpick/internal/session"
)

// Pinger reports whether a backing service answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BreakerState exposes the circuit breaker position ("closed", "open", "half-open").
type BreakerState interface {
	State() string
}

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time // for testing, defaults to time.Now
	AllowedHosts   []string         // Host headers allowed to reach the API, empty = any
	AllowedCIDRS   []string         // IPs allowed to access probes and /api/infra
	AllowedOrigins []string         // browser origins allowed for CORS and the websocket
	TrustProxy     bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)

	Session     *session.Session // the client state served by the API
	Storage     Pinger           // shortlist backend, nil for in-memory storage
	StorageName string           // "sqlite" | "redis" | "memory"
	Breaker     BreakerState     // nil when the recommender is not wrapped

	SubmitWait   time.Duration // max time POST /api/submit waits for the outcome
	SubmitBurst  int           // per-IP submit bucket size
	SubmitPerMin int           // per-IP submit refill rate
}
