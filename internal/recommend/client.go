package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/boxdpick/internal/domain"
	"github.com/MrSnakeDoc/boxdpick/internal/logger"
	"github.com/MrSnakeDoc/boxdpick/internal/utils"
	"github.com/MrSnakeDoc/boxdpick/internal/validation"
)

const (
	DefaultBaseURL   = "http://localhost:8000/api"
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "boxdpick/1.0"
	// Posters come back base64-inlined, so responses can be large.
	maxResponseBytes = 16 << 20
)

// Client talks to the recommendation service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     logger.Logger
}

// ClientConfig configures a Client. Zero values fall back to defaults.
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	Logger     logger.Logger
	HTTPClient *http.Client
}

// NewClient creates a Client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:          10,
				MaxIdleConnsPerHost:   2,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: cfg.HTTPClient,
		userAgent:  cfg.UserAgent,
		logger:     cfg.Logger,
	}
}

// Recommend sends one request. It never retries.
func (c *Client) Recommend(ctx context.Context, req Request) ([]domain.Movie, error) {
	if req.ExcludeIDs == nil {
		req.ExcludeIDs = []string{}
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/movies", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", requestID)

	log := c.logger.With(logger.String("request_id", requestID))
	log.Debug("requesting recommendations",
		logger.Strings("usernames", req.Usernames),
		logger.Int("num_movies", req.NumMovies),
		logger.Int("excluded", len(req.ExcludeIDs)),
		logger.Bool("use_cache", req.UseCache))

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Warn("recommendation service unreachable", logger.Error(err))
		return nil, &ConnectivityError{Err: err}
	}
	defer utils.Close(resp.Body)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &ConnectivityError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		svcErr := &ServiceError{StatusCode: resp.StatusCode, Detail: decodeDetail(data)}
		log.Info("recommendation service rejected request",
			logger.Int("status", resp.StatusCode),
			logger.String("detail", svcErr.Detail),
			logger.Duration("elapsed", time.Since(start)))
		return nil, svcErr
	}

	movies, err := decodeMovies(data)
	if err != nil {
		log.Warn("unreadable recommendation response", logger.Error(err))
		return nil, err
	}

	log.Info("recommendations received",
		logger.Int("count", len(movies)),
		logger.Duration("elapsed", time.Since(start)))
	return movies, nil
}

// decodeMovies accepts a bare array, {"movies": [...]}, or the legacy
// single-pick shape {"movie": {...} | null}.
func decodeMovies(data []byte) ([]domain.Movie, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var movies []domain.Movie
		if err := json.Unmarshal(trimmed, &movies); err != nil {
			return nil, fmt.Errorf("failed to decode movies: %w", err)
		}
		return nonNil(movies), nil
	}

	var envelope struct {
		Movies []domain.Movie `json:"movies"`
		Movie  *domain.Movie  `json:"movie"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode movies: %w", err)
	}
	if envelope.Movies == nil && envelope.Movie != nil {
		return []domain.Movie{*envelope.Movie}, nil
	}
	return nonNil(envelope.Movies), nil
}

func nonNil(movies []domain.Movie) []domain.Movie {
	if movies == nil {
		return []domain.Movie{}
	}
	return movies
}

// decodeDetail extracts the human readable "detail" of an error body.
// Request validation failures carry a list of {"msg": ...} objects instead
// of a string; their messages are joined.
func decodeDetail(data []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(body.Detail, &text); err == nil {
		return text
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
