package rarible

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aescanero/lazymint/pkg/domain"
	"go.uber.org/zap"
)

const lazyMintPath = "/lazy-mint"

// Config holds marketplace client configuration
type Config struct {
	// APIURL is the base URL of the lazy-mint API
	APIURL     string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client implements ports.Marketplace over HTTP
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// tokenFields is the part of the response the service relies on
type tokenFields struct {
	TokenAddress looseString `json:"tokenAddress"`
	TokenID      looseString `json:"tokenId"`
}

// looseString accepts a JSON string or number. Anything else decodes as empty.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = looseString(str)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(b, &num); err == nil {
		*s = looseString(num.String())
		return nil
	}

	*s = ""
	return nil
}

// envelope covers the response shapes seen from lazy-mint backends: the
// token fields nested under data.result, under result, or at the top level.
type envelope struct {
	Data *struct {
		Result *tokenFields `json:"result"`
	} `json:"data"`
	Result *tokenFields `json:"result"`
	tokenFields
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewClient creates a new marketplace client
func NewClient(cfg *Config) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("marketplace API URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// RegisterLazyMint submits req and returns the minted token reference
func (c *Client) RegisterLazyMint(ctx context.Context, req domain.MintRequest) (*domain.MintResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mint request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+lazyMintPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build mint request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-API-Key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("lazy mint request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read lazy mint response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil {
			if env.Error != "" {
				return nil, fmt.Errorf("lazy mint rejected: %s", env.Error)
			}
			if env.Message != "" {
				return nil, fmt.Errorf("lazy mint rejected: %s", env.Message)
			}
		}
		return nil, fmt.Errorf("lazy mint rejected: unexpected status %d", resp.StatusCode)
	}

	// The mint is registered once the backend accepts it; an unreadable body
	// only costs the display link.
	if decodeErr != nil {
		c.logger.Warn("lazy mint response not understood",
			zap.String("token_uri", req.TokenURI),
			zap.Error(decodeErr))

		result := &domain.MintResult{}
		if json.Valid(raw) {
			result.Raw = json.RawMessage(raw)
		}
		return result, nil
	}

	fields := env.tokenFields
	switch {
	case env.Data != nil && env.Data.Result != nil:
		fields = *env.Data.Result
	case env.Result != nil:
		fields = *env.Result
	}

	c.logger.Debug("lazy mint registered",
		zap.String("chain", req.Chain),
		zap.String("token_uri", req.TokenURI),
		zap.String("token_address", string(fields.TokenAddress)),
		zap.String("token_id", string(fields.TokenID)),
		zap.Duration("duration", time.Since(start)))

	return &domain.MintResult{
		TokenAddress: string(fields.TokenAddress),
		TokenID:      string(fields.TokenID),
		Raw:          json.RawMessage(raw),
	}, nil
}
