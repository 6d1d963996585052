package ipfs

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aescanero/lazymint/pkg/adapters/cidutil"
	"github.com/aescanero/lazymint/pkg/domain"
	shell "github.com/ipfs/go-ipfs-api"
	"go.uber.org/zap"
)

// Config holds IPFS client configuration
type Config struct {
	// APIURL is the Kubo RPC endpoint, e.g. http://localhost:5001
	APIURL string
	// ProjectID and ProjectSecret enable basic auth for hosted pinning gateways.
	ProjectID     string
	ProjectSecret string
	Timeout       time.Duration
	HTTPClient    *http.Client
	Logger        *zap.Logger
}

// ContentStore implements ports.ContentStore against the Kubo RPC API.
// Files are added as CIDv1 with raw leaves and pinned.
type ContentStore struct {
	shell  *shell.Shell
	logger *zap.Logger
}

// basicAuthTransport adds project credentials to every RPC call
type basicAuthTransport struct {
	user, secret string
	next         http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.user, t.secret)
	return t.next.RoundTrip(req)
}

// NewContentStore creates a new IPFS content store client
func NewContentStore(cfg *Config) (*ContentStore, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("ipfs API URL is required")
	}
	if _, err := url.Parse(cfg.APIURL); err != nil {
		return nil, fmt.Errorf("invalid ipfs API URL: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	if cfg.ProjectID != "" {
		next := httpClient.Transport
		if next == nil {
			next = http.DefaultTransport
		}
		authed := *httpClient
		authed.Transport = &basicAuthTransport{user: cfg.ProjectID, secret: cfg.ProjectSecret, next: next}
		httpClient = &authed
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ContentStore{
		shell:  shell.NewShellWithClient(strings.TrimRight(cfg.APIURL, "/"), httpClient),
		logger: logger,
	}, nil
}

type addResult struct {
	hash string
	err  error
}

// Put adds data to IPFS and returns the resulting CID. The filename is
// recorded in logs only; the CID covers the bytes alone.
func (s *ContentStore) Put(ctx context.Context, data []byte, filename string) (domain.ContentAddress, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	start := time.Now()
	done := make(chan addResult, 1)
	go func() {
		hash, err := s.shell.Add(bytes.NewReader(data),
			shell.CidVersion(1),
			shell.RawLeaves(true),
			shell.Pin(true))
		done <- addResult{hash: hash, err: err}
	}()

	var res addResult
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res = <-done:
	}

	if res.err != nil {
		return "", fmt.Errorf("ipfs add failed: %w", res.err)
	}
	if res.hash == "" {
		return "", fmt.Errorf("ipfs response carried no hash")
	}

	id, err := cidutil.Validate(res.hash)
	if err != nil {
		return "", fmt.Errorf("ipfs returned invalid cid %q: %w", res.hash, err)
	}

	s.logger.Debug("content stored",
		zap.String("filename", filename),
		zap.String("cid", id.String()),
		zap.Int("bytes", len(data)),
		zap.Duration("duration", time.Since(start)))

	return domain.ContentAddress(id.String()), nil
}
