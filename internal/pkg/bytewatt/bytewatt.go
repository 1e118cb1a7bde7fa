package bytewatt

import (
	"net/http"
	"time"

	"github.com/anicoll/bytewatt-integration/internal/pkg/config"
	"github.com/anicoll/bytewatt-integration/pkg/authsig"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://monitor.byte-watt.com"
	loginPath      = "/api/Account/Login"
	powerDataPath  = "/api/ESS/GetLastPowerDataBySN"

	requestTimeout = 5 * time.Second
	maxAttempts    = 3
	retryDelay     = 2 * time.Second

	// Vendor application-level code signalling a transient upstream
	// network failure.
	transientNetworkCode = 9007
)

type service struct {
	cfg     *config.ByteWattConfig
	client  *http.Client
	baseURL string
	logger  *zap.Logger

	// authTimestamp/authSignature are generated once per client instance
	// and reused for every request, matching the vendor portal.
	authTimestamp int64
	authSignature string

	// token is written only by Authenticate. All fetches are serialised
	// through the refresher's single-flight guarantee, so no lock is
	// needed around it.
	token string
}

func New(cfg *config.ByteWattConfig, opts ...Option) *service {
	ts := authsig.Timestamp()
	s := &service{
		cfg:           cfg,
		client:        &http.Client{Timeout: requestTimeout},
		baseURL:       defaultBaseURL,
		logger:        zap.L(),
		authTimestamp: ts,
		authSignature: authsig.Signature(ts),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Option func(*service)

// WithBaseURL overrides the vendor endpoint, used by tests.
func WithBaseURL(u string) Option {
	return func(s *service) {
		s.baseURL = u
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(s *service) {
		s.client = c
	}
}

func (s *service) hasToken() bool {
	return s.token != ""
}

// invalidateToken drops the token back to the unauthenticated state. The
// next fetch will re-authenticate before hitting the API.
func (s *service) invalidateToken() {
	s.token = ""
}
