package bytewatt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Authenticate logs in against the byte-watt API and stores the returned
// bearer token. The token is only updated on success, a failed login never
// leaves a half-written token behind.
func (s *service) Authenticate(ctx context.Context) error {
	body, err := json.Marshal(loginRequest{
		Username: s.cfg.Username,
		Password: s.cfg.Password,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+loginPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	q := req.URL.Query()
	q.Set("authsignature", s.authSignature)
	q.Set("authtimestamp", strconv.FormatInt(s.authTimestamp, 10))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("%w: login returned status %d", ErrAuthentication, res.StatusCode)
	}

	var parsed loginResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	if parsed.Data.AccessToken == "" {
		return fmt.Errorf("%w: response carried no access token", ErrAuthentication)
	}

	s.token = parsed.Data.AccessToken
	if exp, ok := tokenExpiry(s.token); ok {
		s.logger.Info("authenticated against bytewatt api", zap.Time("token_expiry", exp))
	} else {
		s.logger.Info("authenticated against bytewatt api")
	}
	return nil
}

// tokenExpiry peeks at the token's exp claim without verifying the
// signature. Logging only, the server remains the authority on validity.
func tokenExpiry(raw string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
