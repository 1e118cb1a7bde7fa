package bytewatt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/anicoll/bytewatt-integration/internal/pkg/model"
	"github.com/anicoll/bytewatt-integration/internal/pkg/retry"
	"go.uber.org/zap"
)

// GetBatteryData fetches the latest power snapshot. A missing token is
// acquired up front; transient faults, malformed bodies and network errors
// are retried on a fixed delay, an expired token is refreshed and retried
// immediately. Exhausting the budget surfaces ErrUpdateFailed wrapping the
// last cause.
func (s *service) GetBatteryData(ctx context.Context) (model.Snapshot, error) {
	if !s.hasToken() {
		if err := s.Authenticate(ctx); err != nil {
			return nil, err
		}
	}

	snapshot, err := retry.Do(ctx, retry.Policy{
		MaxAttempts: maxAttempts,
		Delay:       retryDelay,
		Classify:    classify,
	}, s.fetchPowerData)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUpdateFailed, err)
	}
	return snapshot, nil
}

// classify routes a failed attempt. A 401-triggered errTokenExpired has
// already re-authenticated in-band, so it retries without burning the
// backoff delay. Everything else, including an in-band re-login failure,
// waits the fixed delay, the next attempt may recover.
func classify(err error) retry.Class {
	if errors.Is(err, errTokenExpired) {
		return retry.Immediate
	}
	return retry.Retryable
}

func (s *service) fetchPowerData(ctx context.Context) (model.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+powerDataPath, nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("sys_sn", "All")
	q.Set("noLoading", "true")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("authtimestamp", strconv.FormatInt(s.authTimestamp, 10))
	req.Header.Set("authsignature", s.authSignature)
	req.Header.Set("Authorization", "Bearer "+s.token)

	res, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == http.StatusUnauthorized {
		s.logger.Info("access token expired, re-authenticating")
		s.invalidateToken()
		if err := s.Authenticate(ctx); err != nil {
			return nil, err
		}
		return nil, errTokenExpired
	}

	var parsed powerDataResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedFormat, err)
	}
	if parsed.Code == transientNetworkCode {
		return nil, fmt.Errorf("%w: code %d", ErrTransient, parsed.Code)
	}

	snapshot, err := parseSnapshot(parsed.Data)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("fetched power data", zap.Int("fields", len(snapshot)))
	return snapshot, nil
}

// parseSnapshot tolerantly converts the data object into field→value
// readings. Non-numeric fields (serial numbers, status strings) are
// skipped; an absent, empty or wholly non-numeric object is an error so a
// partial snapshot is never handed to readers.
func parseSnapshot(raw json.RawMessage) (model.Snapshot, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: response carried no data object", ErrUnexpectedFormat)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedFormat, err)
	}

	snapshot := make(model.Snapshot, len(fields))
	for name, value := range fields {
		switch v := value.(type) {
		case float64:
			snapshot[name] = v
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				snapshot[name] = f
			}
		}
	}
	if len(snapshot) == 0 {
		return nil, fmt.Errorf("%w: data object carried no numeric fields", ErrUnexpectedFormat)
	}
	return snapshot, nil
}
