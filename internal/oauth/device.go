package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	deviceGrantType = "urn:ietf:params:oauth:grant-type:device_code"

	// DefaultPollInterval is used when the server does not specify one.
	DefaultPollInterval = 5 * time.Second

	// slowDownIncrement is added to the poll interval on every "slow_down"
	// response, per RFC 8628.
	slowDownIncrement = 5 * time.Second

	// DefaultMaxPollAttempts caps the poll loop independently of the device
	// code lifetime, so a misbehaving server cannot pin the flow forever.
	DefaultMaxPollAttempts = 120
)

// deviceAuthResponse is the JSON body of a device authorization request.
type deviceAuthResponse struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete,omitempty"`
	ExpiresIn               int64  `json:"expires_in"`
	Interval                int64  `json:"interval,omitempty"`
}

// DeviceFlow implements the device authorization grant: obtain a user code,
// show it to the user, then poll the token endpoint until the user approves,
// the code expires, or the attempt cap is hit. "authorization_pending" is a
// normal intermediate state; "slow_down" stretches the poll interval.
type DeviceFlow struct {
	// Prompt presents the user code and verification URI. Required for a
	// human to complete the flow; when nil the values are only logged.
	Prompt func(userCode, verificationURI string)

	// MaxAttempts caps the poll loop. Defaults to DefaultMaxPollAttempts.
	MaxAttempts int

	// Transport performs the exchanges. Defaults to http.DefaultTransport.
	Transport http.RoundTripper

	Logger *zap.Logger

	// wait is the poll sleep, replaceable by tests.
	wait func(ctx context.Context, d time.Duration) error
}

// Kind implements Flow.
func (f *DeviceFlow) Kind() string { return "device" }

// Execute implements Flow.
func (f *DeviceFlow) Execute(ctx context.Context, client *Client) (*Token, error) {
	if err := client.Validate(); err != nil {
		return nil, err
	}

	ctx = ensureCorrelation(ctx)
	logger := flowLogger(ctx, f.Logger, f.Kind()).With(zap.String("client", client.Name))

	auth, err := f.requestDeviceCode(ctx, client)
	if err != nil {
		return nil, err
	}

	logger.Info("Device authorization started",
		zap.String("verification_uri", auth.VerificationURI),
		zap.Int64("expires_in", auth.ExpiresIn))
	if f.Prompt != nil {
		uri := auth.VerificationURIComplete
		if uri == "" {
			uri = auth.VerificationURI
		}
		f.Prompt(auth.UserCode, uri)
	}

	// The device code's own lifetime bounds the whole poll loop.
	if auth.ExpiresIn > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(auth.ExpiresIn)*time.Second)
		defer cancel()
	}

	interval := DefaultPollInterval
	if auth.Interval > 0 {
		interval = time.Duration(auth.Interval) * time.Second
	}

	maxAttempts := f.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxPollAttempts
	}

	wait := f.wait
	if wait == nil {
		wait = sleepContext
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := wait(ctx, interval); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, ErrFlowTimeout
			}
			return nil, err
		}

		form := url.Values{}
		form.Set("grant_type", deviceGrantType)
		form.Set("device_code", auth.DeviceCode)

		token, err := exchangeToken(ctx, f.Transport, client, client.TokenURL, form)
		if err == nil {
			logger.Info("Device authorization approved",
				zap.Int("attempts", attempt),
				zap.Time("expires_at", token.ExpiresAt))
			return token, nil
		}

		var pe *ProtocolError
		switch {
		case errors.As(err, &pe) && pe.Code == "authorization_pending":
			logger.Debug("Authorization pending", zap.Int("attempt", attempt))
		case errors.As(err, &pe) && pe.Code == "slow_down":
			interval += slowDownIncrement
			logger.Debug("Server requested slower polling",
				zap.Duration("interval", interval))
		case errors.As(err, &pe) && pe.Code == "expired_token":
			logger.Warn("Device code expired before approval")
			return nil, ErrFlowTimeout
		default:
			return nil, err
		}

		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrFlowTimeout
		}
	}

	return nil, ErrFlowTimeout
}

// requestDeviceCode performs the device authorization request.
func (f *DeviceFlow) requestDeviceCode(ctx context.Context, client *Client) (*deviceAuthResponse, error) {
	form := url.Values{}
	form.Set("client_id", client.ID)
	if scope := scopeValue(client); scope != "" {
		form.Set("scope", scope)
	}

	endpoint := client.deviceEndpoint()
	body, status, err := postForm(ctx, f.Transport, endpoint, form)
	if err != nil {
		return nil, &NetworkError{Endpoint: endpoint, Err: err}
	}
	if status < 200 || status >= 300 {
		return nil, decodeProtocolError(body, status)
	}

	var resp deviceAuthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("device authorization endpoint returned malformed response: %w", err)
	}
	if resp.DeviceCode == "" || resp.UserCode == "" {
		return nil, fmt.Errorf("device authorization response missing device_code or user_code")
	}
	return &resp, nil
}

// sleepContext blocks for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
