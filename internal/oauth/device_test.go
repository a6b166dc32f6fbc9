package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// deviceServer scripts a device authorization endpoint and its token
// endpoint poll responses.
type deviceServer struct {
	t             *testing.T
	pollResponses []endpointResponse
	pollForms     []url.Values
	interval      int64
	expiresIn     int64
	server        *httptest.Server
}

func newDeviceServer(t *testing.T, pollResponses ...endpointResponse) *deviceServer {
	d := &deviceServer{t: t, pollResponses: pollResponses, expiresIn: 600}
	mux := http.NewServeMux()
	mux.HandleFunc("/device", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))

		w.Header().Set("Content-Type", "application/json")
		body := `{"device_code":"dev-123","user_code":"ABCD-EFGH",` +
			`"verification_uri":"https://as.example.com/activate",` +
			`"expires_in":` + itoa(d.expiresIn)
		if d.interval > 0 {
			body += `,"interval":` + itoa(d.interval)
		}
		body += `}`
		_, _ = w.Write([]byte(body))
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		d.pollForms = append(d.pollForms, r.PostForm)

		require.NotEmpty(t, d.pollResponses, "unexpected extra poll")
		next := d.pollResponses[0]
		d.pollResponses = d.pollResponses[1:]

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(next.status)
		_, _ = w.Write([]byte(next.body))
	})
	d.server = httptest.NewServer(mux)
	t.Cleanup(d.server.Close)
	return d
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func (d *deviceServer) client() *Client {
	return &Client{
		Name:          "tv-app",
		ID:            "client-id",
		TokenURL:      d.server.URL + "/token",
		DeviceAuthURL: d.server.URL + "/device",
	}
}

// instantFlow returns a DeviceFlow whose poll sleeps complete immediately
// while recording the interval they were asked to wait.
func instantFlow(intervals *[]time.Duration) *DeviceFlow {
	return &DeviceFlow{
		Logger: zap.NewNop(),
		wait: func(ctx context.Context, d time.Duration) error {
			if intervals != nil {
				*intervals = append(*intervals, d)
			}
			return ctx.Err()
		},
	}
}

func TestDeviceFlow(t *testing.T) {
	t.Run("pending then approved", func(t *testing.T) {
		server := newDeviceServer(t,
			oauthError(http.StatusBadRequest, "authorization_pending"),
			oauthError(http.StatusBadRequest, "authorization_pending"),
			okToken("device-token"),
		)

		var promptedCode, promptedURI string
		flow := instantFlow(nil)
		flow.Prompt = func(userCode, verificationURI string) {
			promptedCode, promptedURI = userCode, verificationURI
		}

		token, err := flow.Execute(context.Background(), server.client())
		require.NoError(t, err)
		assert.Equal(t, "device-token", token.AccessToken)
		assert.Equal(t, "ABCD-EFGH", promptedCode)
		assert.Equal(t, "https://as.example.com/activate", promptedURI)

		require.Len(t, server.pollForms, 3)
		form := server.pollForms[0]
		assert.Equal(t, deviceGrantType, form.Get("grant_type"))
		assert.Equal(t, "dev-123", form.Get("device_code"))
	})

	t.Run("slow_down stretches the poll interval", func(t *testing.T) {
		server := newDeviceServer(t,
			oauthError(http.StatusBadRequest, "slow_down"),
			oauthError(http.StatusBadRequest, "slow_down"),
			okToken("device-token"),
		)
		server.interval = 5

		var intervals []time.Duration
		flow := instantFlow(&intervals)

		_, err := flow.Execute(context.Background(), server.client())
		require.NoError(t, err)

		require.Len(t, intervals, 3)
		assert.Equal(t, 5*time.Second, intervals[0])
		assert.Equal(t, 10*time.Second, intervals[1], "each slow_down adds five seconds")
		assert.Equal(t, 15*time.Second, intervals[2])
	})

	t.Run("expired device code", func(t *testing.T) {
		server := newDeviceServer(t,
			oauthError(http.StatusBadRequest, "expired_token"),
		)

		flow := instantFlow(nil)
		_, err := flow.Execute(context.Background(), server.client())
		assert.ErrorIs(t, err, ErrFlowTimeout)
	})

	t.Run("user denied", func(t *testing.T) {
		server := newDeviceServer(t,
			oauthError(http.StatusBadRequest, "access_denied"),
		)

		flow := instantFlow(nil)
		_, err := flow.Execute(context.Background(), server.client())

		var pe *ProtocolError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "access_denied", pe.Code)
	})

	t.Run("attempt cap", func(t *testing.T) {
		server := newDeviceServer(t,
			oauthError(http.StatusBadRequest, "authorization_pending"),
			oauthError(http.StatusBadRequest, "authorization_pending"),
			oauthError(http.StatusBadRequest, "authorization_pending"),
		)

		flow := instantFlow(nil)
		flow.MaxAttempts = 3
		_, err := flow.Execute(context.Background(), server.client())
		assert.ErrorIs(t, err, ErrFlowTimeout)
	})
}

func TestSleepContext(t *testing.T) {
	t.Run("completes", func(t *testing.T) {
		err := sleepContext(context.Background(), time.Millisecond)
		assert.NoError(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := sleepContext(ctx, time.Minute)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
