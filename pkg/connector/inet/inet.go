// Package inet carries provisioning envelopes to a CA over HTTPS.
package inet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/attestation-tools/provision-command/internal/log"
	"github.com/attestation-tools/provision-command/pkg/connector"
)

// ErrNotConnected is returned by RoundTrip after Close.
var ErrNotConnected = errors.New("connection closed")

// ErrTokenExpired is returned before any network traffic when the configured
// bearer token is past its expiry claim.
var ErrTokenExpired = errors.New("bearer token expired")

type HttpError struct {
	Code    int
	Message string
}

func (e *HttpError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Code)
	}
	return e.Message
}

func (e *HttpError) Temporary() bool {
	return e.Code == http.StatusServiceUnavailable ||
		e.Code == http.StatusGatewayTimeout ||
		e.Code == http.StatusRequestTimeout ||
		e.Code == http.StatusTooManyRequests
}

// ReadWithContext reads from r into p until EOF, p is full, or ctx expires.
func ReadWithContext(ctx context.Context, r io.Reader, p []byte) ([]byte, error) {
	bytesRead := 0
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		n, err := r.Read(p[bytesRead:])
		bytesRead += n
		if err == io.EOF {
			return p[:bytesRead], nil
		}
		if err != nil {
			return p[:bytesRead], err
		}
		if bytesRead == len(p) {
			return p[:bytesRead], nil
		}
	}
}

// ValidBearerToken reports whether token parses as a JWT whose expiry claim,
// if present, has not passed. The signature is not checked here; the CA
// verifies it server-side.
func ValidBearerToken(token string) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil {
		return false
	}
	return exp == nil || time.Until(exp.Time) > 0
}

// Connection implements the connector.Connector interface by POSTing request
// envelopes to a CA endpoint.
type Connection struct {
	UserAgent string
	client    http.Client
	url       string
	authToken string
	closed    bool
}

// NewConnection creates a Connection that POSTs to url. authToken, when
// non-empty, is sent as a bearer token and checked for expiry before each
// request.
func NewConnection(url, authToken, userAgent string) *Connection {
	return &Connection{
		UserAgent: userAgent,
		client:    http.Client{},
		url:       url,
		authToken: authToken,
	}
}

func (c *Connection) RetryInterval() time.Duration {
	return time.Second
}

func (c *Connection) Close() {
	c.closed = true
}

// RoundTrip POSTs the request envelope as an octet stream and returns the
// response body.
func (c *Connection) RoundTrip(ctx context.Context, envelope []byte) ([]byte, error) {
	if c.closed {
		return nil, ErrNotConnected
	}
	if c.authToken != "" && !ValidBearerToken(c.authToken) {
		return nil, ErrTokenExpired
	}

	log.Debug("Sending %d-byte request to %s", len(envelope), c.url)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(envelope))
	if err != nil {
		return nil, err
	}
	request.Header.Set("User-Agent", c.UserAgent)
	request.Header.Set("Content-Type", "application/octet-stream")
	request.Header.Set("Accept", "application/octet-stream")
	if c.authToken != "" {
		request.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	result, err := c.client.Do(request)
	if err != nil {
		return nil, err
	}
	defer result.Body.Close()

	body := make([]byte, connector.MaxResponseLength+1)
	body, err = ReadWithContext(ctx, result.Body, body)
	if err != nil {
		return nil, err
	}
	if len(body) == connector.MaxResponseLength+1 {
		return nil, fmt.Errorf("response exceeds %d bytes", connector.MaxResponseLength)
	}

	log.Debug("CA returned %d: %s (%d bytes)", result.StatusCode, http.StatusText(result.StatusCode), len(body))
	if result.StatusCode != http.StatusOK {
		return nil, &HttpError{Code: result.StatusCode, Message: string(body)}
	}
	return body, nil
}
