// Package gateway is the REST client for the marketplace backend: M-Pesa
// push payments and referral code lookups.
package gateway

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

var (
	// ErrTransport means the request never completed
	ErrTransport = errors.New("gateway: backend unreachable")
	// ErrUnexpectedResponse means the backend answered with a status or
	// payload the caller cannot interpret
	ErrUnexpectedResponse = errors.New("gateway: unexpected response")
)

// Client talks to the marketplace REST API
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient creates a client for the API rooted at baseURL
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	http := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{http: http, logger: logger}
}

// decode unmarshals a response body, treating an empty body as an empty object.
// Responses are decoded here rather than through resty SetResult/SetError:
// the backend uses one body shape for success and error statuses, sends
// empty bodies on some errors and mixes string and number ids, and a body
// that fails to parse must still yield its status code.
func decode(body []byte, v interface{}) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}

// flexString accepts both JSON strings and numbers
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
