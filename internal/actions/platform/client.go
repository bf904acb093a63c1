package platform

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ggonzalez94/onchain-agent/internal/httpx"
)

const defaultBaseURL = "https://api.onchain-agent.dev"

// Client talks to the platform API. Every request carries the API key and an
// HMAC-SHA256 signature over timestamp, method, and path.
type Client struct {
	http      *httpx.Client
	baseURL   string
	apiKey    string
	apiSecret string
	now       func() time.Time
}

func NewClient(httpClient *httpx.Client, baseURL, apiKey, apiSecret string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:      httpClient,
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		apiSecret: apiSecret,
		now:       time.Now,
	}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	_, err := httpx.DoBodyJSON(ctx, c.http, http.MethodGet, c.baseURL+path, nil, c.authHeaders(http.MethodGet, path), out)
	return err
}

func (c *Client) post(ctx context.Context, path string, body []byte, out any) error {
	_, err := httpx.DoBodyJSON(ctx, c.http, http.MethodPost, c.baseURL+path, body, c.authHeaders(http.MethodPost, path), out)
	return err
}

func (c *Client) authHeaders(method, path string) map[string]string {
	ts := strconv.FormatInt(c.now().UTC().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	fmt.Fprintf(mac, "%s%s%s", ts, method, path)
	return map[string]string{
		"X-Api-Key":   c.apiKey,
		"X-Timestamp": ts,
		"X-Signature": hex.EncodeToString(mac.Sum(nil)),
	}
}
