package client

import (
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/zfogg/sidechain/reels/pkg/config"
	"github.com/zfogg/sidechain/reels/pkg/logger"
)

const userAgent = "Sidechain-Reels/0.1.0"

var httpClient *resty.Client

// New builds a configured client for baseURL. Every request carries an
// X-Request-ID so toggles can be traced through server logs.
func New(baseURL string, timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetBaseURL(baseURL)
	c.SetTimeout(timeout)
	c.SetHeader("User-Agent", userAgent)
	c.SetHeader("Accept", "application/json")

	c.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		if req.Header.Get("X-Request-ID") == "" {
			req.Header.Set("X-Request-ID", uuid.NewString())
		}
		logger.Debug("HTTP Request", "method", req.Method, "url", req.URL, "request_id", req.Header.Get("X-Request-ID"))
		return nil
	})

	c.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		logger.Debug("HTTP Response", "status", resp.StatusCode(), "elapsed", resp.Time())
		return nil
	})
	return c
}

// Init initializes the shared HTTP client from config
func Init() {
	httpClient = New(config.GetString("api.base_url"), time.Duration(config.GetInt("api.timeout"))*time.Second)
	if token := config.GetString("api.token"); token != "" {
		httpClient.SetAuthToken(token)
	}
}

// GetClient returns the HTTP client
func GetClient() *resty.Client {
	if httpClient == nil {
		Init()
	}
	return httpClient
}

// SetAuthToken sets the authorization token
func SetAuthToken(token string) {
	GetClient().SetAuthToken(token)
}
