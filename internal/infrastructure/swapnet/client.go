package swapnet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	domainerrors "swap-route.backend/internal/domain/errors"
	"swap-route.backend/pkg/metrics"
)

// Client wraps the external swap network's quote/deposit/status API. It holds
// no local state; all lifecycle decisions belong to the callers.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new swap network client
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// DryQuote requests an estimation-only quote. It never produces a deposit
// address. A 4xx from the network means "route unsupported" and surfaces as
// ErrNoRouteAvailable, which is the companion router's trigger, not a fault.
func (c *Client) DryQuote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	req.Dry = true
	return c.quote(ctx, req)
}

// LiveQuote creates a real intent with the network and returns its deposit
// address. A non-empty refund address is mandatory: funds sent to a deposit
// address with nowhere to bounce back to would be stranded on failure.
func (c *Client) LiveQuote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	if req.RefundTo == "" {
		return nil, domainerrors.ErrMissingRefundAddress
	}
	req.Dry = false
	return c.quote(ctx, req)
}

func (c *Client) quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v0/quote", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.SwapNetworkErrors.WithLabelValues("quote").Inc()
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrNetworkTimeout, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, fmt.Errorf("%w: %s", domainerrors.ErrNoRouteAvailable, string(respBody))
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		metrics.SwapNetworkErrors.WithLabelValues("quote").Inc()
		return nil, fmt.Errorf("swap network quote failed: status %d", resp.StatusCode)
	}

	var qr quoteResponse
	if err := json.Unmarshal(respBody, &qr); err != nil {
		return nil, err
	}

	return qr.toQuote()
}

// GetStatus returns the network's current view of the intent correlated to
// depositAddress, normalized into the closed status set.
func (c *Client) GetStatus(ctx context.Context, depositAddress string) (*StatusResult, error) {
	endpoint := c.baseURL + "/v0/status?depositAddress=" + url.QueryEscape(depositAddress)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.SwapNetworkErrors.WithLabelValues("status").Inc()
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrNetworkTimeout, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.SwapNetworkErrors.WithLabelValues("status").Inc()
		return nil, fmt.Errorf("swap network status failed: status %d", resp.StatusCode)
	}

	var sr statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, err
	}

	return NewStatusResult(sr.Status), nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
