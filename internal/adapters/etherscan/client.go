package etherscan

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// DefaultAPIURL is the multichain Etherscan endpoint, selected per request
// with the chainid parameter
const DefaultAPIURL = "https://api.etherscan.io/v2/api"

// The free tier allows five calls per second
const defaultRate = 5

// GenericResp is the envelope of every Etherscan API answer
type GenericResp struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// Client talks to the Etherscan contract API
type Client struct {
	apiKey  string
	url     string
	http    *resty.Client
	limiter *rate.Limiter
}

// NewClient creates a new Etherscan client. A nil limiter uses the free-tier rate.
func NewClient(apiKey, url string, limiter *rate.Limiter) *Client {
	if url == "" {
		url = DefaultAPIURL
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(defaultRate), 1)
	}
	return &Client{
		apiKey:  apiKey,
		url:     url,
		limiter: limiter,
		http: resty.New().
			SetTimeout(30 * time.Second).
			SetHeader("Accept", "application/json"),
	}
}

// SetDebug enables request logging
func (c *Client) SetDebug(debug bool) *Client {
	c.http.SetDebug(debug)
	return c
}

// IsVerified reports whether the explorer holds the source of address
func (c *Client) IsVerified(ctx context.Context, chainID uint64, address common.Address) (bool, error) {
	resp, err := c.get(ctx, chainID, map[string]string{
		"module":  "contract",
		"action":  "getabi",
		"address": address.Hex(),
	})
	if err != nil {
		return false, err
	}

	if resp.Status == "1" {
		return true, nil
	}
	if strings.Contains(strings.ToLower(resp.Result), "not verified") {
		return false, nil
	}
	return false, fmt.Errorf("etherscan: %s: %s", resp.Message, resp.Result)
}

func (c *Client) get(ctx context.Context, chainID uint64, params map[string]string) (*GenericResp, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var out GenericResp
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("chainid", strconv.FormatUint(chainID, 10)).
		SetQueryParam("apikey", c.apiKey).
		SetResult(&out).
		Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("etherscan request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("etherscan returned HTTP %d", resp.StatusCode())
	}
	return &out, nil
}
