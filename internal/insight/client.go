// Package insight is an HTTP JSON client for Insight and Blockbook block
// explorers.
//
// Reads follow a "no data" convention: a non-200 reply yields a nil value
// and a nil error, and transport failures wrap ErrUnavailable. Callers on a
// polling loop treat both as "nothing this tick".
package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/insightwallet/insightwallet/config"
	"github.com/insightwallet/insightwallet/internal/log"
)

// maxBody bounds how much of a reply is read.
const maxBody = 8 << 20

var (
	// ErrUnavailable wraps transport failures and timeouts.
	ErrUnavailable = errors.New("explorer unavailable")
	// ErrNoEndpoint is returned by New for a coin without an API URL.
	ErrNoEndpoint = errors.New("no explorer endpoint configured")
)

// StatusError is a non-200 reply.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("explorer returned %d: %s", e.Code, e.Body)
}

// Client talks to one coin's explorer.
type Client struct {
	base      string
	backend   config.Backend
	coin      string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// New creates a client for coin.
func New(coin *config.Coin, cc config.ChainConfig) (*Client, error) {
	if coin.API == "" {
		return nil, fmt.Errorf("%w for %s (set \"api\" in coins.json)", ErrNoEndpoint, coin.Symbol)
	}
	u, err := url.Parse(coin.API)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("coin %s: invalid api url %q", coin.Symbol, coin.API)
	}

	timeout := cc.Timeout
	if timeout <= 0 {
		timeout = config.DefaultChainTimeout
	}
	limit := rate.Inf
	if cc.RateLimit > 0 {
		limit = rate.Limit(cc.RateLimit)
	}
	burst := cc.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		base:      strings.TrimRight(coin.API, "/"),
		backend:   coin.Backend,
		coin:      coin.Symbol,
		userAgent: cc.UserAgent,
		http:      &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(limit, burst),
	}, nil
}

// Coin returns the coin symbol the client serves.
func (c *Client) Coin() string {
	return c.coin
}

func (c *Client) blockbook() bool {
	return c.backend == config.BackendBlockbook
}

// AddressInfo returns balances for address.
func (c *Client) AddressInfo(ctx context.Context, address string) (*AddressInfo, error) {
	path := "/addr/" + url.PathEscape(address)
	if c.blockbook() {
		path = "/address/" + url.PathEscape(address)
	}
	var info AddressInfo
	ok, err := c.getJSON(ctx, path, &info)
	if !ok {
		return nil, err
	}
	return &info, nil
}

// UTXOs lists unspent outputs of address.
func (c *Client) UTXOs(ctx context.Context, address string) ([]UTXO, error) {
	path := "/addr/" + url.PathEscape(address) + "/utxo"
	if c.blockbook() {
		path = "/utxo/" + url.PathEscape(address)
	}
	var utxos []UTXO
	ok, err := c.getJSON(ctx, path, &utxos)
	if !ok {
		return nil, err
	}
	return utxos, nil
}

// Transactions lists the transactions touching address.
func (c *Client) Transactions(ctx context.Context, address string) ([]Tx, error) {
	path := "/txs/?address=" + url.QueryEscape(address)
	if c.blockbook() {
		path = "/address/" + url.PathEscape(address) + "/txs"
	}
	var list txList
	ok, err := c.getJSON(ctx, path, &list)
	if !ok {
		return nil, err
	}
	if len(list.Txs) == 0 {
		return list.Transactions, nil
	}
	return list.Txs, nil
}

// Transaction fetches one transaction.
func (c *Client) Transaction(ctx context.Context, txid string) (*Tx, error) {
	var tx Tx
	ok, err := c.getJSON(ctx, "/tx/"+url.PathEscape(txid), &tx)
	if !ok {
		return nil, err
	}
	return &tx, nil
}

// BlockHeight returns the explorer's tip height, or 0 when unknown.
func (c *Client) BlockHeight(ctx context.Context) (int64, error) {
	var st status
	ok, err := c.getJSON(ctx, "/status", &st)
	if !ok {
		return 0, err
	}
	return st.height(), nil
}

// Broadcast submits a signed raw transaction. A rejected transaction is
// reported in the result with a nil error; a transport failure also
// returns an error wrapping ErrUnavailable.
func (c *Client) Broadcast(ctx context.Context, rawHex string) (BroadcastResult, error) {
	path, payload := "/tx/send", map[string]string{"rawtx": rawHex}
	if c.blockbook() {
		path, payload = "/sendtx", map[string]string{"hex": rawHex}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return BroadcastResult{}, fmt.Errorf("marshal broadcast: %w", err)
	}

	code, data, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return BroadcastResult{Message: "Network error: " + err.Error()}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var reply struct {
		TxID   string `json:"txid"`
		Result string `json:"result"`
	}
	parsed := json.Unmarshal(data, &reply) == nil

	if c.blockbook() {
		if code == http.StatusOK && parsed && reply.Result != "" {
			return BroadcastResult{OK: true, TxID: reply.Result}, nil
		}
	} else if code == http.StatusOK {
		return BroadcastResult{OK: true, TxID: reply.TxID}, nil
	}
	msg := fmt.Sprintf("Node returned %d: %s", code, strings.TrimSpace(string(data)))
	log.Chain.Warn().Str("coin", c.coin).Int("status", code).Msg("Broadcast rejected")
	return BroadcastResult{Message: msg}, nil
}

// getJSON performs a GET and decodes into out. It returns false with a nil
// error for a non-200 reply.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) (bool, error) {
	code, data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		log.Chain.Debug().Str("coin", c.coin).Str("path", path).Err(err).Msg("Explorer request failed")
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if code != http.StatusOK {
		log.Chain.Debug().Str("coin", c.coin).Str("path", path).Err(&StatusError{Code: code, Body: snippet(data)}).Msg("No data")
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, err
	}

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	log.Chain.Trace().Str("coin", c.coin).Str("path", path).Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).Msg("Explorer request")
	return resp.StatusCode, data, nil
}

func snippet(b []byte) string {
	const n = 200
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
