package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/starknode/starknode/config"
	"github.com/starknode/starknode/gateway"
	"github.com/starknode/starknode/libs/log"
	"github.com/starknode/starknode/types"
)

const (
	feederGatewayPath = "/feeder_gateway/"

	// errorBodyLimit caps how much of an unexpected reply ends up in errors.
	errorBodyLimit = 512

	retryJitterPercent = 10
)

// starknet error codes that mean the requested object does not exist
var notFoundCodes = map[string]struct{}{
	"StarknetErrorCode.BLOCK_NOT_FOUND":  {},
	"StarknetErrorCode.UNDECLARED_CLASS": {},
}

var _ gateway.Client = (*Client)(nil)

// Client is a feeder gateway client. Transport errors, 429 and 5xx replies
// are retried with capped exponential backoff.
type Client struct {
	base    *url.URL
	client  *stdhttp.Client
	cfg     *config.GatewayConfig
	logger  log.Logger
	metrics *Metrics
}

// New creates a gateway client from cfg. If no scheme is provided in the
// URL, http is assumed.
func New(cfg *config.GatewayConfig, logger log.Logger, metrics *Metrics) (*Client, error) {
	remote := cfg.URL
	if !strings.Contains(remote, "://") {
		remote = "http://" + remote
	}
	base, err := url.Parse(remote)
	if err != nil {
		return nil, fmt.Errorf("invalid gateway url %q: %w", cfg.URL, err)
	}
	if metrics == nil {
		metrics = NopMetrics()
	}

	return &Client{
		base:    base,
		client:  &stdhttp.Client{},
		cfg:     cfg,
		logger:  logger.With("module", "gateway", "remote", base.Host),
		metrics: metrics,
	}, nil
}

func (c *Client) String() string {
	return fmt.Sprintf("http{%s}", c.base.String())
}

// Block implements gateway.Client.
func (c *Client) Block(ctx context.Context, id gateway.BlockID) (types.MaybePendingBlock, error) {
	body, err := c.get(ctx, "get_block", blockParams(id))
	if err != nil {
		return nil, err
	}
	block, err := types.DecodeMaybePendingBlock(body)
	if err != nil {
		return nil, gateway.ErrBadResponse{Reason: err}
	}
	if _, pending := block.(*types.PendingBlock); pending && !id.IsPending() {
		return nil, gateway.ErrBadResponse{Reason: fmt.Errorf("pending block returned for %s", id)}
	}
	return block, nil
}

// StateUpdate implements gateway.Client.
func (c *Client) StateUpdate(ctx context.Context, id gateway.BlockID) (types.MaybePendingStateUpdate, error) {
	body, err := c.get(ctx, "get_state_update", blockParams(id))
	if err != nil {
		return nil, err
	}
	update, err := types.DecodeMaybePendingStateUpdate(body)
	if err != nil {
		return nil, gateway.ErrBadResponse{Reason: err}
	}
	if _, pending := update.(*types.PendingStateUpdate); pending && !id.IsPending() {
		return nil, gateway.ErrBadResponse{Reason: fmt.Errorf("pending state update returned for %s", id)}
	}
	return update, nil
}

// Class implements gateway.Client.
func (c *Client) Class(ctx context.Context, hash types.ClassHash, id gateway.BlockID) ([]byte, error) {
	params := blockParams(id)
	params.Set("classHash", hash.Hex())
	return c.getJSON(ctx, "get_class_by_hash", params)
}

// CompiledClass implements gateway.Client.
func (c *Client) CompiledClass(ctx context.Context, hash types.ClassHash, id gateway.BlockID) ([]byte, error) {
	params := blockParams(id)
	params.Set("classHash", hash.Hex())
	return c.getJSON(ctx, "get_compiled_class_by_class_hash", params)
}

func (c *Client) getJSON(ctx context.Context, method string, params url.Values) ([]byte, error) {
	body, err := c.get(ctx, method, params)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, gateway.ErrBadResponse{Reason: fmt.Errorf("%s: reply is not valid json", method)}
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, method string, params url.Values) ([]byte, error) {
	backoff := retry.NewExponential(c.cfg.RetryBackoff)
	backoff = retry.WithCappedDuration(c.cfg.MaxRetryBackoff, backoff)
	backoff = retry.WithJitterPercent(retryJitterPercent, backoff)
	backoff = retry.WithMaxRetries(c.cfg.MaxRetries, backoff)

	var body []byte
	start := time.Now()
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		body, err = c.do(ctx, method, params)
		if err == nil {
			return nil
		}
		if retryable(ctx, err) {
			c.metrics.Retries.With("method", method).Add(1)
			c.logger.Debug("retrying gateway request", "method", method, "err", err)
			return retry.RetryableError(err)
		}
		return err
	})
	c.metrics.RequestDuration.With("method", method).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, method string, params url.Values) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	endpoint := *c.base
	endpoint.Path = strings.TrimSuffix(c.base.Path, "/") + feederGatewayPath + method
	endpoint.RawQuery = params.Encode()

	req, err := stdhttp.NewRequestWithContext(ctx, stdhttp.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == stdhttp.StatusOK {
		return body, nil
	}

	var starknetErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &starknetErr) == nil {
		if _, ok := notFoundCodes[starknetErr.Code]; ok {
			return nil, fmt.Errorf("%w: %s", gateway.ErrNotFound, starknetErr.Message)
		}
	}

	if len(body) > errorBodyLimit {
		body = body[:errorBodyLimit]
	}
	return nil, gateway.ErrStatus{Code: resp.StatusCode, Body: string(body)}
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, gateway.ErrNotFound) {
		return false
	}
	var statusErr gateway.ErrStatus
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	// transport errors, including per-request timeouts
	return true
}

func blockParams(id gateway.BlockID) url.Values {
	key, value := id.QueryParam()
	return url.Values{key: []string{value}}
}
