package binance

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"resty.dev/v3"

	"binanceapi/pkg/core"
)

type binanceAPIError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// AllPrices returns the latest price of every symbol. When params carries a string symbol
// the list is narrowed to the entries whose symbol matches it exactly.
func (c *Client) AllPrices(ctx context.Context, params *core.Params) ([]core.PriceTicker, error) {
	prices, err := execute[[]core.PriceTicker](ctx, c, opAllPrices, nil)
	if err != nil {
		return nil, err
	}

	symbol, ok := params.String("symbol")
	if !ok {
		return prices, nil
	}

	filtered := make([]core.PriceTicker, 0, 1)
	for _, p := range prices {
		if p.Symbol == symbol {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// Depth returns the order book of params["symbol"].
func (c *Client) Depth(ctx context.Context, params *core.Params) (*core.OrderBook, error) {
	return execute[*core.OrderBook](ctx, c, opDepth, params)
}

// NewOrder places an order. symbol, side, type, timeInForce, quantity and price are required.
func (c *Client) NewOrder(ctx context.Context, params *core.Params) (*core.Order, error) {
	return execute[*core.Order](ctx, c, opNewOrder, params)
}

// OpenOrders lists the open orders of params["symbol"].
func (c *Client) OpenOrders(ctx context.Context, params *core.Params) ([]core.Order, error) {
	return execute[[]core.Order](ctx, c, opOpenOrders, params)
}

// AllOrders lists open, canceled and filled orders of params["symbol"].
func (c *Client) AllOrders(ctx context.Context, params *core.Params) ([]core.Order, error) {
	return execute[[]core.Order](ctx, c, opAllOrders, params)
}

// OrderStatus returns a single order, identified by orderId or origClientOrderId.
func (c *Client) OrderStatus(ctx context.Context, params *core.Params) (*core.Order, error) {
	return execute[*core.Order](ctx, c, opOrderStatus, params)
}

// CancelOrder cancels a single order, identified by orderId or origClientOrderId.
func (c *Client) CancelOrder(ctx context.Context, params *core.Params) (*core.Order, error) {
	return execute[*core.Order](ctx, c, opCancelOrder, params)
}

// Account returns the account information and balances.
func (c *Client) Account(ctx context.Context, params *core.Params) (*core.Account, error) {
	return execute[*core.Account](ctx, c, opAccount, params)
}

// MyTrades returns the trade history of params["symbol"].
func (c *Client) MyTrades(ctx context.Context, params *core.Params) ([]core.Trade, error) {
	return execute[[]core.Trade](ctx, c, opMyTrades, params)
}

// StartUserDataStream opens a user data stream and returns its listen key.
func (c *Client) StartUserDataStream(ctx context.Context) (*core.ListenKey, error) {
	return execute[*core.ListenKey](ctx, c, opStartUserDataStream, nil)
}

// PingUserDataStream keeps the stream of listenKey alive.
func (c *Client) PingUserDataStream(ctx context.Context, listenKey string) error {
	_, err := execute[struct{}](ctx, c, opPingUserDataStream, core.NewParams("listenKey", listenKey))
	return err
}

// DeleteUserDataStream closes the stream of listenKey.
func (c *Client) DeleteUserDataStream(ctx context.Context, listenKey string) error {
	_, err := execute[struct{}](ctx, c, opDeleteUserDataStream, core.NewParams("listenKey", listenKey))
	return err
}

// execute finishes every local check and waits for rate budget before touching the network,
// then sends the request and decodes a 2xx body into T.
func execute[T any](ctx context.Context, c *Client, op operation, params *core.Params) (T, error) {
	var result T

	if err := c.guard(op); err != nil {
		return result, err
	}
	if params == nil {
		params = &core.Params{}
	}
	if err := Validate(params, op.required); err != nil {
		return result, err
	}
	if err := c.limiter.Wait(ctx, op.weight, op.bucket); err != nil {
		c.logger.Warn().Err(err).Str("op", op.name).Msg("rate limit wait aborted")
		return result, fmt.Errorf("%s: %w", op.name, err)
	}

	q, err := c.buildQuery(op, params)
	if err != nil {
		return result, err
	}
	target := q.Plain()
	if op.signed {
		target = q.Signed()
	}

	resp, err := c.httpClient.Do(ctx, op.method, target)
	if err != nil {
		c.logger.Warn().Err(err).Str("op", op.name).Msg("request failed")
		return result, &core.NetworkError{Op: op.name, Method: op.method, Path: op.path, Err: err}
	}

	if status := resp.StatusCode(); status < 200 || status >= 300 {
		apiErr := parseError(resp)
		c.logger.Warn().Err(apiErr).Str("op", op.name).Int("status", status).Msg("request rejected")
		return result, &core.NetworkError{
			Op:         op.name,
			Method:     op.method,
			Path:       op.path,
			StatusCode: status,
			Err:        apiErr,
		}
	}

	body := resp.Bytes()
	if len(body) == 0 {
		return result, nil
	}
	if err := sonic.Unmarshal(body, &result); err != nil {
		return result, &core.NetworkError{
			Op:         op.name,
			Method:     op.method,
			Path:       op.path,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("unmarshal response: %w", err),
		}
	}
	return result, nil
}

// parseError prefers the structured {code,msg} body and falls back to the HTTP status.
func parseError(resp *resty.Response) error {
	var binanceErr binanceAPIError
	if err := sonic.Unmarshal(resp.Bytes(), &binanceErr); err == nil && binanceErr.Code != 0 {
		return core.NewAPIError(resp.StatusCode(), binanceErr.Code, binanceErr.Msg)
	}
	return fmt.Errorf("HTTP error: %s", resp.Status())
}
