// Package binance implements a client for the Binance spot REST API and its raw WebSocket streams.
//
// The package includes:
//   - Client: signed and unsigned REST operations (prices, depth, orders, account, trades, user data stream)
//   - WSClient: depth, kline, aggTrade and user-data subscriptions, one socket per stream path
//   - Query: the "path?k=v" builder with HMAC-SHA256 signing
//   - Decode* helpers for typed stream events
//
// Guard and parameter checks run before any network I/O and return *core.AuthError or
// *core.ValidationError; failures after a request was sent are *core.NetworkError.
//
// Example usage:
//
//	client, err := binance.New(core.DefaultConfig().WithCredentials(creds))
//	params := order.NewBuilder("ETHBTC").Buy().Limit().GTC().Price("0.05").Quantity("1").MustBuild()
//	placed, err := client.NewOrder(ctx, params)
package binance
