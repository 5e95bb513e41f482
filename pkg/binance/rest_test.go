package binance

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binanceapi/pkg/core"
)

const pricesBody = `[
	{"symbol":"ETHBTC","price":"0.07946600"},
	{"symbol":"LTCBTC","price":"0.01736200"},
	{"symbol":"ETHBTC","price":"0.07946700"},
	{"symbol":"ethbtc","price":"1"}
]`

func TestClient_AllPrices(t *testing.T) {
	f := newFakeExchange(t)
	f.on("GET", "v1/ticker/allPrices", 200, pricesBody)
	client := newTestRESTClient(t, f, nil)
	ctx := context.Background()

	all, err := client.AllPrices(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "0.07946600", all[0].Price.Text('f'))

	filtered, err := client.AllPrices(ctx, core.NewParams("symbol", "ETHBTC"))
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	for _, p := range filtered {
		assert.Equal(t, "ETHBTC", p.Symbol)
	}

	none, err := client.AllPrices(ctx, core.NewParams("symbol", "XRPBTC"))
	require.NoError(t, err)
	assert.Empty(t, none)

	nonString, err := client.AllPrices(ctx, core.NewParams("symbol", 1))
	require.NoError(t, err)
	assert.Len(t, nonString, 4)

	for _, req := range f.recorded() {
		assert.Equal(t, "GET", req.Method)
		assert.Equal(t, "/api/v1/ticker/allPrices", req.Path)
		assert.Empty(t, req.RawQuery)
	}
}

func TestClient_Depth_PlainQuery(t *testing.T) {
	f := newFakeExchange(t)
	f.on("GET", "v1/depth", 200, `{"lastUpdateId":1027024,"bids":[["4.00000000","431.00000000",[]]],"asks":[["4.00000200","12.00000000",[]]]}`)
	client := newTestRESTClient(t, f, fullCreds())

	book, err := client.Depth(context.Background(), core.NewParams("symbol", "ETHBTC", "limit", 5))
	require.NoError(t, err)

	assert.Equal(t, int64(1027024), book.LastUpdateID)
	require.Len(t, book.Bids, 1)
	assert.Equal(t, "431.00000000", book.Bids[0].Quantity.Text('f'))

	req := f.last(t)
	assert.Equal(t, "/api/v1/depth", req.Path)
	assert.Equal(t, "symbol=ETHBTC&limit=5", req.RawQuery)
}

func TestClient_NewOrder_SignedQuery(t *testing.T) {
	f := newFakeExchange(t)
	f.on("POST", "v3/order", 200, `{"symbol":"LTCBTC","orderId":28,"clientOrderId":"6gCrw2kRUAF9CvJDGP16IP","transactTime":1507725176595}`)
	clock := func() time.Time { return time.UnixMilli(1499827319559) }
	client := newTestRESTClient(t, f, fullCreds(), WithClock(clock))

	order, err := client.NewOrder(context.Background(), core.NewParams(
		"symbol", "LTCBTC",
		"side", "BUY",
		"type", "LIMIT",
		"timeInForce", "GTC",
		"quantity", 1,
		"price", 0.1,
		"recvWindow", 5000,
	))
	require.NoError(t, err)

	assert.Equal(t, int64(28), order.OrderID)
	assert.Equal(t, time.UnixMilli(1507725176595), order.CreatedAt())

	req := f.last(t)
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "/api/v3/order", req.Path)
	assert.Equal(t, "symbol=LTCBTC&side=BUY&type=LIMIT&timeInForce=GTC&quantity=1&price=0.1&recvWindow=5000"+
		"&timestamp=1499827319559&signature=c8db56825ae71d6d79447849e617115f4a920fa2acdcab2b053c4b2838bd6b71", req.RawQuery)
	assert.Equal(t, testAPIKey, req.APIKey)
}

func TestClient_SignedOperations(t *testing.T) {
	f := newFakeExchange(t)
	f.on("GET", "v3/openOrders", 200, `[{"symbol":"ETHBTC","orderId":1,"status":"NEW"}]`)
	f.on("GET", "v3/allOrders", 200, `[{"symbol":"ETHBTC","orderId":1,"status":"FILLED"},{"symbol":"ETHBTC","orderId":2,"status":"CANCELED"}]`)
	f.on("GET", "v3/order", 200, `{"symbol":"ETHBTC","orderId":1,"status":"PARTIALLY_FILLED"}`)
	f.on("DELETE", "v3/order", 200, `{"symbol":"ETHBTC","orderId":1,"origClientOrderId":"abc","clientOrderId":"cancelMyOrder1"}`)
	f.on("GET", "v3/account", 200, `{"makerCommission":15,"canTrade":true,"balances":[{"asset":"BTC","free":"1.5","locked":"0"}]}`)
	f.on("GET", "v3/myTrades", 200, `[{"id":28457,"orderId":100234,"price":"4.00000100","qty":"12.00000000","commission":"10.10000000","commissionAsset":"BNB","time":1499865549590,"isBuyer":true}]`)

	client := newTestRESTClient(t, f, fullCreds())
	ctx := context.Background()
	symbol := func() *core.Params { return core.NewParams("symbol", "ETHBTC") }
	wantQuery := "symbol=ETHBTC&timestamp=1508279351690&signature=52853565f6da5d23bb54611d09ae5709ef1a2878711c5cee7687fa44c54a8708"

	t.Run("OpenOrders", func(t *testing.T) {
		orders, err := client.OpenOrders(ctx, symbol())
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, core.StatusNew, orders[0].Status)
		assertRequest(t, f, "GET", "/api/v3/openOrders", wantQuery)
	})

	t.Run("AllOrders", func(t *testing.T) {
		orders, err := client.AllOrders(ctx, symbol())
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.True(t, orders[1].Status.IsTerminal())
		assertRequest(t, f, "GET", "/api/v3/allOrders", wantQuery)
	})

	t.Run("OrderStatus", func(t *testing.T) {
		order, err := client.OrderStatus(ctx, symbol())
		require.NoError(t, err)
		assert.Equal(t, core.StatusPartiallyFilled, order.Status)
		assertRequest(t, f, "GET", "/api/v3/order", wantQuery)
	})

	t.Run("CancelOrder", func(t *testing.T) {
		order, err := client.CancelOrder(ctx, symbol())
		require.NoError(t, err)
		assert.Equal(t, "abc", order.OrigClientOrderID)
		assertRequest(t, f, "DELETE", "/api/v3/order", wantQuery)
	})

	t.Run("Account", func(t *testing.T) {
		account, err := client.Account(ctx, nil)
		require.NoError(t, err)
		btc, ok := account.Balance("BTC")
		require.True(t, ok)
		assert.Equal(t, "1.5", btc.Free.Text('f'))
		assertRequest(t, f, "GET", "/api/v3/account",
			"timestamp=1508279351690&signature=44885a3a3e99489b5425b30c50331abf52f2f0b4171ec5e187a84b1173e7fd33")
	})

	t.Run("MyTrades", func(t *testing.T) {
		trades, err := client.MyTrades(ctx, symbol())
		require.NoError(t, err)
		require.Len(t, trades, 1)
		assert.Equal(t, "BNB", trades[0].CommissionAsset)
		assertRequest(t, f, "GET", "/api/v3/myTrades", wantQuery)
	})
}

func assertRequest(t *testing.T, f *fakeExchange, method, path, rawQuery string) {
	t.Helper()
	req := f.last(t)
	assert.Equal(t, method, req.Method)
	assert.Equal(t, path, req.Path)
	assert.Equal(t, rawQuery, req.RawQuery)
}

func TestClient_RecvWindowFromConfig(t *testing.T) {
	f := newFakeExchange(t)
	f.on("GET", "v3/openOrders", 200, `[]`)

	client, err := New(f.config(fullCreds()).WithRecvWindow(5*time.Second), WithClock(fixedClock))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	_, err = client.OpenOrders(context.Background(), core.NewParams("symbol", "ETHBTC"))
	require.NoError(t, err)

	assertRequest(t, f, "GET", "/api/v3/openOrders",
		"symbol=ETHBTC&recvWindow=5000&timestamp=1508279351690&signature=2561a8ecffc78918aafe33c7a838c79f8d5802a39e21c1955155d45cd1fbb371")
}

func TestClient_UserDataStream(t *testing.T) {
	f := newFakeExchange(t)
	f.on("POST", "v1/userDataStream", 200, `{"listenKey":"pqia91ma19a5s61cv6a81va65sdf19v8a65a1a5s61cv6a81va65sdf19v8a65a1"}`)
	client := newTestRESTClient(t, f, &core.Credentials{APIKey: testAPIKey})
	ctx := context.Background()

	lk, err := client.StartUserDataStream(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pqia91ma19a5s61cv6a81va65sdf19v8a65a1a5s61cv6a81va65sdf19v8a65a1", lk.ListenKey)
	assertRequest(t, f, "POST", "/api/v1/userDataStream", "")

	require.NoError(t, client.PingUserDataStream(ctx, lk.ListenKey))
	assertRequest(t, f, "PUT", "/api/v1/userDataStream", "listenKey="+lk.ListenKey)

	require.NoError(t, client.DeleteUserDataStream(ctx, lk.ListenKey))
	assertRequest(t, f, "DELETE", "/api/v1/userDataStream", "listenKey="+lk.ListenKey)

	for _, req := range f.recorded() {
		assert.Equal(t, testAPIKey, req.APIKey)
	}
}

func TestClient_ErrorBody(t *testing.T) {
	f := newFakeExchange(t)
	f.on("GET", "v3/order", http.StatusBadRequest, `{"code":-2013,"msg":"Order does not exist."}`)
	client := newTestRESTClient(t, f, fullCreds())

	_, err := client.OrderStatus(context.Background(), core.NewParams("symbol", "ETHBTC", "orderId", 1))
	require.Error(t, err)

	var netErr *core.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, "OrderStatus", netErr.Op)
	assert.Equal(t, http.StatusBadRequest, netErr.StatusCode)
	assert.True(t, core.Attempted(err))

	apiErr, ok := core.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, -2013, apiErr.Code)
	assert.Equal(t, "Order does not exist.", apiErr.Message)
	assert.Equal(t, core.ErrorTypeNotFound, apiErr.Type)
	assert.True(t, core.IsNotFoundError(err))
}

func TestClient_ErrorWithoutBody(t *testing.T) {
	f := newFakeExchange(t)
	f.on("GET", "v1/ticker/allPrices", http.StatusBadGateway, `<html>bad gateway</html>`)
	client := newTestRESTClient(t, f, nil)

	_, err := client.AllPrices(context.Background(), nil)

	var netErr *core.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusBadGateway, netErr.StatusCode)
	assert.Contains(t, err.Error(), "HTTP error")
	_, ok := core.AsAPIError(err)
	assert.False(t, ok)
}

func TestClient_TransportFailure(t *testing.T) {
	f := newFakeExchange(t)
	client := newTestRESTClient(t, f, nil)
	f.server.Close()

	_, err := client.AllPrices(context.Background(), nil)

	assert.True(t, errors.Is(err, core.ErrNetwork))
	assert.True(t, core.Attempted(err))
}

func TestClient_MalformedBody(t *testing.T) {
	f := newFakeExchange(t)
	f.on("GET", "v1/ticker/allPrices", 200, `{"not":"a list"}`)
	client := newTestRESTClient(t, f, nil)

	_, err := client.AllPrices(context.Background(), nil)

	assert.True(t, errors.Is(err, core.ErrNetwork))
	assert.Contains(t, err.Error(), "unmarshal response")
}

func TestClient_RateLimit_Usage(t *testing.T) {
	f := newFakeExchange(t)
	f.on("GET", "v1/ticker/allPrices", 200, `[]`)
	client := newTestRESTClient(t, f, fullCreds())
	ctx := context.Background()

	_, err := client.AllPrices(ctx, nil)
	require.NoError(t, err)
	_, err = client.Account(ctx, nil)
	require.NoError(t, err)

	usage := client.Usage()
	assert.Equal(t, int64(2), usage.TotalRequests)
	assert.Equal(t, int64(opAllPrices.weight+opAccount.weight), usage.WeightUsed)
	assert.Zero(t, usage.DelayedRequests)
}

func TestClient_RateLimit_OrderBucket(t *testing.T) {
	f := newFakeExchange(t)
	f.on("POST", "v3/order", 200, `{"symbol":"LTCBTC","orderId":1}`)
	client := newTestRESTClient(t, f, fullCreds(), WithRateLimit(0, 1))

	_, err := client.NewOrder(context.Background(), validOrderParams())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.NewOrder(ctx, validOrderParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "exceed context deadline"), "got %v", err)
	assert.False(t, core.Attempted(err))

	_, err = client.Account(context.Background(), nil)
	assert.NoError(t, err, "weight budget is disabled and orders do not block other calls")
	assert.Len(t, f.recorded(), 2)
	assert.Equal(t, int64(1), client.Usage().DeniedRequests)
}

func TestClient_RateLimit_Disabled(t *testing.T) {
	f := newFakeExchange(t)
	client := newTestRESTClient(t, f, fullCreds(), WithRateLimit(0, 0))

	for i := 0; i < 20; i++ {
		_, err := client.NewOrder(context.Background(), validOrderParams())
		require.NoError(t, err)
	}
	assert.Len(t, f.recorded(), 20)
}

func TestClient_DefaultClientIsUnmetered(t *testing.T) {
	f := newFakeExchange(t)
	client := newTestRESTClient(t, f, fullCreds())

	calls := DefaultWeightPerMinute/opAccount.weight + 10
	for i := 0; i < calls; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		_, err := client.Account(ctx, nil)
		cancel()
		require.NoError(t, err, "call %d", i+1)
	}

	assert.Len(t, f.recorded(), calls)
	assert.Zero(t, client.Usage().DelayedRequests)
	assert.Zero(t, client.Usage().DeniedRequests)
}

func TestNew_RateLimitBudgets(t *testing.T) {
	tests := []struct {
		name    string
		weight  int
		orders  int
		wantErr bool
	}{
		{"disabled", 0, 0, false},
		{"published_limits", DefaultWeightPerMinute, DefaultOrdersPerSecond, false},
		{"orders_only", 0, 1, false},
		{"fits_heaviest_operation", maxOperationWeight(), 0, false},
		{"below_heaviest_operation", maxOperationWeight() - 1, 0, true},
		{"negative_weight", -1, 0, true},
		{"negative_orders", 0, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(core.DefaultConfig(), WithRateLimit(tt.weight, tt.orders))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, core.ErrConstruction))
				return
			}
			require.NoError(t, err)
			assert.NoError(t, client.Close())
		})
	}
}
