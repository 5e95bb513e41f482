package core

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"
)

// OrderSide represents the direction of an order.
type OrderSide string

// Order side constants accepted by the side parameter.
const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// OrderSides lists the allowed side values.
var OrderSides = []string{string(SideBuy), string(SideSell)}

func (s OrderSide) String() string {
	return string(s)
}

// OrderType represents the type of order to place.
type OrderType string

// Order type constants accepted by the type parameter.
const (
	TypeLimit  OrderType = "LIMIT"
	TypeMarket OrderType = "MARKET"
)

// OrderTypes lists the allowed type values.
var OrderTypes = []string{string(TypeLimit), string(TypeMarket)}

func (t OrderType) String() string {
	return string(t)
}

// TimeInForce defines how long an order remains active.
type TimeInForce string

// Time in force constants accepted by the timeInForce parameter.
const (
	// GTC (Good Till Canceled) keeps the order active until filled or canceled.
	GTC TimeInForce = "GTC"
	// IOC (Immediate Or Cancel) cancels whatever does not fill immediately.
	IOC TimeInForce = "IOC"
)

// TimeInForces lists the allowed timeInForce values.
var TimeInForces = []string{string(GTC), string(IOC)}

func (t TimeInForce) String() string {
	return string(t)
}

// OrderStatus represents the current state of an order as reported by the exchange.
type OrderStatus string

// Order status values reported by the exchange.
const (
	StatusNew             OrderStatus = "NEW"
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	StatusFilled          OrderStatus = "FILLED"
	StatusCanceled        OrderStatus = "CANCELED"
	StatusPendingCancel   OrderStatus = "PENDING_CANCEL"
	StatusRejected        OrderStatus = "REJECTED"
	StatusExpired         OrderStatus = "EXPIRED"
)

// IsTerminal returns true if the order is in a terminal state (no further changes possible).
func (s OrderStatus) IsTerminal() bool {
	return s == StatusFilled || s == StatusCanceled || s == StatusRejected || s == StatusExpired
}

// PriceTicker is one entry of the all-prices list.
type PriceTicker struct {
	Symbol string      `json:"symbol"`
	Price  apd.Decimal `json:"price"`
}

// OrderBookLevel represents a single price level in the order book.
// On the wire a level is an array whose first two elements are price and quantity strings.
type OrderBookLevel struct {
	Price    apd.Decimal
	Quantity apd.Decimal
}

// UnmarshalJSON decodes a ["price","qty",...] array; trailing elements are ignored.
func (l *OrderBookLevel) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode level: %w", err)
	}
	if len(raw) < 2 {
		return fmt.Errorf("decode level: want at least 2 elements, got %d", len(raw))
	}
	if err := ParseDecimal(&l.Price, raw[0]); err != nil {
		return fmt.Errorf("level price: %w", err)
	}
	if err := ParseDecimal(&l.Quantity, raw[1]); err != nil {
		return fmt.Errorf("level quantity: %w", err)
	}
	return nil
}

// OrderBook is the depth snapshot of a symbol.
type OrderBook struct {
	LastUpdateID int64            `json:"lastUpdateId"`
	Bids         []OrderBookLevel `json:"bids"`
	Asks         []OrderBookLevel `json:"asks"`
}

// Order is the exchange view of an order. Placement, status, cancellation and listing
// responses share it; fields absent from a given response keep their zero value.
type Order struct {
	Symbol            string      `json:"symbol"`
	OrderID           int64       `json:"orderId"`
	ClientOrderID     string      `json:"clientOrderId"`
	OrigClientOrderID string      `json:"origClientOrderId,omitempty"`
	Price             apd.Decimal `json:"price"`
	OrigQty           apd.Decimal `json:"origQty"`
	ExecutedQty       apd.Decimal `json:"executedQty"`
	StopPrice         apd.Decimal `json:"stopPrice"`
	IcebergQty        apd.Decimal `json:"icebergQty"`
	Status            OrderStatus `json:"status"`
	TimeInForce       TimeInForce `json:"timeInForce"`
	Type              OrderType   `json:"type"`
	Side              OrderSide   `json:"side"`
	Time              int64       `json:"time"`
	TransactTime      int64       `json:"transactTime"`
	IsWorking         bool        `json:"isWorking"`
}

// CreatedAt returns the order creation time, falling back to the transaction time of a placement response.
func (o *Order) CreatedAt() time.Time {
	if o.Time != 0 {
		return time.UnixMilli(o.Time)
	}
	return time.UnixMilli(o.TransactTime)
}

// Balance represents account balance for a single asset.
type Balance struct {
	// Asset is the currency or token symbol (e.g., "BTC", "ETH").
	Asset string `json:"asset"`
	// Free is the available balance for trading.
	Free apd.Decimal `json:"free"`
	// Locked is the balance locked in open orders.
	Locked apd.Decimal `json:"locked"`
}

// Account is the account information snapshot.
type Account struct {
	MakerCommission  int64     `json:"makerCommission"`
	TakerCommission  int64     `json:"takerCommission"`
	BuyerCommission  int64     `json:"buyerCommission"`
	SellerCommission int64     `json:"sellerCommission"`
	CanTrade         bool      `json:"canTrade"`
	CanWithdraw      bool      `json:"canWithdraw"`
	CanDeposit       bool      `json:"canDeposit"`
	UpdateTime       int64     `json:"updateTime"`
	Balances         []Balance `json:"balances"`
}

// Balance returns the balance for asset, if listed.
func (a *Account) Balance(asset string) (Balance, bool) {
	for _, b := range a.Balances {
		if b.Asset == asset {
			return b, true
		}
	}
	return Balance{}, false
}

// Trade is one fill of the account trade history.
type Trade struct {
	ID              int64       `json:"id"`
	OrderID         int64       `json:"orderId"`
	Price           apd.Decimal `json:"price"`
	Qty             apd.Decimal `json:"qty"`
	Commission      apd.Decimal `json:"commission"`
	CommissionAsset string      `json:"commissionAsset"`
	Time            int64       `json:"time"`
	IsBuyer         bool        `json:"isBuyer"`
	IsMaker         bool        `json:"isMaker"`
	IsBestMatch     bool        `json:"isBestMatch"`
}

// Timestamp returns the execution time.
func (t *Trade) Timestamp() time.Time {
	return time.UnixMilli(t.Time)
}

// ListenKey is the session token of a user data stream.
type ListenKey struct {
	ListenKey string `json:"listenKey"`
}

// ParseDecimal sets dest from a decimal string or a JSON number.
func ParseDecimal(dest *apd.Decimal, val any) error {
	switch v := val.(type) {
	case string:
		if v == "" {
			*dest = apd.Decimal{}
			return nil
		}
		if _, _, err := apd.BaseContext.SetString(dest, v); err != nil {
			return fmt.Errorf("set decimal from string: %w", err)
		}
		return nil
	case float64:
		if _, _, err := apd.BaseContext.SetString(dest, fmt.Sprintf("%v", v)); err != nil {
			return fmt.Errorf("set decimal from number: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported type for decimal: %T", val)
	}
}
