package binance

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"

	"binanceapi/pkg/core"
)

// Stream payloads use single-letter keys that differ only in case ("e"/"E", "l"/"L").
// JSON decoding falls back to case-insensitive matching, so every such pair present in a
// payload is declared on the struct even when the field is not interesting.

// DepthEvent is a <symbol>@depth diff update.
type DepthEvent struct {
	Event         string                `json:"e"`
	EventTime     int64                 `json:"E"`
	Symbol        string                `json:"s"`
	FirstUpdateID int64                 `json:"U"`
	FinalUpdateID int64                 `json:"u"`
	Bids          []core.OrderBookLevel `json:"b"`
	Asks          []core.OrderBookLevel `json:"a"`
}

// KlineEvent is a <symbol>@kline_<interval> update.
type KlineEvent struct {
	Event     string `json:"e"`
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	Kline     Kline  `json:"k"`
}

// Kline is one candlestick. IsClosed is set on the final update of the interval.
type Kline struct {
	StartTime           int64       `json:"t"`
	EndTime             int64       `json:"T"`
	Symbol              string      `json:"s"`
	Interval            string      `json:"i"`
	FirstTradeID        int64       `json:"f"`
	LastTradeID         int64       `json:"L"`
	Open                apd.Decimal `json:"o"`
	Close               apd.Decimal `json:"c"`
	High                apd.Decimal `json:"h"`
	Low                 apd.Decimal `json:"l"`
	Volume              apd.Decimal `json:"v"`
	NumTrades           int64       `json:"n"`
	IsClosed            bool        `json:"x"`
	QuoteVolume         apd.Decimal `json:"q"`
	TakerBuyBaseVolume  apd.Decimal `json:"V"`
	TakerBuyQuoteVolume apd.Decimal `json:"Q"`
}

// AggTradeEvent is a <symbol>@aggTrade update.
type AggTradeEvent struct {
	Event        string      `json:"e"`
	EventTime    int64       `json:"E"`
	Symbol       string      `json:"s"`
	AggTradeID   int64       `json:"a"`
	Price        apd.Decimal `json:"p"`
	Quantity     apd.Decimal `json:"q"`
	FirstTradeID int64       `json:"f"`
	LastTradeID  int64       `json:"l"`
	TradeTime    int64       `json:"T"`
	IsBuyerMaker bool        `json:"m"`
	IsBestMatch  bool        `json:"M"`
}

// Time returns the trade time.
func (e *AggTradeEvent) Time() time.Time {
	return time.UnixMilli(e.TradeTime)
}

// User data event types.
const (
	EventAccountPosition = "outboundAccountPosition"
	EventBalanceUpdate   = "balanceUpdate"
	EventExecutionReport = "executionReport"
)

// AccountPositionEvent carries the balances that changed.
type AccountPositionEvent struct {
	Event      string           `json:"e"`
	EventTime  int64            `json:"E"`
	LastUpdate int64            `json:"u"`
	Balances   []AccountBalance `json:"B"`
}

type AccountBalance struct {
	Asset  string      `json:"a"`
	Free   apd.Decimal `json:"f"`
	Locked apd.Decimal `json:"l"`
}

// BalanceUpdateEvent is a deposit, withdrawal or transfer.
type BalanceUpdateEvent struct {
	Event     string      `json:"e"`
	EventTime int64       `json:"E"`
	Asset     string      `json:"a"`
	Delta     apd.Decimal `json:"d"`
	ClearTime int64       `json:"T"`
}

// ExecutionReportEvent is an order update.
type ExecutionReportEvent struct {
	Event               string           `json:"e"`
	EventTime           int64            `json:"E"`
	Symbol              string           `json:"s"`
	ClientOrderID       string           `json:"c"`
	Side                core.OrderSide   `json:"S"`
	Type                core.OrderType   `json:"o"`
	TimeInForce         core.TimeInForce `json:"f"`
	Quantity            apd.Decimal      `json:"q"`
	Price               apd.Decimal      `json:"p"`
	StopPrice           apd.Decimal      `json:"P"`
	IcebergQty          apd.Decimal      `json:"F"`
	OrigClientOrderID   string           `json:"C"`
	ExecutionType       string           `json:"x"`
	Status              core.OrderStatus `json:"X"`
	RejectReason        string           `json:"r"`
	OrderID             int64            `json:"i"`
	LastExecutedQty     apd.Decimal      `json:"l"`
	CumulativeFilledQty apd.Decimal      `json:"z"`
	LastExecutedPrice   apd.Decimal      `json:"L"`
	Commission          apd.Decimal      `json:"n"`
	CommissionAsset     string           `json:"N"`
	TransactionTime     int64            `json:"T"`
	TradeID             int64            `json:"t"`
	IsWorking           bool             `json:"w"`
	IsMaker             bool             `json:"m"`
	OrderCreationTime   int64            `json:"O"`
	CumulativeQuoteQty  apd.Decimal      `json:"Z"`
	LastQuoteQty        apd.Decimal      `json:"Y"`
	QuoteOrderQty       apd.Decimal      `json:"Q"`
	OrderListID         int64            `json:"g"`
	IgnoreI             int64            `json:"I"`
	IgnoreM             bool             `json:"M"`
}

// DecodeDepthEvent decodes a depth stream payload.
func DecodeDepthEvent(data []byte) (*DepthEvent, error) {
	var e DepthEvent
	if err := sonic.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal depth event: %w", err)
	}
	return &e, nil
}

// DecodeKlineEvent decodes a kline stream payload.
func DecodeKlineEvent(data []byte) (*KlineEvent, error) {
	var e KlineEvent
	if err := sonic.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal kline event: %w", err)
	}
	return &e, nil
}

// DecodeAggTradeEvent decodes an aggTrade stream payload.
func DecodeAggTradeEvent(data []byte) (*AggTradeEvent, error) {
	var e AggTradeEvent
	if err := sonic.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal aggTrade event: %w", err)
	}
	return &e, nil
}

// DecodeUserDataEvent decodes a user data payload into *AccountPositionEvent,
// *BalanceUpdateEvent or *ExecutionReportEvent depending on its event type.
func DecodeUserDataEvent(data []byte) (any, error) {
	var base struct {
		Event     string `json:"e"`
		EventTime int64  `json:"E"`
	}
	if err := sonic.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("unmarshal user data event: %w", err)
	}

	var target any
	switch base.Event {
	case EventAccountPosition:
		target = &AccountPositionEvent{}
	case EventBalanceUpdate:
		target = &BalanceUpdateEvent{}
	case EventExecutionReport:
		target = &ExecutionReportEvent{}
	default:
		return nil, fmt.Errorf("unknown user data event %q", base.Event)
	}

	if err := sonic.Unmarshal(data, target); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", base.Event, err)
	}
	return target, nil
}
