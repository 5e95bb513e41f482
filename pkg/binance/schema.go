package binance

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"binanceapi/pkg/core"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindNumber
	kindEnum
)

type fieldSpec struct {
	kind    fieldKind
	allowed []string
}

// fields constrains any parameter with a known name, whichever operation it is passed to.
// Names not listed here are passed through unchecked.
var fields = map[string]fieldSpec{
	"symbol":            {kind: kindString},
	"newClientOrderId":  {kind: kindString},
	"origClientOrderId": {kind: kindString},
	"listenKey":         {kind: kindString},

	"side":        {kind: kindEnum, allowed: core.OrderSides},
	"type":        {kind: kindEnum, allowed: core.OrderTypes},
	"timeInForce": {kind: kindEnum, allowed: core.TimeInForces},

	"quantity":   {kind: kindNumber},
	"price":      {kind: kindNumber},
	"stopPrice":  {kind: kindNumber},
	"icebergQty": {kind: kindNumber},
	"recvWindow": {kind: kindNumber},
	"fromId":     {kind: kindNumber},
}

// Validate checks params against the required names and the field catalogue.
// A required name fails when it is absent or falsy (nil, "", numeric zero, false).
// Every present field with a catalogue entry must match its kind, and enum fields
// must hold one of the allowed values. params is not modified.
func Validate(params *core.Params, required []string) error {
	if params == nil {
		return &core.ValidationError{Param: "params", Reason: "is required"}
	}

	for _, name := range required {
		v, ok := params.Get(name)
		if !ok || isFalsy(v) {
			return &core.ValidationError{Param: name, Reason: "is required for this method"}
		}
	}

	for key, value := range params.All() {
		spec, ok := fields[key]
		if !ok {
			continue
		}
		switch spec.kind {
		case kindString:
			if _, ok := textValue(value); !ok {
				return &core.ValidationError{Param: key, Reason: "should be a string"}
			}
		case kindNumber:
			if !isNumber(value) {
				return &core.ValidationError{Param: key, Reason: "should be a number"}
			}
		case kindEnum:
			s, ok := textValue(value)
			if !ok || !slices.Contains(spec.allowed, s) {
				return &core.ValidationError{
					Param:  key,
					Reason: fmt.Sprintf("is not valid, possible values are %s", strings.Join(spec.allowed, ", ")),
				}
			}
		}
	}

	return nil
}

// textValue returns the string form of string-typed parameter values.
func textValue(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case core.OrderSide:
		return string(s), true
	case core.OrderType:
		return string(s), true
	case core.TimeInForce:
		return string(s), true
	default:
		return "", false
	}
}

func isNumber(v any) bool {
	switch n := v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, apd.Decimal:
		return true
	case *apd.Decimal:
		return n != nil
	default:
		return false
	}
}

func isFalsy(v any) bool {
	switch n := v.(type) {
	case nil:
		return true
	case bool:
		return !n
	case string:
		return n == ""
	case core.OrderSide, core.OrderType, core.TimeInForce:
		s, _ := textValue(n)
		return s == ""
	case int:
		return n == 0
	case int8:
		return n == 0
	case int16:
		return n == 0
	case int32:
		return n == 0
	case int64:
		return n == 0
	case uint:
		return n == 0
	case uint8:
		return n == 0
	case uint16:
		return n == 0
	case uint32:
		return n == 0
	case uint64:
		return n == 0
	case float32:
		return n == 0
	case float64:
		return n == 0
	case apd.Decimal:
		return n.IsZero()
	case *apd.Decimal:
		return n == nil || n.IsZero()
	default:
		return false
	}
}

type authClass int

const (
	authNone authClass = iota
	authAPIKey
	authSigned
)

func (a authClass) String() string {
	return [...]string{"none", "api-key", "signed"}[a]
}

// operation describes one REST endpoint: how it is guarded, which query form it sends and
// which parameters it needs. Optional lists the documented extra parameters and is informational.
type operation struct {
	name     string
	method   string
	path     string
	auth     authClass
	signed   bool
	required []string
	optional []string

	// weight is spent from the request-weight budget; bucket names an extra per-call budget.
	weight int
	bucket string
}

// bucketOrders limits order placement independently of request weight.
const bucketOrders = "orders"

var (
	opAllPrices = operation{
		name:     "AllPrices",
		method:   http.MethodGet,
		path:     "v1/ticker/allPrices",
		auth:     authNone,
		optional: []string{"symbol"},
		weight:   2,
	}
	// Depth is guarded like the signed endpoints but sends a plain query.
	opDepth = operation{
		name:     "Depth",
		method:   http.MethodGet,
		path:     "v1/depth",
		auth:     authSigned,
		required: []string{"symbol"},
		optional: []string{"limit"},
		weight:   1,
	}
	opNewOrder = operation{
		name:     "NewOrder",
		method:   http.MethodPost,
		path:     "v3/order",
		auth:     authSigned,
		signed:   true,
		required: []string{"symbol", "side", "type", "timeInForce", "quantity", "price"},
		optional: []string{"newClientOrderId", "stopPrice", "icebergQty", "recvWindow"},
		weight:   1,
		bucket:   bucketOrders,
	}
	opOpenOrders = operation{
		name:     "OpenOrders",
		method:   http.MethodGet,
		path:     "v3/openOrders",
		auth:     authSigned,
		signed:   true,
		required: []string{"symbol"},
		optional: []string{"recvWindow"},
		weight:   3,
	}
	opAllOrders = operation{
		name:     "AllOrders",
		method:   http.MethodGet,
		path:     "v3/allOrders",
		auth:     authSigned,
		signed:   true,
		required: []string{"symbol"},
		optional: []string{"orderId", "limit", "recvWindow"},
		weight:   10,
	}
	opOrderStatus = operation{
		name:     "OrderStatus",
		method:   http.MethodGet,
		path:     "v3/order",
		auth:     authSigned,
		signed:   true,
		required: []string{"symbol"},
		optional: []string{"orderId", "origClientOrderId", "recvWindow"},
		weight:   2,
	}
	opCancelOrder = operation{
		name:     "CancelOrder",
		method:   http.MethodDelete,
		path:     "v3/order",
		auth:     authSigned,
		signed:   true,
		required: []string{"symbol"},
		optional: []string{"orderId", "origClientOrderId", "newClientOrderId", "recvWindow"},
		weight:   1,
	}
	opAccount = operation{
		name:     "Account",
		method:   http.MethodGet,
		path:     "v3/account",
		auth:     authSigned,
		signed:   true,
		optional: []string{"recvWindow"},
		weight:   10,
	}
	opMyTrades = operation{
		name:     "MyTrades",
		method:   http.MethodGet,
		path:     "v3/myTrades",
		auth:     authSigned,
		signed:   true,
		required: []string{"symbol"},
		optional: []string{"limit", "fromId", "recvWindow"},
		weight:   10,
	}
	opStartUserDataStream = operation{
		name:   "StartUserDataStream",
		method: http.MethodPost,
		path:   "v1/userDataStream",
		auth:   authAPIKey,
		weight: 2,
	}
	opPingUserDataStream = operation{
		name:     "PingUserDataStream",
		method:   http.MethodPut,
		path:     "v1/userDataStream",
		auth:     authAPIKey,
		required: []string{"listenKey"},
		weight:   2,
	}
	opDeleteUserDataStream = operation{
		name:     "DeleteUserDataStream",
		method:   http.MethodDelete,
		path:     "v1/userDataStream",
		auth:     authAPIKey,
		required: []string{"listenKey"},
		weight:   2,
	}
)

var operations = []operation{
	opAllPrices, opDepth, opNewOrder, opOpenOrders, opAllOrders, opOrderStatus,
	opCancelOrder, opAccount, opMyTrades,
	opStartUserDataStream, opPingUserDataStream, opDeleteUserDataStream,
}

func maxOperationWeight() int {
	heaviest := 0
	for _, op := range operations {
		heaviest = max(heaviest, op.weight)
	}
	return heaviest
}

// NewOrderRequired returns the parameter names NewOrder refuses to send without.
func NewOrderRequired() []string {
	return slices.Clone(opNewOrder.required)
}
