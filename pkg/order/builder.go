package order

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"binanceapi/pkg/binance"
	"binanceapi/pkg/core"
)

// Builder provides a fluent interface for assembling NewOrder parameters.
// It keeps the first error it meets and reports it on Build.
//
// Example:
//
//	params, err := order.NewBuilder("ETHBTC").
//	    Buy().
//	    Limit().
//	    GTC().
//	    Price("0.05").
//	    Quantity("1").
//	    Build()
type Builder struct {
	symbol        string
	side          core.OrderSide
	orderType     core.OrderType
	timeInForce   core.TimeInForce
	price         *apd.Decimal
	quantity      *apd.Decimal
	stopPrice     *apd.Decimal
	icebergQty    *apd.Decimal
	clientOrderID string
	err           error
}

// NewBuilder creates a builder for the given symbol, e.g. "ETHBTC".
func NewBuilder(symbol string) *Builder {
	return &Builder{symbol: symbol}
}

// Side sets the order side.
func (b *Builder) Side(side core.OrderSide) *Builder {
	if b.err != nil {
		return b
	}
	b.side = side
	return b
}

func (b *Builder) Buy() *Builder  { return b.Side(core.SideBuy) }
func (b *Builder) Sell() *Builder { return b.Side(core.SideSell) }

// Type sets the order type.
func (b *Builder) Type(orderType core.OrderType) *Builder {
	if b.err != nil {
		return b
	}
	b.orderType = orderType
	return b
}

func (b *Builder) Limit() *Builder  { return b.Type(core.TypeLimit) }
func (b *Builder) Market() *Builder { return b.Type(core.TypeMarket) }

// TimeInForce sets how long the order stays active.
func (b *Builder) TimeInForce(tif core.TimeInForce) *Builder {
	if b.err != nil {
		return b
	}
	b.timeInForce = tif
	return b
}

func (b *Builder) GTC() *Builder { return b.TimeInForce(core.GTC) }
func (b *Builder) IOC() *Builder { return b.TimeInForce(core.IOC) }

// Price sets the limit price from a decimal string.
func (b *Builder) Price(price string) *Builder {
	return b.decimal("price", price, &b.price)
}

// PriceDecimal sets the limit price.
func (b *Builder) PriceDecimal(price *apd.Decimal) *Builder {
	return b.setDecimal(price, &b.price)
}

// Quantity sets the order quantity from a decimal string.
func (b *Builder) Quantity(qty string) *Builder {
	return b.decimal("quantity", qty, &b.quantity)
}

// QuantityDecimal sets the order quantity.
func (b *Builder) QuantityDecimal(qty *apd.Decimal) *Builder {
	return b.setDecimal(qty, &b.quantity)
}

// StopPrice sets the trigger price.
func (b *Builder) StopPrice(price string) *Builder {
	return b.decimal("stopPrice", price, &b.stopPrice)
}

// IcebergQty sets the visible quantity of an iceberg order.
func (b *Builder) IcebergQty(qty string) *Builder {
	return b.decimal("icebergQty", qty, &b.icebergQty)
}

// ClientOrderID sets newClientOrderId.
func (b *Builder) ClientOrderID(id string) *Builder {
	if b.err != nil {
		return b
	}
	b.clientOrderID = id
	return b
}

// GenerateClientOrderID sets newClientOrderId to a random UUID.
func (b *Builder) GenerateClientOrderID() *Builder {
	return b.ClientOrderID(uuid.NewString())
}

func (b *Builder) decimal(param, value string, dst **apd.Decimal) *Builder {
	if b.err != nil {
		return b
	}
	d, _, err := apd.NewFromString(value)
	if err != nil {
		b.err = &core.ValidationError{Param: param, Reason: fmt.Sprintf("could not be parsed: %q", value)}
		return b
	}
	*dst = d
	return b
}

func (b *Builder) setDecimal(value *apd.Decimal, dst **apd.Decimal) *Builder {
	if b.err != nil || value == nil {
		return b
	}
	*dst = new(apd.Decimal).Set(value)
	return b
}

// Build returns the parameters in the order NewOrder sends them.
func (b *Builder) Build() (*core.Params, error) {
	if b.err != nil {
		return nil, b.err
	}

	params := core.NewParams(
		"symbol", b.symbol,
		"side", b.side,
		"type", b.orderType,
		"timeInForce", b.timeInForce,
	)
	if b.quantity != nil {
		params.Set("quantity", b.quantity)
	}
	if b.price != nil {
		params.Set("price", b.price)
	}
	if b.stopPrice != nil {
		params.Set("stopPrice", b.stopPrice)
	}
	if b.icebergQty != nil {
		params.Set("icebergQty", b.icebergQty)
	}
	if b.clientOrderID != "" {
		params.Set("newClientOrderId", b.clientOrderID)
	}

	if err := binance.Validate(params, binance.NewOrderRequired()); err != nil {
		return nil, err
	}
	for _, name := range []string{"quantity", "price", "stopPrice", "icebergQty"} {
		v, ok := params.Get(name)
		if !ok {
			continue
		}
		if d := v.(*apd.Decimal); d.Sign() <= 0 {
			return nil, &core.ValidationError{Param: name, Reason: "must be positive"}
		}
	}
	return params, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *core.Params {
	params, err := b.Build()
	if err != nil {
		panic(err)
	}
	return params
}
