package binance

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"

	"binanceapi/pkg/core"
)

// Clock returns the current time; signed queries take their timestamp from it.
type Clock func() time.Time

// QueryOption configures a Query.
type QueryOption func(*Query)

// WithRecvWindow appends recvWindow=<ms> to signed queries whose params do not carry one.
// A zero window adds nothing.
func WithRecvWindow(window time.Duration) QueryOption {
	return func(q *Query) {
		q.recvWindow = window
	}
}

// WithSigningClock replaces time.Now as the timestamp source. A nil clock is ignored.
func WithSigningClock(clock Clock) QueryOption {
	return func(q *Query) {
		if clock != nil {
			q.clock = clock
		}
	}
}

// Query is an immutable path plus its encoded key=value tokens.
// Plain and Signed derive request targets from it without changing it.
type Query struct {
	path          string
	tokens        []string
	hasRecvWindow bool
	recvWindow    time.Duration
	secret        string
	clock         Clock
}

// BuildQuery encodes params in insertion order. A timestamp parameter is dropped,
// since signed queries always stamp their own.
func BuildQuery(path string, params *core.Params, secret string, opts ...QueryOption) (Query, error) {
	if path == "" {
		return Query{}, &core.ValidationError{Param: "path", Reason: "must be a non-empty string"}
	}

	q := Query{
		path:   path,
		secret: secret,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(&q)
	}

	for key, value := range params.All() {
		if key == "timestamp" {
			continue
		}
		if key == "recvWindow" {
			q.hasRecvWindow = true
		}
		q.tokens = append(q.tokens, key+"="+url.QueryEscape(formatValue(value)))
	}

	return q, nil
}

// Path returns the base path.
func (q Query) Path() string {
	return q.path
}

// Plain returns the path, followed by ?k=v&... when there are tokens.
func (q Query) Plain() string {
	if len(q.tokens) == 0 {
		return q.path
	}
	return q.path + "?" + strings.Join(q.tokens, "&")
}

// Signed returns path?<tokens>&timestamp=<ms>&signature=<hex>, where the signature covers
// everything between ? and &signature.
func (q Query) Signed() string {
	tokens := slices.Clone(q.tokens)
	if q.recvWindow > 0 && !q.hasRecvWindow {
		tokens = append(tokens, "recvWindow="+strconv.FormatInt(q.recvWindow.Milliseconds(), 10))
	}
	tokens = append(tokens, "timestamp="+strconv.FormatInt(q.clock().UnixMilli(), 10))

	payload := strings.Join(tokens, "&")
	return q.path + "?" + payload + "&signature=" + Sign(payload, q.secret)
}

func formatValue(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case core.OrderSide:
		return string(n)
	case core.OrderType:
		return string(n)
	case core.TimeInForce:
		return string(n)
	case int:
		return strconv.Itoa(n)
	case int8:
		return strconv.FormatInt(int64(n), 10)
	case int16:
		return strconv.FormatInt(int64(n), 10)
	case int32:
		return strconv.FormatInt(int64(n), 10)
	case int64:
		return strconv.FormatInt(n, 10)
	case uint:
		return strconv.FormatUint(uint64(n), 10)
	case uint8:
		return strconv.FormatUint(uint64(n), 10)
	case uint16:
		return strconv.FormatUint(uint64(n), 10)
	case uint32:
		return strconv.FormatUint(uint64(n), 10)
	case uint64:
		return strconv.FormatUint(n, 10)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case apd.Decimal:
		return n.Text('f')
	case *apd.Decimal:
		if n == nil {
			return ""
		}
		return n.Text('f')
	case bool:
		return strconv.FormatBool(n)
	default:
		return fmt.Sprint(v)
	}
}
