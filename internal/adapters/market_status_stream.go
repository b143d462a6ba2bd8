package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/idxscope/core/internal/domain"
	"github.com/idxscope/core/pkg/decimalx"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

// Reconnection defaults for RunStream's backoff loop.
const (
	baseReconnectDelay   = 2 * time.Second
	maxReconnectDelay    = time.Minute
	maxReconnectAttempts = 10
)

// MarketStatusStreamAdapter subscribes to a live intraday tick feed and
// converts it into PriceBar updates. It is the one adapter in this package
// implementing StreamingAdapter rather than a single bounded Run: Run
// exists only to satisfy Adapter and reports that streaming sources are
// driven by Connect/Subscribe/Stream instead.
//
// Deduplication is on (symbol, time): a tick carrying a timestamp not
// strictly newer than the last one applied for that symbol is dropped.
// That same check is what sheds stale intra-bar updates when ticks for a
// symbol arrive faster than they are consumed — only the freshest survives.
type MarketStatusStreamAdapter struct {
	url  string
	conn *websocket.Conn

	mu          sync.Mutex
	seen        map[string]time.Time // symbol -> last applied tick time
	connected   bool
	stopCh      chan struct{}
	lastSymbols []string

	reconnectBaseDelay   time.Duration
	reconnectMaxDelay    time.Duration
	reconnectMaxAttempts int

	log zerolog.Logger
}

// NewMarketStatusStreamAdapter builds a MarketStatusStreamAdapter dialing url on Connect.
func NewMarketStatusStreamAdapter(url string, log zerolog.Logger) *MarketStatusStreamAdapter {
	return &MarketStatusStreamAdapter{
		url:                  url,
		seen:                 make(map[string]time.Time),
		stopCh:               make(chan struct{}),
		reconnectBaseDelay:   baseReconnectDelay,
		reconnectMaxDelay:    maxReconnectDelay,
		reconnectMaxAttempts: maxReconnectAttempts,
		log:                  log.With().Str("adapter", "market_status_stream").Logger(),
	}
}

func (a *MarketStatusStreamAdapter) Name() string                   { return "market_status_stream" }
func (a *MarketStatusStreamAdapter) Category() domain.SourceCategory { return domain.SourceOther }

func (a *MarketStatusStreamAdapter) ConfigStatus() ConfigStatus {
	if a.url == "" {
		return ConfigStatus{IsConfigured: false, MissingFields: []string{"IDXSCOPE_MARKET_STATUS_STREAM_URL"}}
	}
	return ConfigStatus{IsConfigured: true}
}

// Run is a no-op bounded run: this adapter's real work happens through
// Connect/Subscribe/Stream, driven by RunStream, which the server binary
// starts at boot.
func (a *MarketStatusStreamAdapter) Run(rc RunContext) (Result, error) {
	return Result{Message: "market_status_stream is a streaming adapter; use Connect/Subscribe/Stream"}, nil
}

// Connect dials the upstream tick feed.
func (a *MarketStatusStreamAdapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.connected {
		return nil
	}
	conn, _, err := websocket.Dial(ctx, a.url, nil)
	if err != nil {
		return domain.NewError(domain.ErrKindTransient, "dial market status stream", err)
	}
	a.conn = conn
	a.connected = true
	return nil
}

type subscribeMessage struct {
	Action  string   `json:"action"`
	Symbols []string `json:"symbols"`
}

// Subscribe sends a subscription request for symbols. The symbol list is
// remembered so RunStream can resend it after a reconnect.
func (a *MarketStatusStreamAdapter) Subscribe(symbols []string) error {
	a.mu.Lock()
	conn := a.conn
	a.lastSymbols = symbols
	a.mu.Unlock()
	if conn == nil {
		return domain.NewError(domain.ErrKindBackend, "subscribe called before connect", nil)
	}

	data, err := json.Marshal(subscribeMessage{Action: "subscribe", Symbols: symbols})
	if err != nil {
		return domain.NewError(domain.ErrKindBackend, "marshal subscribe message", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		return domain.NewError(domain.ErrKindTransient, "send subscribe message", err)
	}
	return nil
}

type tickDTO struct {
	Symbol string  `json:"symbol"`
	Time   int64   `json:"time"`
	Price  float64 `json:"price"`
	Volume int64   `json:"volume"`
}

// Stream reads ticks until ctx is cancelled or the connection closes,
// invoking onBar once per deduplicated, freshest-wins PriceBar update.
func (a *MarketStatusStreamAdapter) Stream(ctx context.Context, onBar func(domain.PriceBar)) error {
	a.mu.Lock()
	conn := a.conn
	a.mu.Unlock()
	if conn == nil {
		return domain.NewError(domain.ErrKindBackend, "stream called before connect", nil)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msgType, raw, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return domain.NewError(domain.ErrKindTransient, "read market status tick", err)
		}
		if msgType != websocket.MessageText {
			continue
		}

		var tick tickDTO
		if err := json.Unmarshal(raw, &tick); err != nil {
			a.log.Warn().Err(err).Msg("dropping malformed tick")
			continue
		}

		bar, accept := a.applyTick(tick)
		if !accept {
			continue
		}
		onBar(bar)
	}
}

// applyTick dedups on (symbol, time), dropping anything not strictly
// newer than the last tick applied for that symbol.
func (a *MarketStatusStreamAdapter) applyTick(tick tickDTO) (domain.PriceBar, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	t := time.Unix(tick.Time, 0).UTC()
	if last, ok := a.seen[tick.Symbol]; ok && !t.After(last) {
		return domain.PriceBar{}, false
	}
	a.seen[tick.Symbol] = t

	bar := domain.PriceBar{
		Symbol: tick.Symbol,
		Time:   t,
		Close:  decimalx.NewFromFloat(tick.Price),
		Volume: tick.Volume,
	}
	return bar, true
}

// Close shuts down the connection.
func (a *MarketStatusStreamAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn == nil {
		return nil
	}
	err := a.conn.Close(websocket.StatusNormalClosure, "")
	a.conn = nil
	a.connected = false
	if err != nil {
		return fmt.Errorf("close market status stream: %w", err)
	}
	return nil
}

// RunStream drives the full Connect/Subscribe/Stream lifecycle and
// automatically reconnects with exponential backoff whenever the
// connection drops, resubscribing to symbols each time. It blocks until
// ctx is cancelled or Stop is called, which is the only way this loop
// exits on a clean shutdown.
func (a *MarketStatusStreamAdapter) RunStream(ctx context.Context, symbols []string, onBar func(domain.PriceBar)) error {
	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.stopCh:
			return nil
		default:
		}

		if err := a.Connect(ctx); err != nil {
			attempt++
			a.logReconnect(attempt, err, "connect failed")
			if !a.awaitBackoff(ctx, attempt) {
				return nil
			}
			continue
		}

		if err := a.Subscribe(symbols); err != nil {
			_ = a.Close()
			attempt++
			a.logReconnect(attempt, err, "subscribe failed")
			if !a.awaitBackoff(ctx, attempt) {
				return nil
			}
			continue
		}

		attempt = 0
		streamErr := a.Stream(ctx, onBar)
		_ = a.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if streamErr == nil {
			// Upstream closed the connection cleanly; still reconnect, a
			// normal closure on a live feed is not a shutdown signal.
			streamErr = fmt.Errorf("market status stream closed by peer")
		}

		attempt++
		a.logReconnect(attempt, streamErr, "stream dropped")
		if !a.awaitBackoff(ctx, attempt) {
			return nil
		}
	}
}

func (a *MarketStatusStreamAdapter) logReconnect(attempt int, err error, msg string) {
	event := a.log.Warn()
	if attempt > a.reconnectMaxAttempts {
		event = a.log.Error()
	}
	event.Err(err).Int("attempt", attempt).Msg(msg + ", will retry with backoff")
}

// awaitBackoff waits out calculateBackoff(attempt), returning false if ctx
// is cancelled or Stop is called during the wait.
func (a *MarketStatusStreamAdapter) awaitBackoff(ctx context.Context, attempt int) bool {
	delay := a.calculateBackoff(attempt)
	select {
	case <-time.After(delay):
		return true
	case <-ctx.Done():
		return false
	case <-a.stopCh:
		return false
	}
}

// calculateBackoff computes an exponential backoff delay, capped at
// reconnectMaxDelay.
func (a *MarketStatusStreamAdapter) calculateBackoff(attempt int) time.Duration {
	delay := float64(a.reconnectBaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(a.reconnectMaxDelay) {
		delay = float64(a.reconnectMaxDelay)
	}
	return time.Duration(delay)
}

// Stop signals RunStream to exit after its current cycle and closes any
// open connection. Safe to call more than once.
func (a *MarketStatusStreamAdapter) Stop() {
	a.mu.Lock()
	select {
	case <-a.stopCh:
		a.mu.Unlock()
		return
	default:
		close(a.stopCh)
	}
	a.mu.Unlock()
	_ = a.Close()
}
