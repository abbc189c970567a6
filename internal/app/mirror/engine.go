// Package mirror wires together the DLOB, its event ingestion loop, and its
// price-feed refresh loop into one long-running process component, grounded
// on the teacher's engine loop shape (cancellable context, WaitGroup-tracked
// goroutines, ticker-driven background maintenance, graceful Stop).
package mirror

import (
	"context"
	"sync"
	"time"

	dlobv1 "github.com/driftmirror/dlob-mirror/internal/domain/dlob/v1"
	ingestionv1 "github.com/driftmirror/dlob-mirror/internal/domain/ingestion/v1"
	orderv1 "github.com/driftmirror/dlob-mirror/internal/domain/order/v1"
	pricefeedv1 "github.com/driftmirror/dlob-mirror/internal/domain/pricefeed/v1"
	"github.com/driftmirror/dlob-mirror/pkg/logger"
)

// MarketRef identifies one market the engine tracks a price feed for.
type MarketRef struct {
	MarketType  orderv1.MarketType
	MarketIndex uint16
}

// Options tunes the engine's background loops.
type Options struct {
	RestingLimitPollInterval time.Duration
	PriceFeedRefreshInterval time.Duration
	MinPerpAuctionDuration   int64
}

// DefaultOptions returns sane defaults for local development.
func DefaultOptions() Options {
	return Options{
		RestingLimitPollInterval: time.Second,
		PriceFeedRefreshInterval: 500 * time.Millisecond,
		MinPerpAuctionDuration:   10,
	}
}

// Engine owns a DLOB and runs its two background actors: the single
// ingestion goroutine that applies order/order-action envelopes in order
// (the DLOB's single logical owner, per the concurrency model) and a
// price-feed refresh goroutine that keeps a local cache of each tracked
// market's oracle and fallback quote for read-only query methods.
type Engine struct {
	dlob    *dlobv1.DLOB
	reader  ingestionv1.OrderEventReader
	feed    pricefeedv1.Cache
	logger  *logger.Logger
	markets []MarketRef
	opts    Options

	mu          sync.RWMutex
	currentSlot uint64
	oracles     map[MarketRef]orderv1.OraclePriceData
	fallbacks   map[MarketRef]pricefeedv1.FallbackQuote

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine constructs an Engine over an already-initialized DLOB.
func NewEngine(dlob *dlobv1.DLOB, reader ingestionv1.OrderEventReader, feed pricefeedv1.Cache, log *logger.Logger, markets []MarketRef, opts Options) *Engine {
	return &Engine{
		dlob:      dlob,
		reader:    reader,
		feed:      feed,
		logger:    log,
		markets:   markets,
		opts:      opts,
		oracles:   make(map[MarketRef]orderv1.OraclePriceData),
		fallbacks: make(map[MarketRef]pricefeedv1.FallbackQuote),
	}
}

// Start launches the ingestion and price-feed refresh goroutines.
func (e *Engine) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	e.wg.Add(2)
	go e.runIngestionLoop()
	go e.runPriceFeedRefresh()

	e.logger.Info("mirror engine started", logger.Field{Key: "markets", Value: len(e.markets)})
	return nil
}

// Stop cancels the engine's context and waits for both loops to exit, up to
// ctx's deadline.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("mirror engine stopped gracefully")
		return nil
	case <-ctx.Done():
		e.logger.Warn("mirror engine stop timeout exceeded")
		return ctx.Err()
	}
}

// runIngestionLoop reads one envelope at a time, applies it to the DLOB,
// and only then commits the Kafka offset: a crash between apply and commit
// is recovered by re-delivery rather than lost.
func (e *Engine) runIngestionLoop() {
	defer e.wg.Done()

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("ingestion loop shutting down")
			_ = e.reader.Close()
			return
		default:
		}

		msg, envelope, err := e.reader.ReadMessage(e.ctx)
		if err != nil {
			if e.ctx.Err() != nil {
				continue
			}
			e.logger.ErrorContext(e.ctx, err, logger.Field{Key: "action", Value: "read_order_event"})
			time.Sleep(200 * time.Millisecond)
			continue
		}

		e.applyEnvelope(envelope)

		if err := e.reader.CommitMessages(e.ctx, msg); err != nil {
			e.logger.ErrorContext(e.ctx, err, logger.Field{Key: "action", Value: "commit_order_event"})
		}
	}
}

func (e *Engine) applyEnvelope(envelope *ingestionv1.OrderEventEnvelope) {
	switch envelope.Type {
	case ingestionv1.EventTypeOrderRecord:
		if envelope.OrderRecord != nil {
			e.dlob.HandleOrderRecord(*envelope.OrderRecord, envelope.Slot)
		}
	case ingestionv1.EventTypeOrderActionRecord:
		if envelope.OrderActionRecord != nil {
			e.dlob.HandleOrderActionRecord(*envelope.OrderActionRecord, envelope.Slot)
		}
	default:
		e.logger.Warn("ingestion: unknown envelope type", logger.Field{Key: "type", Value: string(envelope.Type)})
		return
	}
	e.setSlot(envelope.Slot)
}

// runPriceFeedRefresh re-reads each tracked market's oracle and fallback
// quote from the price feed cache every PriceFeedRefreshInterval, and every
// RestingLimitPollInterval nudges UpdateRestingLimitOrders forward so
// taking-limit promotion still happens on a quiet book with no incoming
// events.
func (e *Engine) runPriceFeedRefresh() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.opts.PriceFeedRefreshInterval)
	defer ticker.Stop()
	pollTicker := time.NewTicker(e.opts.RestingLimitPollInterval)
	defer pollTicker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("price feed refresh loop shutting down")
			return
		case <-ticker.C:
			e.refreshPriceFeeds()
		case <-pollTicker.C:
			e.dlob.UpdateRestingLimitOrders(e.getSlot())
		}
	}
}

func (e *Engine) refreshPriceFeeds() {
	for _, m := range e.markets {
		oracle, found, err := e.feed.GetOraclePrice(e.ctx, m.MarketType, m.MarketIndex)
		if err != nil {
			e.logger.ErrorContext(e.ctx, err, logger.Field{Key: "action", Value: "refresh_oracle_price"})
			continue
		}
		if found {
			e.setOracle(m, oracle)
		}

		quote, found, err := e.feed.GetFallbackQuote(e.ctx, m.MarketType, m.MarketIndex)
		if err != nil {
			e.logger.ErrorContext(e.ctx, err, logger.Field{Key: "action", Value: "refresh_fallback_quote"})
			continue
		}
		if found {
			e.setFallback(m, quote)
		}
	}
}

func (e *Engine) setSlot(slot uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if slot > e.currentSlot {
		e.currentSlot = slot
	}
}

func (e *Engine) getSlot() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.currentSlot
}

func (e *Engine) setOracle(m MarketRef, price orderv1.OraclePriceData) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.oracles[m] = price
}

func (e *Engine) setFallback(m MarketRef, quote pricefeedv1.FallbackQuote) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fallbacks[m] = quote
}

func (e *Engine) quote(m MarketRef) (orderv1.OraclePriceData, pricefeedv1.FallbackQuote) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.oracles[m], e.fallbacks[m]
}

// BestBid returns the current best bid for a market, using the engine's
// cached oracle and fallback quote.
func (e *Engine) BestBid(m MarketRef) (*dlobv1.OrderNode, bool) {
	oracle, fallback := e.quote(m)
	return e.dlob.BestBid(m.MarketType, m.MarketIndex, e.getSlot(), oracle, fallback.Bid)
}

// BestAsk returns the current best ask for a market, using the engine's
// cached oracle and fallback quote.
func (e *Engine) BestAsk(m MarketRef) (*dlobv1.OrderNode, bool) {
	oracle, fallback := e.quote(m)
	return e.dlob.BestAsk(m.MarketType, m.MarketIndex, e.getSlot(), oracle, fallback.Ask)
}

// GetL2 returns the aggregated order-book projection for a market, using
// the engine's cached oracle and fallback quote.
func (e *Engine) GetL2(m MarketRef, depth int, fallbackSources []dlobv1.FallbackL2Source) dlobv1.L2Book {
	oracle, fallback := e.quote(m)
	return e.dlob.GetL2(m.MarketType, m.MarketIndex, e.getSlot(), oracle, depth, fallback.Bid, fallback.Ask, fallbackSources)
}

// FindNodesToFill runs the matching sweep for a market, using the engine's
// cached oracle and fallback quote and the configured min perp auction
// duration.
func (e *Engine) FindNodesToFill(m MarketRef, ts int64, state dlobv1.StateAccount, market dlobv1.MarketAccount) []dlobv1.NodeToFill {
	oracle, fallback := e.quote(m)
	state.MinPerpAuctionDuration = e.opts.MinPerpAuctionDuration
	return e.dlob.FindNodesToFill(m.MarketType, m.MarketIndex, e.getSlot(), ts, oracle, fallback.Bid, fallback.Ask, state, market)
}

// DLOB returns the underlying DLOB for callers that need direct access
// (ingestion replay in tests, administrative queries).
func (e *Engine) DLOB() *dlobv1.DLOB {
	return e.dlob
}
