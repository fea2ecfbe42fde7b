package quoter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/omniquote-labs/omniquote/metrics"
	"github.com/omniquote-labs/omniquote/provider"
	"github.com/omniquote-labs/omniquote/sentry_integration"
	"github.com/omniquote-labs/omniquote/types"
)

// maxSlippageBps rejects requests that would accept losing more than half
// the output to slippage; such values are always caller mistakes.
const maxSlippageBps = 5000

// Orchestrator runs one quote request against all eligible providers
// concurrently and returns the ranked successful quotes.
type Orchestrator struct {
	registry *provider.Registry
	timeout  time.Duration
	logger   *slog.Logger
}

func NewOrchestrator(registry *provider.Registry, timeout time.Duration, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		timeout:  timeout,
		logger:   logger.With("module", "quoter"),
	}
}

// GetQuotes validates the request, selects providers, fans the calculation
// out with a per-provider deadline, and returns successful quotes best-first.
// A slow provider delays the response by at most the deadline, never by the
// sum of all providers' latencies. With zero successes the whole request
// fails with an aggregate error carrying the attempted provider count.
func (o *Orchestrator) GetQuotes(ctx context.Context, req *types.QuoteRequest) ([]types.Quote, error) {
	if err := validate(req); err != nil {
		metrics.QuoteRequestsTotal().WithLabelValues("validation_error").Inc()
		return nil, err
	}

	selected := o.selectProviders(req)
	if len(selected) == 0 {
		metrics.QuoteRequestsTotal().WithLabelValues("no_providers").Inc()
		return nil, types.NewNoProvidersError(req.FromToken.ChainID, req.ToToken.ChainID)
	}

	transaction, ctx := sentry_integration.StartSentryTransaction(ctx, "GetQuotes", "Fanning the request out to eligible providers")
	defer transaction.Finish()

	results := make(chan types.Quote, len(selected))
	for _, p := range selected {
		go o.calculate(ctx, p, req, results)
	}
	quotes := make([]types.Quote, 0, len(selected))
	for range selected {
		quotes = append(quotes, <-results)
	}

	ranked := Rank(quotes, o.logger)
	best := ranked[:successCount(ranked)]
	metrics.RankedQuotes().Observe(float64(len(best)))
	if len(best) == 0 {
		metrics.QuoteRequestsTotal().WithLabelValues("aggregate_failure").Inc()
		o.logQuoteFailures(quotes)
		return nil, types.NewAggregateFailureError(len(selected))
	}

	metrics.QuoteRequestsTotal().WithLabelValues("ok").Inc()
	return best, nil
}

func validate(req *types.QuoteRequest) error {
	if req == nil {
		return types.NewValidationError("request", "missing request")
	}
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return types.NewValidationError("amount", "must be a positive integer")
	}
	if req.FromToken.Equal(req.ToToken) {
		return types.NewValidationError("to_token", "source and destination tokens are identical")
	}
	if req.SlippageBps > maxSlippageBps {
		return types.NewValidationError("slippage_bps", "exceeds the 50% ceiling")
	}
	return nil
}

// selectProviders filters the registry down to providers eligible for this
// request. When any specialized provider supports the route, general
// providers that also support it are dropped: a purpose-built integration
// quotes the route better than a catch-all one.
func (o *Orchestrator) selectProviders(req *types.QuoteRequest) []provider.Provider {
	disabled := make(map[types.ProviderType]struct{}, len(req.DisabledProviders))
	for _, t := range req.DisabledProviders {
		disabled[t] = struct{}{}
	}

	var eligible []provider.Provider
	hasSpecialized := false
	for _, p := range o.registry.All() {
		if _, off := disabled[p.Type()]; off {
			continue
		}
		if !p.IsSupportedRoute(req.FromToken, req.ToToken) {
			continue
		}
		eligible = append(eligible, p)
		if !p.General() {
			hasSpecialized = true
		}
	}
	if !hasSpecialized {
		return eligible
	}

	specialized := make([]provider.Provider, 0, len(eligible))
	for _, p := range eligible {
		if !p.General() {
			specialized = append(specialized, p)
		}
	}
	return specialized
}

// calculate runs one provider under its own deadline and always delivers
// exactly one quote to out. A provider missing the deadline is abandoned,
// not awaited: the inner channel is buffered so the late finisher's send
// never blocks, and its goroutine ends quietly.
func (o *Orchestrator) calculate(ctx context.Context, p provider.Provider, req *types.QuoteRequest, out chan<- types.Quote) {
	pctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	span, pctx := sentry_integration.StartSentrySpan(pctx, "calculate", "Calculating quote via "+string(p.Type()))
	defer span.Finish()

	type outcome struct {
		trade *types.Trade
		err   error
	}
	inner := make(chan outcome, 1)
	start := time.Now()
	go func() {
		trade, err := p.Calculate(pctx, req)
		inner <- outcome{trade: trade, err: err}
	}()

	quote := types.Quote{Provider: p.Type()}
	select {
	case res := <-inner:
		metrics.ProviderLatency().WithLabelValues(string(p.Type())).Observe(time.Since(start).Seconds())
		switch {
		case errors.Is(res.err, context.DeadlineExceeded):
			quote.Err = types.NewProviderTimeoutError(p.Type())
			o.recordOutcome(p.Type(), "timed_out")
			o.logger.Debug("provider missed the deadline",
				slog.String("provider", string(p.Type())),
				slog.Duration("elapsed", time.Since(start)))
		case res.err != nil:
			quote.Err = types.NewProviderError(p.Type(), res.err)
			o.recordOutcome(p.Type(), "failed")
			o.logger.Debug("provider calculation failed",
				slog.String("provider", string(p.Type())),
				slog.Any("error", res.err))
		case res.trade == nil:
			o.recordOutcome(p.Type(), "no_route")
			o.logger.Debug("provider found no route",
				slog.String("provider", string(p.Type())))
		default:
			quote.Trade = res.trade
			o.recordOutcome(p.Type(), "succeeded")
		}
	case <-pctx.Done():
		quote.Err = types.NewProviderTimeoutError(p.Type())
		o.recordOutcome(p.Type(), "timed_out")
		o.logger.Debug("provider missed the deadline",
			slog.String("provider", string(p.Type())),
			slog.Duration("elapsed", time.Since(start)))
	}
	out <- quote
}

func (o *Orchestrator) recordOutcome(t types.ProviderType, outcome string) {
	metrics.ProviderOutcomesTotal().WithLabelValues(string(t), outcome).Inc()
}

func (o *Orchestrator) logQuoteFailures(quotes []types.Quote) {
	for _, q := range quotes {
		if q.Err != nil {
			o.logger.Warn("provider produced no quote",
				slog.String("provider", string(q.Provider)),
				slog.Any("error", q.Err))
		} else if q.Trade == nil {
			o.logger.Debug("provider found no route",
				slog.String("provider", string(q.Provider)))
		}
	}
}

func successCount(ranked []types.Quote) int {
	n := 0
	for _, q := range ranked {
		if !q.Succeeded() {
			break
		}
		n++
	}
	return n
}
