package quoter

import (
	"context"
	"log/slog"
	"time"

	"github.com/omniquote-labs/omniquote/mq"
	"github.com/omniquote-labs/omniquote/store"
	"github.com/omniquote-labs/omniquote/types"
)

// Service fronts the orchestrator and fans served quotes out to the optional
// sinks: the history database and the event stream. Both sinks are best
// effort and never fail a quote response.
type Service struct {
	orchestrator *Orchestrator
	recorder     *store.Recorder
	publisher    *mq.Publisher
	logger       *slog.Logger
}

func NewService(orchestrator *Orchestrator, recorder *store.Recorder, publisher *mq.Publisher, logger *slog.Logger) *Service {
	return &Service{
		orchestrator: orchestrator,
		recorder:     recorder,
		publisher:    publisher,
		logger:       logger.With("module", "quoter"),
	}
}

func (s *Service) GetQuotes(ctx context.Context, req *types.QuoteRequest) ([]types.Quote, error) {
	start := time.Now()
	quotes, err := s.orchestrator.GetQuotes(ctx, req)
	if err != nil {
		return nil, err
	}
	s.sink(req, quotes, time.Since(start))
	return quotes, nil
}

func (s *Service) sink(req *types.QuoteRequest, quotes []types.Quote, elapsed time.Duration) {
	if s.recorder == nil && s.publisher == nil {
		return
	}

	succeeded := make([]string, 0, len(quotes))
	for _, q := range quotes {
		succeeded = append(succeeded, string(q.Provider))
	}
	best := quotes[0]

	if s.recorder != nil {
		s.recorder.Record(&store.QuoteRecord{
			CreatedAt:    time.Now().UTC(),
			FromChainID:  uint64(req.FromToken.ChainID),
			ToChainID:    uint64(req.ToToken.ChainID),
			FromToken:    req.FromToken.Address.Hex(),
			ToToken:      req.ToToken.Address.Hex(),
			FromAmount:   req.Amount.String(),
			BestProvider: string(best.Provider),
			BestToAmount: best.Trade.ToAmount.String(),
			Succeeded:    succeeded,
			LatencyMs:    elapsed.Milliseconds(),
		})
	}

	if s.publisher != nil {
		event := &mq.QuoteEvent{
			FromChainID:  uint64(req.FromToken.ChainID),
			ToChainID:    uint64(req.ToToken.ChainID),
			FromToken:    req.FromToken.Address.Hex(),
			ToToken:      req.ToToken.Address.Hex(),
			FromAmount:   req.Amount.String(),
			BestProvider: string(best.Provider),
			BestToAmount: best.Trade.ToAmount.String(),
			Succeeded:    succeeded,
			LatencyMs:    elapsed.Milliseconds(),
		}
		go func() {
			if err := s.publisher.Publish(event); err != nil {
				s.logger.Warn("failed to publish quote event", slog.Any("error", err))
			}
		}()
	}
}
