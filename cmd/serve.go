package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"

	"github.com/omniquote-labs/omniquote/api"
	"github.com/omniquote-labs/omniquote/config"
	"github.com/omniquote-labs/omniquote/gas"
	"github.com/omniquote-labs/omniquote/log"
	"github.com/omniquote-labs/omniquote/metrics"
	"github.com/omniquote-labs/omniquote/mq"
	"github.com/omniquote-labs/omniquote/multicall"
	"github.com/omniquote-labs/omniquote/provider"
	"github.com/omniquote-labs/omniquote/quoter"
	"github.com/omniquote-labs/omniquote/rpc"
	"github.com/omniquote-labs/omniquote/sentry_integration"
	"github.com/omniquote-labs/omniquote/store"
	"github.com/omniquote-labs/omniquote/tokens"
	"github.com/omniquote-labs/omniquote/types"
	"github.com/omniquote-labs/omniquote/util"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the omniquote API server",
		Long: `
Run the omniquote quote aggregation server.

This command starts the HTTP API that computes and ranks swap and bridge
quotes across the configured providers.

Chains, providers, database, and logging are configured via environment
variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.GetConfig()
			if err != nil {
				return err
			}

			logger := log.NewLogger(cfg)
			util.InitLimiter(cfg)
			metrics.Init()

			if scfg := cfg.GetSentryConfig(); scfg != nil {
				if err := sentry_integration.Init(scfg); err != nil {
					return err
				}
				defer sentry_integration.Flush(2 * time.Second)
			}

			client := &fiber.Client{}

			batchers := make(map[types.ChainID]*rpc.Batcher)
			aggregators := make(map[types.ChainID]*multicall.Aggregator)
			chainIDs := make([]types.ChainID, 0, len(cfg.GetChains()))
			for id, cc := range cfg.GetChains() {
				batcher := rpc.NewBatcher(id, cc.JsonRpcUrls, client, cfg.GetQueryTimeout(), logger)
				batchers[id] = batcher
				aggregators[id] = multicall.NewAggregator(batcher, cc.MulticallAddress(), logger)
				chainIDs = append(chainIDs, id)
			}

			resolver := tokens.NewResolver(aggregators, cfg.GetChains(), cfg.GetTokenCacheSize(), logger)
			gasOracle := gas.NewOracle(batchers, cfg.GetGasPriceTTL(), logger)

			registry := provider.NewRegistry()
			pcfg := cfg.GetProviderConfig()
			if pcfg.IsEnabled(types.ProviderUniswap) {
				registry.Register(provider.NewUniswap(aggregators, cfg.GetChains(), gasOracle, logger))
			}
			if pcfg.IsEnabled(types.ProviderOpenOcean) {
				registry.Register(provider.NewOpenOcean(pcfg.OpenOceanURL, client, cfg.GetQueryTimeout(), chainIDs, logger))
			}
			if pcfg.IsEnabled(types.ProviderLiFi) {
				registry.Register(provider.NewLiFi(pcfg.LiFiURL, client, cfg.GetQueryTimeout(), logger))
			}
			if pcfg.IsEnabled(types.ProviderSquid) {
				registry.Register(provider.NewSquid(pcfg.SquidURL, client, cfg.GetQueryTimeout(), logger))
			}
			logger.Info("providers registered", slog.Int("count", registry.Len()))

			orchestrator := quoter.NewOrchestrator(registry, cfg.GetQuoteTimeout(), logger)

			sinkCtx, stopSinks := context.WithCancel(context.Background())
			defer stopSinks()

			var recorder *store.Recorder
			if scfg := cfg.GetStoreConfig(); scfg.Enabled() {
				db, err := store.Open(scfg, logger)
				if err != nil {
					return err
				}
				defer db.Close() //nolint:errcheck
				if err := db.Migrate(); err != nil {
					return err
				}
				recorder = store.NewRecorder(db, logger)
				recorder.Start(sinkCtx)
			}

			var publisher *mq.Publisher
			if mqc := cfg.GetRabbitMQConfig(); mqc.Enabled {
				publisher, err = mq.NewPublisher(mqc)
				if err != nil {
					return err
				}
				defer publisher.Close() //nolint:errcheck
			}

			service := quoter.NewService(orchestrator, recorder, publisher, logger)
			server := api.New(cfg, logger, service, resolver)

			metricsServer := metrics.NewServer(cfg, logger)
			go func() {
				if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
					logger.Error("metrics server failed", slog.String("error", err.Error()))
				}
			}()

			// graceful shutdown
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sigChan
				logger.Info("shutting down...")
				if err := server.Shutdown(); err != nil {
					logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
				}
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = metricsServer.Shutdown(shutdownCtx)
				stopSinks()
				if recorder != nil {
					recorder.Wait()
				}
			}()

			return server.Start()
		},
	}

	return cmd
}
