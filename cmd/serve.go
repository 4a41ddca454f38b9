package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/advisor/config"
	"github.com/mohammad-safakhou/advisor/internal/agents"
	"github.com/mohammad-safakhou/advisor/internal/conversation"
	"github.com/mohammad-safakhou/advisor/internal/llm"
	"github.com/mohammad-safakhou/advisor/internal/market"
	"github.com/mohammad-safakhou/advisor/internal/orchestration"
	"github.com/mohammad-safakhou/advisor/internal/rag"
	"github.com/mohammad-safakhou/advisor/internal/server"
	"github.com/mohammad-safakhou/advisor/internal/store"
	"github.com/mohammad-safakhou/advisor/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the advisor HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cfgPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return runServe(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.New(os.Stdout, "[ADVISOR] ", log.LstdFlags)
	tel := telemetry.New(log.New(os.Stdout, "[TELEMETRY] ", log.LstdFlags))

	// Session store: Redis when configured, in-memory otherwise.
	var sessions conversation.Store
	if cfg.Storage.Redis.Host != "" {
		redisStore := conversation.NewRedisStore(cfg.Storage.Redis)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisStore.Ping(pingCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		sessions = redisStore
		logger.Printf("session store: redis %s:%s", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port)
	} else {
		sessions = conversation.NewMemoryStore()
		logger.Printf("session store: in-memory")
	}

	// Audit store: Postgres when configured, in-memory otherwise.
	var audit store.AuditStore
	if cfg.Storage.Postgres.Configured() {
		initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pg, err := store.NewPostgresAuditStore(initCtx, cfg.Storage.Postgres.DSN())
		cancel()
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer pg.Close()
		audit = pg
		logger.Printf("audit store: postgres")
	} else {
		audit = store.NewMemoryAuditStore()
		logger.Printf("audit store: in-memory")
	}

	retriever, err := rag.NewBleveRetriever(cfg.RAG.DataDir)
	if err != nil {
		return fmt.Errorf("building knowledge index: %w", err)
	}

	var client llm.Client
	if cfg.LLM.APIKey != "" {
		client = llm.NewOpenAIClient(cfg.LLM)
	} else {
		logger.Printf("no model API key configured, running without generation")
	}

	var provider market.Provider
	if cfg.Market.Endpoint != "" {
		provider = market.NewHTTPProvider(cfg.Market)
	}

	registry := agents.NewRegistry(agents.Deps{
		LLM:       client,
		Retriever: retriever,
		Market:    provider,
		RAG:       cfg.RAG,
		Logger:    log.New(os.Stdout, "[AGENTS] ", log.LstdFlags),
	})
	executor := orchestration.NewExecutor(registry, cfg.Execution, tel,
		log.New(os.Stdout, "[EXEC] ", log.LstdFlags))
	router := orchestration.NewRouter(cfg.Routing.Strategy, client,
		log.New(os.Stdout, "[ROUTER] ", log.LstdFlags))
	workflow := orchestration.NewWorkflow(cfg, router, executor, audit, tel,
		log.New(os.Stdout, "[ORCH] ", log.LstdFlags))

	if cfg.Telemetry.Enabled && cfg.Telemetry.PeriodicLogs {
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					tel.LogSummary()
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	srv := server.New(cfg, workflow, sessions, audit, tel,
		log.New(os.Stdout, "[HTTP] ", log.LstdFlags))
	return srv.Start(ctx)
}
