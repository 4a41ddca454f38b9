package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/advisor/config"
	"github.com/mohammad-safakhou/advisor/internal/agents"
	"github.com/mohammad-safakhou/advisor/internal/conversation"
	"github.com/mohammad-safakhou/advisor/internal/llm"
	"github.com/mohammad-safakhou/advisor/internal/market"
	"github.com/mohammad-safakhou/advisor/internal/orchestration"
	"github.com/mohammad-safakhou/advisor/internal/rag"
	"github.com/mohammad-safakhou/advisor/internal/store"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat session in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cfgPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return runChat(cfg)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cfg *config.Config) error {
	logger := log.New(os.Stderr, "[CHAT] ", log.LstdFlags)

	retriever, err := rag.NewBleveRetriever(cfg.RAG.DataDir)
	if err != nil {
		return fmt.Errorf("building knowledge index: %w", err)
	}

	var client llm.Client
	if cfg.LLM.APIKey != "" {
		client = llm.NewOpenAIClient(cfg.LLM)
	}
	var provider market.Provider
	if cfg.Market.Endpoint != "" {
		provider = market.NewHTTPProvider(cfg.Market)
	}

	registry := agents.NewRegistry(agents.Deps{
		LLM: client, Retriever: retriever, Market: provider, RAG: cfg.RAG, Logger: logger,
	})
	executor := orchestration.NewExecutor(registry, cfg.Execution, nil, logger)
	router := orchestration.NewRouter(cfg.Routing.Strategy, client, logger)
	workflow := orchestration.NewWorkflow(cfg, router, executor, store.NewMemoryAuditStore(), nil, logger)

	sessions := conversation.NewMemoryStore()
	sessionID := "local"
	ctx := context.Background()

	fmt.Println("advisor chat. Ask a financial question, or type exit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		state, _ := sessions.Load(ctx, sessionID)
		result := workflow.Run(ctx, orchestration.Request{
			Message:   line,
			SessionID: sessionID,
			History:   state.History,
			Summary:   state.Summary,
		})

		fmt.Println()
		fmt.Println(result.Response)
		if len(result.Citations) > 0 {
			fmt.Println("\nSources:")
			for _, c := range result.Citations {
				fmt.Printf("- %s (%s)\n", c.Title, c.SourceURL)
			}
		}
		fmt.Println()

		state.History = append(state.History,
			conversation.Message{Role: "user", Content: line},
			conversation.Message{Role: "assistant", Content: result.Response},
		)
		_ = sessions.Save(ctx, sessionID, state)
	}
}
