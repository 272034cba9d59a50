// File path: cmd/sqlpilot/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/luhcrodrigues/sqlpilot/internal/api"
	"github.com/luhcrodrigues/sqlpilot/internal/catalog"
	"github.com/luhcrodrigues/sqlpilot/internal/common"
	"github.com/luhcrodrigues/sqlpilot/internal/drift"
	"github.com/luhcrodrigues/sqlpilot/internal/intent"
	"github.com/luhcrodrigues/sqlpilot/internal/llm"
	"github.com/luhcrodrigues/sqlpilot/internal/sqlgen"
	"github.com/luhcrodrigues/sqlpilot/internal/state"
	"github.com/luhcrodrigues/sqlpilot/internal/vector"
)

func main() {
	logger := common.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		logger.Warn("sqlpilot: .env file not loaded", "error", err)
	} else {
		logger.Info("sqlpilot: environment loaded from .env")
	}

	addr := flag.String("addr", ":8080", "listen address")
	driver := flag.String("driver", "", "application database driver (sqlite or pgx)")
	dsn := flag.String("dsn", "", "application database DSN")
	statePath := flag.String("state", "", "path to the drift state database (empty disables persistence)")
	checkInterval := flag.String("check-interval", "", "interval between background drift checks (e.g. 30s, 2m)")
	flag.Parse()

	dbCfg, err := catalog.LoadConfig()
	if err != nil {
		logger.Error("sqlpilot: database config load failed", "error", err)
		fmt.Println("database config error:", err)
		os.Exit(1)
	}
	if trimmed := strings.TrimSpace(*driver); trimmed != "" {
		dbCfg.Driver = trimmed
	}
	if trimmed := strings.TrimSpace(*dsn); trimmed != "" {
		dbCfg.DSN = trimmed
	}

	logger.Info("sqlpilot: startup initiated", "addr", *addr, "driver", dbCfg.Driver)

	inspector, db, err := catalog.Open(dbCfg)
	if err != nil {
		logger.Error("sqlpilot: database connection failed", "error", err)
		fmt.Println("database error:", err)
		os.Exit(1)
	}
	defer db.Close()

	provider := llm.NewProvider()
	logger.Info("sqlpilot: llm provider ready", "provider", provider.Name())

	vectorClient, err := vector.NewFromEnv(ctx)
	if err != nil {
		logger.Error("sqlpilot: chromadb config load failed", "error", err)
		fmt.Println("chromadb config error:", err)
		os.Exit(1)
	}
	defer vectorClient.Close()
	if vectorClient.Available() {
		logger.Info("sqlpilot: chromadb available", "collection", vectorClient.Collection())
	} else {
		logger.Warn("sqlpilot: chromadb unreachable, answering without semantic index", "collection", vectorClient.Collection())
	}

	index := vector.NewIndex(vectorClient, provider)
	cache := intent.NewCache()
	classifier := intent.NewClassifier(provider, cache)
	orchestrator := drift.NewOrchestrator(index, cache)

	opts := []drift.Option{drift.WithInvalidator(orchestrator)}
	var stateStore *state.Store
	if trimmed := strings.TrimSpace(*statePath); trimmed != "" {
		stateStore, err = state.Open(trimmed)
		if err != nil {
			logger.Error("sqlpilot: state store open failed", "path", trimmed, "error", err)
			fmt.Println("state store error:", err)
			os.Exit(1)
		}
		defer stateStore.Close()
		opts = append(opts, drift.WithHistory(stateStore))
	}
	monitor := drift.NewMonitor(inspector, opts...)
	if stateStore != nil {
		if err := monitor.Restore(ctx); err != nil {
			logger.Warn("sqlpilot: drift state restore failed, starting fresh", "error", err)
		}
	}

	if _, err := monitor.Check(ctx); err != nil {
		// Not fatal: the next cycle or chat request retries the catalog.
		logger.Warn("sqlpilot: initial drift check failed", "error", err)
	} else {
		logger.Info("sqlpilot: baseline observed", "database", monitor.Database(), "tables", len(monitor.Tables()))
	}

	if trimmed := strings.TrimSpace(*checkInterval); trimmed != "" {
		interval, err := time.ParseDuration(trimmed)
		if err != nil {
			logger.Error("sqlpilot: invalid check interval", "value", trimmed, "error", err)
			fmt.Println("check interval error:", err)
			os.Exit(1)
		}
		go runPeriodicChecks(ctx, monitor, interval)
	}

	generator := sqlgen.NewGenerator(provider, dbCfg.Driver)
	executor := sqlgen.NewExecutor(db, sqlgen.DefaultRowLimit, 30*time.Second)

	server, err := api.NewServer(monitor, classifier, index, generator, executor, provider)
	if err != nil {
		logger.Error("sqlpilot: server construction failed", "error", err)
		fmt.Println("server error:", err)
		os.Exit(1)
	}

	logger.Info("sqlpilot: server listening", "addr", *addr, "health", "/healthz")
	fmt.Printf("Serving on %s\n", *addr)
	if err := http.ListenAndServe(*addr, server); err != nil {
		logger.Error("sqlpilot: server stopped", "error", err)
		fmt.Println("server stopped:", err)
	}
}

func runPeriodicChecks(ctx context.Context, monitor *drift.Monitor, interval time.Duration) {
	logger := common.Logger()
	logger.Info("sqlpilot: periodic drift checks enabled", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := monitor.Check(ctx); err != nil {
				logger.Warn("sqlpilot: periodic drift check failed", "error", err)
			}
		}
	}
}
