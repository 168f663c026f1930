package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ingredient-extractor/internal/core/ai/cache"
	"ingredient-extractor/internal/core/ai/openrouter"
	"ingredient-extractor/internal/core/ai/provider"
	"ingredient-extractor/internal/core/ai/service"
	"ingredient-extractor/internal/core/extraction"
	"ingredient-extractor/internal/infrastructure/config"
	"ingredient-extractor/internal/pkg/common"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// 輸出檢視
const (
	viewFull     = "full"
	viewShopping = "shopping"
	viewPantry   = "pantry"
)

type cliOptions struct {
	file    string
	json    bool
	batch   bool
	offline bool
	view    string
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "extract: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := pflag.NewFlagSet("extract", pflag.ContinueOnError)
	opts := cliOptions{}
	fs.StringVarP(&opts.file, "file", "f", "", "recipe file to read (default stdin)")
	fs.BoolVar(&opts.json, "json", false, "input is a JSON recipe object")
	fs.BoolVar(&opts.batch, "batch", false, "input is a JSON array of {id, recipe, raw_text}")
	fs.BoolVar(&opts.offline, "offline", false, "skip all LLM calls and use the deterministic pipeline")
	fs.StringVar(&opts.view, "view", viewFull, "output view: full, shopping or pantry")
	fs.Float64("min-confidence", 0, "minimum confidence for shopping list entries")
	fs.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.String("log-file", "", "also write logs to this file")
	fs.Int("workers", 0, "concurrent extractions in batch mode")
	fs.String("model", "", "override the primary OpenRouter model")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	switch opts.view {
	case viewFull, viewShopping, viewPantry:
	default:
		return fmt.Errorf("%w: unknown view %q", common.ErrInvalidInput, opts.view)
	}

	// 載入設定
	cfg, err := config.LoadConfig(fs)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("openrouter_api_key", cfg.MaskedAPIKey()),
		zap.String("openrouter_model", cfg.OpenRouter.Model),
		zap.Bool("openrouter_enabled", cfg.OpenRouter.Enabled),
		zap.String("cache_type", cfg.Cache.Type),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化 LLM 與快取
	var invoker provider.Invoker
	var svc *service.Service
	if cfg.OpenRouter.Enabled && !opts.offline {
		store, err := cache.NewStore(cfg.Cache)
		if err != nil {
			common.LogWarn("快取初始化失敗，改為不使用快取", zap.Error(err))
			store = nil
		}
		if store != nil {
			defer store.Close()
		}

		client := openrouter.NewClient(cfg.OpenRouter)
		defer client.Close()

		svc = service.NewService(client, store, client.Model())
		invoker = svc
	} else {
		common.LogInfo("LLM 已停用，使用離線擷取")
	}

	// 初始化指標
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := extraction.NewMetrics(reg)
	if svc != nil {
		metrics.ObserveCache(svc.Stats)
	}
	if cfg.Metrics.Addr != "" {
		srv := startMetricsServer(cfg.Metrics.Addr, reg)
		defer shutdownServer(srv)
	}

	orchestrator := extraction.NewOrchestrator(invoker, cfg, extraction.WithMetrics(metrics))
	extractOpts := extraction.Options{
		MinConfidence: cfg.Extraction.MinConfidence,
		DisableLLM:    opts.offline,
	}

	input, err := readInput(opts.file, stdin)
	if err != nil {
		return err
	}

	if opts.batch {
		var items []extraction.BatchItem
		if err := common.ParseJSONBytes(input, &items); err != nil {
			return fmt.Errorf("invalid batch input: %w", err)
		}
		results, err := orchestrator.ExtractBatch(ctx, items, extractOpts)
		if err != nil {
			return err
		}
		if opts.view == viewShopping {
			return writeJSON(stdout, extraction.ConsolidateShoppingList(results, extractOpts.MinConfidence))
		}
		return writeJSON(stdout, results)
	}

	var recipe *common.RecipeData
	rawText := string(input)
	if opts.json {
		recipe = &common.RecipeData{}
		if err := common.ParseJSONBytes(input, recipe); err != nil {
			return fmt.Errorf("invalid recipe JSON: %w", err)
		}
		rawText = ""
	}

	result := orchestrator.ExtractIngredients(ctx, recipe, rawText, extractOpts)
	switch opts.view {
	case viewShopping:
		return writeJSON(stdout, result.ShoppingList)
	case viewPantry:
		return writeJSON(stdout, result.PantryCheck)
	}
	return writeJSON(stdout, result)
}

func readInput(file string, stdin io.Reader) ([]byte, error) {
	if file == "" || file == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func startMetricsServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		common.LogInfo("啟動指標服務", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogError("Failed to start metrics server", zap.Error(err))
		}
	}()
	return srv
}

func shutdownServer(srv *http.Server) {
	// 設置關閉超時
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Metrics server forced to shutdown", zap.Error(err))
	}
}
