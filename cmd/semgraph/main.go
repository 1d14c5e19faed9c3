package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/OFFIS-RIT/semgraph/internal/config"
	"github.com/OFFIS-RIT/semgraph/internal/util"
	"github.com/OFFIS-RIT/semgraph/pkg/ai"
	"github.com/OFFIS-RIT/semgraph/pkg/common"
	"github.com/OFFIS-RIT/semgraph/pkg/graph"
	"github.com/OFFIS-RIT/semgraph/pkg/leaselock"
	"github.com/OFFIS-RIT/semgraph/pkg/loader"
	"github.com/OFFIS-RIT/semgraph/pkg/loader/html"
	loaderio "github.com/OFFIS-RIT/semgraph/pkg/loader/io"
	"github.com/OFFIS-RIT/semgraph/pkg/logger"
	"github.com/OFFIS-RIT/semgraph/pkg/logger/console"
	pgxstore "github.com/OFFIS-RIT/semgraph/pkg/store/pgx"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	textsDir := flag.String("texts", "", "directory of corpus text files to analyse")
	conceptsPath := flag.String("concepts", "", "JSON file of pre-extracted concepts")
	outPath := flag.String("out", "", "output file for the graph JSON (default stdout)")
	persist := flag.Bool("persist", false, "store the snapshot in the database")
	corpus := flag.String("corpus", "default", "corpus key snapshots are stored under")
	flag.Parse()

	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: util.GetEnvBool("DEBUG", false),
		JSON:  util.GetEnv("LOG_FORMAT") == "json",
	})
	logger.Init(consoleLogger)
	logger.SetDefaultFields("corpus", *corpus)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", "err", err)
	}

	exclusions, err := graph.LoadExclusions(cfg.ExclusionsPath)
	if err != nil {
		logger.Fatal("Failed to load exclusions", "path", cfg.ExclusionsPath, "err", err)
	}

	if (*textsDir == "") == (*conceptsPath == "") {
		logger.Fatal("Exactly one of -texts and -concepts is required")
	}

	client, err := graph.NewGraphClient(graph.NewGraphClientParams{
		TokenEncoder:   cfg.Extractor.TokenEncoder,
		ParallelDocs:   cfg.Extractor.ParallelDocs,
		MaxRetries:     cfg.Extractor.MaxRetries,
		RetryDelay:     cfg.Extractor.RetryDelay,
		MaxTokens:      cfg.Extractor.MaxTokens,
		SkipFailedDocs: cfg.Extractor.SkipFailedDocs,
	})
	if err != nil {
		logger.Fatal("Failed to create graph client", "err", err)
	}

	docs, err := loadDocuments(ctx, cfg, client, *textsDir, *conceptsPath)
	if err != nil {
		logger.Fatal("Failed to obtain concepts", "err", err)
	}

	filter, clean := cfg.Filter.Options()
	build := func(ctx context.Context, save func(context.Context, *graph.SemanticGraph) error) error {
		sg, err := client.BuildGraph(ctx, docs, exclusions, filter, clean, cfg.Pipeline.Params())
		if err != nil {
			return err
		}
		if err := writeOutput(*outPath, sg); err != nil {
			return err
		}
		if save != nil {
			return save(ctx, sg)
		}
		return nil
	}

	if !*persist {
		if err := build(ctx, nil); err != nil {
			logger.Fatal("Failed to build semantic graph", "err", err)
		}
		return
	}

	if err := pgxstore.Migrate(cfg.Store.DatabaseURL, cfg.Store.MigrationsPath); err != nil {
		logger.Fatal("Failed to migrate database", "err", err)
	}
	pool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pool.Close()

	snapshots := pgxstore.NewSnapshotDBStorage(pool)
	locker := leaselock.New(pool)
	err = locker.WithLease(ctx, "corpus:"+*corpus, leaselock.Options{
		TTL:          cfg.Store.LeaseTTL,
		Wait:         true,
		HolderPrefix: "semgraph-",
	}, func(ctx context.Context) error {
		return build(ctx, func(ctx context.Context, sg *graph.SemanticGraph) error {
			return snapshots.SaveSnapshot(ctx, *corpus, sg)
		})
	})
	if err != nil {
		logger.Fatal("Failed to build semantic graph", "err", err)
	}
}

func loadDocuments(
	ctx context.Context,
	cfg *config.Config,
	client *graph.GraphClient,
	textsDir, conceptsPath string,
) ([]common.Document, error) {
	if conceptsPath != "" {
		return loader.LoadConcepts(conceptsPath)
	}

	files, err := loader.ListCorpus(textsDir)
	if err != nil {
		return nil, err
	}
	texts, err := loader.LoadTexts(ctx, files, html.NewHTMLLoader(loaderio.NewIOLoader()))
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded corpus", "dir", textsDir, "documents", len(texts))

	extractor, err := newExtractor(cfg.Extractor)
	if err != nil {
		return nil, err
	}
	return client.AnalyzeCorpus(ctx, texts, extractor,
		ai.WithLimit(cfg.Extractor.Limit),
		ai.WithTemperature(cfg.Extractor.Temperature),
	)
}

func writeOutput(path string, sg *graph.SemanticGraph) error {
	data, err := json.MarshalIndent(sg, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
