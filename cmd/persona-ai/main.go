package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/persona-ai/cli/config"
	"github.com/persona-ai/cli/internal/db"
	"github.com/persona-ai/cli/internal/embeddings"
	"github.com/persona-ai/cli/internal/ingest"
	"github.com/persona-ai/cli/internal/store/postgres"
	"github.com/persona-ai/cli/internal/tui"
	"github.com/persona-ai/cli/migrations"
)

func main() {
	var (
		migrateFlag = flag.Bool("migrate", false, "Run database migrations and exit")
		ingestFlag  = flag.String("ingest", "", "Rebuild the given persona's collection from its source file and exit")
		sourceFlag  = flag.String("source", "", "Source file for -ingest (defaults to <sources_dir>/<persona>.txt)")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *migrateFlag {
		if err := runMigrations(cfg.Database.ConnectionString); err != nil {
			fmt.Fprintf(os.Stderr, "Error running migrations: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Migrations completed successfully")
		return
	}

	if *ingestFlag != "" {
		if err := runIngest(cfg, *ingestFlag, *sourceFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error ingesting %s: %v\n", *ingestFlag, err)
			os.Exit(1)
		}
		return
	}

	// Ensure the sources directory exists
	if err := os.MkdirAll(cfg.Paths.SourcesDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating sources directory: %v\n", err)
		os.Exit(1)
	}

	// Apply migrations on startup so a fresh database just works
	if err := runMigrations(cfg.Database.ConnectionString); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: migration check failed: %v\n", err)
		// Continue anyway - migrations might already be applied
	}

	// Create and run TUI
	app, err := tui.NewApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing app: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running app: %v\n", err)
		os.Exit(1)
	}
}

// runMigrations applies the embedded schema
func runMigrations(connString string) error {
	database, err := db.New(connString)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	return migrations.Apply(context.Background(), database.Pool())
}

// runIngest rebuilds one persona's collection from the command line
func runIngest(cfg *config.Config, persona, sourcePath string) error {
	if sourcePath == "" {
		sourcePath = filepath.Join(cfg.Paths.SourcesDir, persona+".txt")
	}

	database, err := db.New(cfg.Database.ConnectionString)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := migrations.Apply(context.Background(), database.Pool()); err != nil {
		return err
	}

	embedder := embeddings.NewTextEmbedder(cfg.Ollama.BaseURL, cfg.Ollama.EmbeddingModel)
	vectorStore := postgres.New(database.Pool())

	pipeline, err := ingest.New(vectorStore, embedder, cfg.Chunking.ChunkSize, cfg.Chunking.Overlap, slog.Default())
	if err != nil {
		return err
	}

	count, err := pipeline.Ingest(context.Background(), persona, sourcePath)
	if err != nil {
		return err
	}

	fmt.Printf("Stored %d chunks for %s\n", count, persona)
	return nil
}
