// Command pirserver runs the two PIR endpoints (embeddings and documents)
// over a corpus directory, rebuilding the published snapshot on a timer.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/exo-explore/private-search/internal/config"
	"github.com/exo-explore/private-search/internal/corpus"
	"github.com/exo-explore/private-search/internal/matrix"
	"github.com/exo-explore/private-search/internal/service"
)

func main() {
	root := &cobra.Command{
		Use:   "pirserver",
		Short: "serve private embedding and document retrieval over a corpus",
		RunE:  runServe,
	}
	config.BindServerFlags(root)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return err
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	rebuildInterval, err := time.ParseDuration(cfg.RebuildInterval)
	if err != nil {
		return fmt.Errorf("pirserver: parsing rebuild-interval: %w", err)
	}

	seed, err := matrix.RandomSeed()
	if err != nil {
		return fmt.Errorf("pirserver: seeding randomness: %w", err)
	}
	rng := matrix.NewRandom(seed)

	log.Info("loading corpus", "dir", cfg.CorpusDir)
	initial, err := corpus.LoadAndBuild(rng, cfg.CorpusDir, cfg.PlaintextModulus)
	if err != nil {
		return fmt.Errorf("pirserver: building initial snapshot: %w", err)
	}
	store := corpus.NewStore(cfg.CorpusDir, cfg.PlaintextModulus, initial)
	log.Info("initial snapshot ready", "epoch", initial.Epoch, "articles", initial.N)

	srv := service.NewServer(store, log, cfg.EmbeddingAddr, cfg.ArticleAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watchSeed, err := matrix.RandomSeed()
	if err != nil {
		return fmt.Errorf("pirserver: seeding watch randomness: %w", err)
	}
	go store.Watch(ctx, rebuildInterval, matrix.NewRandom(watchSeed), log)

	runErr := make(chan error, 1)
	go func() { runErr <- srv.Run(ctx) }()

	<-ctx.Done()
	log.Info("shutdown signal received, draining in-flight requests")

	select {
	case err := <-runErr:
		return err
	case <-time.After(30 * time.Second):
		return fmt.Errorf("pirserver: shutdown timed out")
	}
}
