// Command pirclient is a smoke-test harness for the client package: it
// connects to a running pirserver, retrieves one document by index, and
// prints it. It is not an interactive query shell — just enough to
// exercise internal/client end to end against a live deployment.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/exo-explore/private-search/internal/client"
	"github.com/exo-explore/private-search/internal/config"
	"github.com/exo-explore/private-search/internal/matrix"
)

func main() {
	var docIndex uint64

	root := &cobra.Command{
		Use:   "pirclient",
		Short: "fetch a single document from a pirserver deployment privately",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, docIndex)
		},
	}
	config.BindClientFlags(root)
	root.Flags().Uint64Var(&docIndex, "index", 0, "document index to retrieve")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runFetch(cmd *cobra.Command, docIndex uint64) error {
	cfg := config.LoadClientConfig()
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	seed, err := matrix.RandomSeed()
	if err != nil {
		return fmt.Errorf("pirclient: seeding randomness: %w", err)
	}
	rng := matrix.NewRandom(seed)

	sess := client.New(cfg.EmbeddingURL, cfg.ArticleURL, rng, log)

	ctx := context.Background()
	if err := sess.Connect(ctx); err != nil {
		return fmt.Errorf("pirclient: connecting: %w", err)
	}

	doc, err := sess.RetrieveDocument(ctx, docIndex)
	if err != nil {
		return fmt.Errorf("pirclient: retrieving document %d: %w", docIndex, err)
	}

	fmt.Println(doc)
	return nil
}
