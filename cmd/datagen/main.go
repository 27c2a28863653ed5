package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vanshika/fintrace/ringwatch/internal/generator"
	"github.com/vanshika/fintrace/ringwatch/internal/ingest"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		accounts     = flag.Int("accounts", cfg.NumAccounts, "number of background accounts")
		transactions = flag.Int("transactions", cfg.NumTransactions, "number of background transactions")
		cycles       = flag.Int("cycles", cfg.Cycles, "number of planted cycles")
		shells       = flag.Int("shell-chains", cfg.ShellChains, "number of planted shell chains")
		smurfs       = flag.Int("smurfing", cfg.SmurfReceivers, "number of planted smurfing receivers")
		span         = flag.Duration("span", cfg.Span, "time range covered by the ledger")
		seed         = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		output       = flag.String("output", "data/ledger.csv", "CSV file to write (use - for stdout)")
	)
	flag.Parse()

	cfg.NumAccounts = *accounts
	cfg.NumTransactions = *transactions
	cfg.Cycles = *cycles
	cfg.ShellChains = *shells
	cfg.SmurfReceivers = *smurfs
	cfg.Span = *span
	cfg.Seed = *seed

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dataset, err := generator.New(cfg).Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *output == "-" {
		if err := ingest.WriteCSV(os.Stdout, dataset.Transactions); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write ledger to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteFile(dataset, *output); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write ledger: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d transactions into %s (%d cycles, %d shell chains, %d smurfing receivers planted)\n",
		len(dataset.Transactions), *output, len(dataset.Planted.Cycles), len(dataset.Planted.ShellChains), len(dataset.Planted.SmurfReceivers))
}
