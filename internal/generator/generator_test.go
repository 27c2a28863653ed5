package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/vanshika/fintrace/ringwatch/internal/detector"
	"github.com/vanshika/fintrace/ringwatch/internal/ingest"
	"github.com/vanshika/fintrace/ringwatch/internal/txgraph"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.NumAccounts = 50
	cfg.NumTransactions = 200
	cfg.Seed = 7
	return cfg
}

func contains(haystack [][]string, needle []string) bool {
	for _, p := range haystack {
		if reflect.DeepEqual(p, needle) {
			return true
		}
	}
	return false
}

func TestGenerate_PlantedPatternsAreDetected(t *testing.T) {
	ds, err := New(smallConfig()).Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(ds.Planted.Cycles) != 5 || len(ds.Planted.ShellChains) != 3 || len(ds.Planted.SmurfReceivers) != 3 {
		t.Fatalf("unexpected planted set %+v", ds.Planted)
	}

	for i, r := range ds.Planted.SmurfReceivers {
		if want := fmt.Sprintf("SMF%02d_MULE", i); r != want {
			t.Fatalf("smurfing receiver %d: got %q, want %q", i, r, want)
		}
	}

	th := detector.DefaultThresholds()
	g := txgraph.Build(ds.Transactions)

	cycles := detector.Cycles(g, th.CycleMinLength, th.CycleMaxLength)
	for _, c := range ds.Planted.Cycles {
		if !contains(cycles, c) {
			t.Errorf("planted cycle %v not detected", c)
		}
	}

	chains := detector.ShellChains(g, th.ShellMinHops, th.ShellMaxHops, th.ShellMaxInteriorDegree)
	for _, c := range ds.Planted.ShellChains {
		if !contains(chains, c) {
			t.Errorf("planted shell chain %v not detected", c)
		}
	}

	smurfs := detector.Smurfing(ds.Transactions, th.SmurfingMinTransactions, th.SmurfingWindow)
	for _, r := range ds.Planted.SmurfReceivers {
		if !contains(smurfs, []string{r}) {
			t.Errorf("planted smurfing receiver %s not detected", r)
		}
	}
}

func TestGenerate_SortedAndDeterministic(t *testing.T) {
	first, err := New(smallConfig()).Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := New(smallConfig()).Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same seed must produce the same dataset")
	}

	for i := 1; i < len(first.Transactions); i++ {
		if first.Transactions[i].Timestamp.Before(first.Transactions[i-1].Timestamp) {
			t.Fatalf("row %d out of order", i)
		}
	}
	if first.Transactions[0].ID != "TX-0000001" {
		t.Fatalf("unexpected first id %s", first.Transactions[0].ID)
	}
}

func TestGenerate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(smallConfig()).Generate(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWriteFile_PassesValidation(t *testing.T) {
	cfg := smallConfig()
	cfg.Span = 48 * time.Hour
	ds, err := New(cfg).Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out", "ledger.csv")
	if err := WriteFile(ds, path); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	txs, stats, err := ingest.ParseCSV(f)
	if err != nil {
		t.Fatalf("generated ledger must validate: %v", err)
	}
	if len(txs) != len(ds.Transactions) || stats.DuplicateTxCount != 0 {
		t.Fatalf("unexpected parse result: %d rows, stats %+v", len(txs), stats)
	}
}

func TestNew_SubSecondSpan(t *testing.T) {
	for _, span := range []time.Duration{time.Nanosecond, 500 * time.Millisecond} {
		cfg := smallConfig()
		cfg.Span = span
		ds, err := New(cfg).Generate(context.Background())
		if err != nil {
			t.Fatalf("span %s: generate: %v", span, err)
		}
		if first := ds.Transactions[0].Timestamp; !first.Equal(cfg.Start) {
			t.Fatalf("span %s: earliest timestamp %s, want %s", span, first, cfg.Start)
		}
	}
}
