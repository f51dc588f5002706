package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	domain "refdatasync/internal/domain/entity/refdata"
)

func TestPrintSummary(t *testing.T) {
	started := time.Date(2021, 3, 26, 0, 0, 0, 0, time.UTC)
	report := &domain.Report{
		Exchange:        "Binance Futures",
		Mode:            domain.ModeInsert,
		DryRun:          true,
		StartedAt:       started,
		FinishedAt:      started.Add(1500 * time.Millisecond),
		SourcesRead:     []string{"Binance Futures"},
		SymbolsInserted: []domain.InsertedSymbol{{PairCode: "BTCUSDT", Symbol: "btc-usdt", Type: domain.PerpetualFutureType}},
		Rejected:        []domain.Rejection{{PairCode: "XYZUSDT", Symbol: "xyz-usdt", Reason: "unknown base or quote asset", MissingAssets: []string{"xyz"}}},
		SymbolFailures:  []domain.Failure{{Key: "ETHUSDT", Error: "duplicate key"}},
	}

	var buf bytes.Buffer
	printSummary(&buf, report)
	out := buf.String()

	for _, want := range []string{
		"insert (dry run)",
		"1.5s",
		"symbols inserted: 1",
		"+ BTCUSDT btc-usdt (perpetual-future)",
		"- XYZUSDT xyz-usdt: unknown base or quote asset [xyz]",
		"symbol failures: 1",
		"state transitions: 0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "asset failures") {
		t.Errorf("empty failure section printed:\n%s", out)
	}
}

func TestSourcesCommand(t *testing.T) {
	app := newApp()
	var buf bytes.Buffer
	app.Writer = &buf

	if err := app.RunContext(context.Background(), []string{"refdata", "sources"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("output:\n%s", buf.String())
	}
	if !strings.HasPrefix(lines[1], "FTX") || !strings.HasPrefix(lines[5], "BinanceDEX") {
		t.Fatalf("merge order wrong:\n%s", buf.String())
	}
}

func TestSyncRequiresExchange(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	app.ErrWriter = &bytes.Buffer{}
	if err := app.RunContext(context.Background(), []string{"refdata", "sync"}); err == nil {
		t.Fatal("expected missing --exchange error")
	}
}
