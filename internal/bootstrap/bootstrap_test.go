package bootstrap

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"refdatasync/internal/application/service/pipeline"
	"refdatasync/internal/config"
	domain "refdatasync/internal/domain/entity/refdata"
	"refdatasync/internal/infrastructure/exchanges"
)

func testConfig() *config.Config {
	return &config.Config{
		Database:    config.DatabaseConfig{Backend: "tables", Dialect: "sqlite", DSN: ":memory:"},
		States:      domain.DefaultStateCodes(),
		Exchanges:   exchanges.DefaultSettings(),
		HTTPTimeout: time.Second,
	}
}

func TestNewWithoutSinks(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	rt := New(context.Background(), testConfig(), log)
	defer rt.Close()

	if rt.Service == nil || rt.Reports != nil {
		t.Fatalf("runtime = %+v", rt)
	}
	sources := rt.Registry.Sources()
	if len(sources) != 5 || sources[0].Name != exchanges.NameFTX {
		t.Fatalf("sources = %+v", sources)
	}
}

func TestUnknownExchangeIsFatal(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	rt := New(context.Background(), testConfig(), log)
	defer rt.Close()

	_, err := rt.Service.Run(context.Background(), pipeline.RunOptions{Exchange: "Bitstamp"})
	if !errors.Is(err, domain.ErrFatalConfig) {
		t.Fatalf("err = %v, want ErrFatalConfig", err)
	}
}
