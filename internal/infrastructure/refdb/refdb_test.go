package refdb

import (
	"context"
	"errors"
	"testing"

	domain "refdatasync/internal/domain/entity/refdata"
)

func TestOpenValidatesOptions(t *testing.T) {
	ctx := context.Background()
	codes := domain.DefaultStateCodes()

	if _, err := Open(ctx, Options{Backend: BackendTables, Dialect: "sqlite", Codes: codes}); !errors.Is(err, domain.ErrFatalConfig) {
		t.Fatalf("missing DSN err = %v", err)
	}
	if _, err := Open(ctx, Options{Backend: "csv", DSN: "x", Codes: codes}); !errors.Is(err, domain.ErrFatalConfig) {
		t.Fatalf("unknown backend err = %v", err)
	}

	gw, err := Open(ctx, Options{Backend: BackendTables, Dialect: "sqlite", DSN: ":memory:", Codes: codes})
	if err != nil {
		t.Fatalf("Open tables: %v", err)
	}
	defer gw.Close()
	assets, err := gw.FetchAllAssets(ctx)
	if err != nil || len(assets) != 0 {
		t.Fatalf("FetchAllAssets = %v, %v", assets, err)
	}
}
