package refdb

import (
	"context"
	"strings"

	domain "refdatasync/internal/domain/entity/refdata"
	"refdatasync/internal/domain/interfaces"
	"refdatasync/internal/infrastructure/refdb/procedures"
	"refdatasync/internal/infrastructure/refdb/tables"
)

const (
	BackendProcedures = "procedures"
	BackendTables     = "tables"
)

type Options struct {
	Backend string
	Dialect string
	DSN     string
	Codes   domain.StateCodes
}

// Open connects to the reference database. The procedures backend talks to
// an existing Postgres schema through its insert functions; the tables
// backend manages its own schema with gorm.
func Open(ctx context.Context, opts Options) (interfaces.ReferenceDataGateway, error) {
	if strings.TrimSpace(opts.DSN) == "" {
		return nil, domain.ConfigError("DATABASE_DSN is required")
	}
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendProcedures:
		repo, err := procedures.NewRepository(ctx, opts.DSN, opts.Codes)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case BackendTables:
		repo, err := tables.Open(ctx, opts.Dialect, opts.DSN, opts.Codes)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, domain.ConfigError("unknown reference database backend %q", opts.Backend)
	}
}
