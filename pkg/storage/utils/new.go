// Package storageutils builds a storage.Driver from configuration.
package storageutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Rahi-padwal/linkRecall/pkg/storage"
	badgerstore "github.com/Rahi-padwal/linkRecall/pkg/storage/badger"
	"github.com/Rahi-padwal/linkRecall/pkg/storage/inmemory"
	"github.com/Rahi-padwal/linkRecall/pkg/storage/postgres"
	"github.com/Rahi-padwal/linkRecall/pkg/storage/sqlite"
)

const (
	ProviderMemory   = "memory"
	ProviderSQLite   = "sqlite"
	ProviderPostgres = "postgres"
	ProviderBadger   = "badger"
)

type NewDriverOpts struct {
	ProviderType string
	SQLitePath   string
	PostgresDSN  string
	BadgerPath   string
	Dimensions   int
}

func NewDriver(ctx context.Context, o *NewDriverOpts, logger *slog.Logger) (storage.Driver, error) {
	switch o.ProviderType {
	case ProviderMemory, "":
		return inmemory.NewDriver(o.Dimensions), nil
	case ProviderSQLite:
		return sqlite.NewDriver(sqlite.Config{
			DBPath:     o.SQLitePath,
			Dimensions: o.Dimensions,
		}, logger)
	case ProviderPostgres:
		return postgres.NewDriver(ctx, postgres.Config{
			ConnString: o.PostgresDSN,
			Dimensions: o.Dimensions,
		}, logger)
	case ProviderBadger:
		return badgerstore.NewDriver(badgerstore.Config{
			Path:       o.BadgerPath,
			Dimensions: o.Dimensions,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", o.ProviderType)
	}
}
