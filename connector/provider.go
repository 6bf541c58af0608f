package connector

import (
	"context"

	"github.com/Konsultn-Engineering/dynq/database"
	"github.com/Konsultn-Engineering/dynq/dialect"
)

// Connection is an established pooled connection to one logical database.
type Connection interface {
	Database() database.Database
	Dialect() dialect.Dialect
	Health(ctx context.Context) error
	Stats() ConnectionStats
	Close() error
}

// Provider knows how to open pooled connections for one driver family.
type Provider interface {
	Connect(ctx context.Context, config Config) (Connection, error)
	Dialect() dialect.Dialect
}
