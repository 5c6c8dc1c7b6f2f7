package discovery

import (
	"context"

	"dev.hon.one/netcrawl/common"
)

// Connector - Opens CLI (or other) sessions to devices.
// Connection and command timeouts are the connector's responsibility.
type Connector interface {
	Connect(ctx context.Context, ip string) (Session, error)
}

// Session - A connected device session.
type Session interface {
	// Hostname - The hostname the device reports about itself.
	Hostname() string
	// Neighbors - The unfiltered neighbor table of the device.
	Neighbors(ctx context.Context) ([]common.NeighborRecord, error)
	Close() error
}

// ConnectorFunc - Adapter to allow the use of ordinary functions as connectors.
type ConnectorFunc func(ctx context.Context, ip string) (Session, error)

// Connect - Call f(ctx, ip).
func (f ConnectorFunc) Connect(ctx context.Context, ip string) (Session, error) {
	return f(ctx, ip)
}
