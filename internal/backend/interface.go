// Package backend wires a concrete data layer from configuration: the
// remote GraphQL API, the local sqlite ledger with AMQP sync, or the
// in-memory store for development.
package backend

import (
	"context"

	"contabile/internal/catalog"
	"contabile/internal/ledger"
)

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// BackendResult bundles the ledger and catalog a backend provides.
type BackendResult struct {
	Ledger  ledger.Store
	Catalog catalog.Source
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type BackendType

	// GraphQL specific
	GraphQLBaseURL string

	// SQLite specific
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Memory backend and local catalog seeds
	DataDirectory string
}

// BackendType represents the type of backend.
type BackendType string

const (
	GraphQLBackend BackendType = "graphql"
	SQLiteBackend  BackendType = "sqlite"
	MemoryBackend  BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid.
func (bt BackendType) IsValid() bool {
	switch bt {
	case GraphQLBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
