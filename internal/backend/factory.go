package backend

import (
	"context"
	"fmt"
	"log/slog"

	"contabile/internal/amqp"
	"contabile/internal/catalog"
	"contabile/internal/graphql"
	"contabile/internal/ledger/memory"
	"contabile/internal/services"
	"contabile/internal/storage"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case GraphQLBackend:
		return f.createGraphQLBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createGraphQLBackend(config Config) (*BackendResult, error) {
	client := graphql.NewClient(config.GraphQLBaseURL)

	f.logger.Info("Initialized GraphQL backend", "base_url", config.GraphQLBaseURL)

	return &BackendResult{
		Ledger:  graphql.NewLedger(client),
		Catalog: graphql.NewCatalog(client),
		Cleanup: nil,
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// AMQP is optional; without a broker the pending scan still syncs.
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without sync", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	ledgerService := services.NewLedgerService(sqliteRepo, amqpClient)

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", amqpClient != nil)

	return &BackendResult{
		Ledger:  ledgerService,
		Catalog: f.catalogSource(config),
		Cleanup: ledgerService.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store := memory.NewFromFiles(dataDir)

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)

	return &BackendResult{
		Ledger:  store,
		Catalog: f.catalogSource(config),
		Cleanup: nil,
	}, nil
}

// catalogSource picks where product catalog pages read from: the remote API
// when one is configured, otherwise the local seed files.
func (f *DefaultFactory) catalogSource(config Config) catalog.Source {
	if config.GraphQLBaseURL != "" {
		return graphql.NewCatalog(graphql.NewClient(config.GraphQLBaseURL))
	}
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}
	return catalog.NewFromFiles(dataDir)
}
