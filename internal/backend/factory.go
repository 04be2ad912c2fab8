package backend

import (
	"context"
	"fmt"
	"log/slog"

	"tesoretto/internal/amqp"
	applog "tesoretto/internal/log"
	"tesoretto/internal/ports/memory"
	"tesoretto/internal/storage"
)

var _ Factory = (*DefaultFactory)(nil)

type DefaultFactory struct {
	logger *slog.Logger
	// dial connects the event publisher; replaced in tests.
	dial func(url, exchange, queue string) (*amqp.Client, error)
}

func NewFactory(logger *slog.Logger) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
		dial:   amqp.NewClient,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case MemoryBackend:
		result = f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	f.attachPublisher(result, config)
	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Backend: repo,
		Health:  repo.Ping,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() *BackendResult {
	f.logger.Info("Initialized memory backend")
	return &BackendResult{Backend: memory.New()}
}

// attachPublisher connects AMQP when configured. When the broker cannot be
// reached yet, a deferred client is attached instead: publishes fail until
// it comes up, and the outbox relay drains what was missed.
func (f *DefaultFactory) attachPublisher(result *BackendResult, config Config) {
	if config.AMQPURL == "" {
		return
	}
	client, err := f.dial(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("AMQP broker unreachable, will retry on publish", applog.FieldError, err)
		client = amqp.NewDeferredClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	} else {
		f.logger.Info("Initialized AMQP client",
			"exchange", config.AMQPExchange,
			"queue", config.AMQPQueue)
	}

	result.Publisher = client
	storeCleanup := result.Cleanup
	result.Cleanup = func() error {
		err := client.Close()
		if storeCleanup != nil {
			if cerr := storeCleanup(); cerr != nil {
				return cerr
			}
		}
		return err
	}
}
