package backend

import (
	"context"

	"tesoretto/internal/ports"
)

// Backend is everything the processes need from a data store.
type Backend interface {
	ports.TemplateStore
	ports.BudgetReader
	ports.SpendReader
	ports.GoalReader
	ports.CategoryReader
	ports.Outbox
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult bundles a backend with the optional event publisher wired
// next to it.
type BackendResult struct {
	Backend Backend
	// Publisher is nil when AMQP is not configured.
	Publisher ports.EventPublisher
	Health    func(context.Context) error
	Cleanup   CleanupFunc
}

// Close runs the cleanup function, if any.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string

	// AMQP is optional for every backend.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
