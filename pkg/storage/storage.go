package storage

import (
	"context"

	"github.com/mosajjal/ecs-events-to-slack/pkg/models"
)

// Backend archives raw inbound events
type Backend interface {
	// Store saves one inbound event
	Store(ctx context.Context, record *models.ArchiveRecord) error

	// Close cleans up resources
	Close() error
}

// Config holds common archive configuration
type Config struct {
	URL             string
	CompressionType string // gzip, none
}
