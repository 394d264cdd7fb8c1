// Package storage defines the persistence interface for the similarity run history.
package storage

import (
	"context"
	"time"

	"github.com/hyperjump/semsim/internal/models"
)

// Storage defines run history operations.
type Storage interface {
	CreateRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRuns(ctx context.Context, offset, limit int) ([]*models.Run, error)
	DeleteRunsBefore(ctx context.Context, before time.Time) (int64, error)
	CountRuns(ctx context.Context) (int64, error)
	LatestSessionID(ctx context.Context) (string, error)

	Close() error
}
