package job

import (
	"context"

	"workbridge/pkg/domain"
)

type Store interface {
	Save(ctx context.Context, j Job) error
	FindByID(ctx context.Context, id domain.JobID) (Job, error)
	ListOpen(ctx context.Context) ([]Job, error)
}
