package contract

import (
	"context"

	"ai-meeting-be/internal/entity"
	"ai-meeting-be/internal/repository/specification"
)

type TaskRepository interface {
	Create(ctx context.Context, task *entity.Task) error
	CreateBulk(ctx context.Context, tasks []*entity.Task) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Task, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
