package repository

import (
	"context"

	"edu-subscription-platform/internal/domain/model"
)

// Course content is owned by an external service; this repository only reads.
type CourseRepository interface {
	FindCourse(ctx context.Context, tx Tx, id string) (*model.Course, error)
	FindLevel(ctx context.Context, tx Tx, id string) (*model.CourseLevel, error)
}
