package implementation

import (
	"context"
	"errors"

	"rag-notes-be/internal/repository/specification"

	"gorm.io/gorm"
)

func scoped(ctx context.Context, db *gorm.DB, specs []specification.Specification) *gorm.DB {
	q := db.WithContext(ctx)
	for _, spec := range specs {
		q = spec.Apply(q)
	}
	return q
}

// first returns nil, nil when no row matches.
func first[M any](ctx context.Context, db *gorm.DB, specs []specification.Specification) (*M, error) {
	var m M
	err := scoped(ctx, db, specs).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func findAll[M any](ctx context.Context, db *gorm.DB, specs []specification.Specification) ([]*M, error) {
	var rows []*M
	if err := scoped(ctx, db, specs).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func count[M any](ctx context.Context, db *gorm.DB, specs []specification.Specification) (int64, error) {
	var n int64
	err := scoped(ctx, db.Model(new(M)), specs).Count(&n).Error
	return n, err
}
