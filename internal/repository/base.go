package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListOptions pages a list query. A zero Limit means no limit.
type ListOptions struct {
	Limit  int
	Offset int
}

func (o ListOptions) apply(db *gorm.DB) *gorm.DB {
	if o.Limit > 0 {
		db = db.Limit(o.Limit)
	}
	if o.Offset > 0 {
		db = db.Offset(o.Offset)
	}
	return db
}

// Base implements the CRUD every repository shares. Associations are never
// written implicitly; repositories manage them explicitly.
type Base[T any] struct {
	db     *gorm.DB
	entity string
}

func NewBase[T any](db *gorm.DB, entity string) Base[T] {
	return Base[T]{db: db, entity: entity}
}

func (r Base[T]) DB(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r Base[T]) Get(ctx context.Context, id uint, preloads ...string) (*T, error) {
	q := r.DB(ctx)
	for _, p := range preloads {
		q = q.Preload(p)
	}

	var v T
	if err := q.First(&v, id).Error; err != nil {
		return nil, translate(r.entity, err)
	}
	return &v, nil
}

func (r Base[T]) List(ctx context.Context, opts ListOptions) ([]T, error) {
	var out []T
	if err := opts.apply(r.DB(ctx)).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r Base[T]) Create(ctx context.Context, v *T) error {
	return translate(r.entity, r.DB(ctx).Omit(clause.Associations).Create(v).Error)
}

func (r Base[T]) Update(ctx context.Context, v *T) error {
	return translate(r.entity, r.DB(ctx).Omit(clause.Associations).Save(v).Error)
}

func (r Base[T]) Delete(ctx context.Context, id uint) error {
	res := r.DB(ctx).Delete(new(T), id)
	if res.Error != nil {
		return translate(r.entity, res.Error)
	}
	if res.RowsAffected == 0 {
		return translate(r.entity, gorm.ErrRecordNotFound)
	}
	return nil
}

func (r Base[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB(ctx).Model(new(T)).Count(&n).Error
	return n, err
}

func (r Base[T]) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.DB(ctx).Model(new(T)).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func likePattern(term string) string {
	return "%" + term + "%"
}
