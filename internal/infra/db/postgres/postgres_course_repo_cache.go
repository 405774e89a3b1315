package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/repository"
	"course-marketplace/internal/infra/metrics"
	red "course-marketplace/internal/infra/redis"
)

var _ repository.CourseRepository = (*courseRepoCacheDecorator)(nil)

// courseRepoCacheDecorator serves catalog reads from Redis. The catalog is
// read on every payment intent, so the hot path should not touch Postgres.
type courseRepoCacheDecorator struct {
	inner repository.CourseRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewCourseRepoCacheDecorator(inner repository.CourseRepository, cache red.RedisClient) repository.CourseRepository {
	return &courseRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   1 * time.Hour,
	}
}

func (d *courseRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	key := fmt.Sprintf("course:%s", id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("course", "hit")
		var c model.Course
		if json.Unmarshal([]byte(val), &c) == nil {
			return &c, nil
		}
	}
	// Both a cache miss and a real Redis error fall through to Postgres.
	metrics.IncCacheRequest("course", "miss")
	c, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if c != nil {
		bytes, _ := json.Marshal(c)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return c, nil
}

// Writes invalidate both the single-course entry and the list keys.
func (d *courseRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, c *model.Course) error {
	d.cache.Del(ctx, fmt.Sprintf("course:%s", c.ID))
	d.cache.Del(ctx, "courses:published", "courses:all")
	return d.inner.Save(ctx, tx, c)
}

func (d *courseRepoCacheDecorator) Delete(ctx context.Context, tx repository.Tx, id string) error {
	d.cache.Del(ctx, fmt.Sprintf("course:%s", id))
	d.cache.Del(ctx, "courses:published", "courses:all")
	return d.inner.Delete(ctx, tx, id)
}

// ListPublished only caches the first page, which is what the storefront
// renders. Deeper pages go straight to Postgres.
func (d *courseRepoCacheDecorator) ListPublished(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.Course, error) {
	if offset != 0 {
		return d.inner.ListPublished(ctx, tx, offset, limit)
	}
	key := "courses:published"
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("course_list", "hit")
		var courses []*model.Course
		if json.Unmarshal([]byte(val), &courses) == nil {
			if limit > 0 && len(courses) > limit {
				courses = courses[:limit]
			}
			return courses, nil
		}
	}

	metrics.IncCacheRequest("course_list", "miss")
	courses, err := d.inner.ListPublished(ctx, tx, offset, limit)
	if err != nil {
		return nil, err
	}
	if len(courses) > 0 {
		bytes, _ := json.Marshal(courses)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return courses, nil
}

func (d *courseRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Course, error) {
	key := "courses:all"
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("course_list", "hit")
		var courses []*model.Course
		if json.Unmarshal([]byte(val), &courses) == nil {
			return courses, nil
		}
	}

	metrics.IncCacheRequest("course_list", "miss")
	courses, err := d.inner.ListAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(courses) > 0 {
		bytes, _ := json.Marshal(courses)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return courses, nil
}
