// Package observability holds Prometheus metrics and OpenTelemetry tracing setup.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// PostsCreated counts posts published through the create form.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_posts_created_total",
		Help: "Total number of posts created",
	})

	// CommentsCreated counts accepted comments.
	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_comments_created_total",
		Help: "Total number of comments created",
	})

	// Follows counts follow edges created or removed, by action.
	Follows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_follows_total",
		Help: "Total number of follow and unfollow actions that changed state",
	}, []string{"action"})

	// PageCacheRequests counts page cache lookups by result (hit, miss, error).
	PageCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_page_cache_requests_total",
		Help: "Page cache lookups by result",
	}, []string{"result"})

	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "yatube_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

const queryStartKey = "observability:query_start"

// InstrumentDB registers GORM callbacks that feed DatabaseQueryLatency.
func InstrumentDB(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	steps := []struct {
		op       string
		register func(name string, before bool, fn func(*gorm.DB)) error
	}{
		{"create", func(name string, b bool, fn func(*gorm.DB)) error {
			if b {
				return cb.Create().Before("gorm:create").Register(name, fn)
			}
			return cb.Create().After("gorm:create").Register(name, fn)
		}},
		{"query", func(name string, b bool, fn func(*gorm.DB)) error {
			if b {
				return cb.Query().Before("gorm:query").Register(name, fn)
			}
			return cb.Query().After("gorm:query").Register(name, fn)
		}},
		{"update", func(name string, b bool, fn func(*gorm.DB)) error {
			if b {
				return cb.Update().Before("gorm:update").Register(name, fn)
			}
			return cb.Update().After("gorm:update").Register(name, fn)
		}},
		{"delete", func(name string, b bool, fn func(*gorm.DB)) error {
			if b {
				return cb.Delete().Before("gorm:delete").Register(name, fn)
			}
			return cb.Delete().After("gorm:delete").Register(name, fn)
		}},
	}
	for _, s := range steps {
		if err := s.register("metrics:before_"+s.op, true, before); err != nil {
			return err
		}
		if err := s.register("metrics:after_"+s.op, false, after(s.op)); err != nil {
			return err
		}
	}
	return nil
}
