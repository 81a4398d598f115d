package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edgard/weatherscent/internal/cache"
	"github.com/edgard/weatherscent/internal/database"
	"github.com/edgard/weatherscent/internal/model"
)

// Task names, matching the keys of the scheduler.tasks configuration.
const (
	TaskSQLMaintenance = "sql_maintenance"
	TaskCachePrune     = "cache_prune"
)

// TaskDeps contains the dependencies of the scheduled tasks.
type TaskDeps struct {
	Logger  *slog.Logger
	Store   database.Store
	Results cache.ResultStore[model.CombinedResult]
}

// RegisterAllTasks returns the task registry keyed by task name.
func RegisterAllTasks(deps TaskDeps) map[string]TaskFunc {
	return map[string]TaskFunc{
		TaskSQLMaintenance: newSQLMaintenanceTask(deps),
		TaskCachePrune:     newCachePruneTask(deps),
	}
}

func newSQLMaintenanceTask(deps TaskDeps) TaskFunc {
	return func(ctx context.Context) error {
		if err := deps.Store.RunMaintenance(ctx); err != nil {
			return fmt.Errorf("sql maintenance failed: %w", err)
		}
		return nil
	}
}

func newCachePruneTask(deps TaskDeps) TaskFunc {
	return func(ctx context.Context) error {
		removed, err := deps.Results.Prune(ctx)
		if err != nil {
			return fmt.Errorf("cache prune failed: %w", err)
		}
		if removed > 0 && deps.Logger != nil {
			deps.Logger.InfoContext(ctx, "Pruned expired shared results", "removed", removed)
		}
		return nil
	}
}
