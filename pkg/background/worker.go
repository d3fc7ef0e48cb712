package background

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"dispatch/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Task периодическая фоновая задача.
type Task interface {
	// TTL интервал между запусками, он же предел длительности одного запуска.
	TTL() time.Duration

	Do(context.Context) error

	// Info имя задачи для логов и метрик.
	Info() string
}

type handlerLogger interface {
	Info(msg string, fields ...logger.Field)
	Warn(msg string, fields ...logger.Field)
	Error(msg string, fields ...logger.Field)
}

type Worker struct {
	log   handlerLogger
	tasks []Task
	loops sync.WaitGroup
}

// New прогревает задачи одним синхронным запуском и ставит их на периодическое
// выполнение до отмены ctx.
//
// Ошибка или паника на прогреве возвращается из New, периодические запуски после
// этого не стартуют. Дальнейшие ошибки только логируются.
func New(ctx context.Context, log handlerLogger, tasks []Task) (*Worker, error) {
	w := &Worker{
		log:   log,
		tasks: tasks,
	}

	warmup, warmupCtx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		warmup.Go(func() error {
			log.Info("warming up background task", logger.NewField("task", task.Info()))
			if err := w.safeRun(warmupCtx, task); err != nil {
				return fmt.Errorf("%s: %w", task.Info(), err)
			}
			return nil
		})
	}
	if err := warmup.Wait(); err != nil {
		return nil, fmt.Errorf("warm up background tasks: %w", err)
	}

	for _, task := range tasks {
		ttl := task.TTL()
		if ttl <= 0 {
			log.Warn("non-positive TTL, periodic runs disabled",
				logger.NewField("task", task.Info()),
				logger.NewField("ttl", ttl),
			)
			continue
		}

		w.loops.Add(1)
		go w.loop(ctx, task, ttl)
	}

	return w, nil
}

// Wait блокирует до выхода всех периодических циклов после отмены ctx из New.
func (w *Worker) Wait() {
	w.loops.Wait()
}

func (w *Worker) loop(ctx context.Context, task Task, ttl time.Duration) {
	defer w.loops.Done()

	ticker := time.NewTicker(ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("background task stopped", logger.NewField("task", task.Info()))
			return
		case <-ticker.C:
			if err := w.safeRun(ctx, task); err != nil && ctx.Err() == nil {
				w.log.Error("background task failed",
					logger.NewField("task", task.Info()),
					logger.NewField("error", err),
				)
			}
		}
	}
}

// safeRun один запуск, ограниченный TTL задачи: следующий тик не накладывается на текущий.
func (w *Worker) safeRun(ctx context.Context, task Task) (err error) {
	if ttl := task.TTL(); ttl > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ttl)
		defer cancel()
	}

	start := time.Now()
	result := "ok"
	defer func() {
		if r := recover(); r != nil {
			result = "panic"
			err = fmt.Errorf("panic: %v", r)
			w.log.Error("background task panic",
				logger.NewField("task", task.Info()),
				logger.NewField("recover", r),
				logger.NewField("stack", string(debug.Stack())),
			)
		} else if err != nil {
			result = "error"
		}
		TaskDuration.WithLabelValues(task.Info()).Observe(time.Since(start).Seconds())
		TaskRunsTotal.WithLabelValues(task.Info(), result).Inc()
	}()

	return task.Do(ctx)
}
