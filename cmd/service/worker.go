package main

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"task_service/internal/domain"
	"task_service/internal/repository"
	"task_service/internal/service"
	"task_service/pkg/logger"
)

const deliveryTimeout = 10 * time.Second

// ReminderWorker scans for accepted tasks entering the pre-deadline
// window and pushes one reminder each through the sink. The sent flag
// latches whether or not delivery worked, so an unreachable recipient
// is never retried.
type ReminderWorker struct {
	taskRepo  repository.TaskRepositoryInterface
	sink      service.DeliverySink
	clock     domain.Clock
	logger    *logger.Logger
	interval  time.Duration
	lookahead time.Duration
}

func NewReminderWorker(
	taskRepo repository.TaskRepositoryInterface,
	sink service.DeliverySink,
	clock domain.Clock,
	logger *logger.Logger,
	interval time.Duration,
	lookahead time.Duration,
) *ReminderWorker {
	return &ReminderWorker{
		taskRepo:  taskRepo,
		sink:      sink,
		clock:     clock,
		logger:    logger,
		interval:  interval,
		lookahead: lookahead,
	}
}

func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Reminder worker stopped")
			return
		case <-ticker.C:
			w.ProcessTick(ctx)
		}
	}
}

// ProcessTick runs one scan with now captured once. Re-running a tick
// against an unchanged store emits nothing: the marked flag excludes a
// task from every later query.
func (w *ReminderWorker) ProcessTick(ctx context.Context) {
	now := w.clock.Now()

	tasks, err := w.taskRepo.FindDueForReminder(ctx, now, now.Add(w.lookahead))
	if err != nil {
		w.logger.Errorf("Failed to get tasks due for reminder: %v", err)
		return
	}

	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(task *domain.Task) {
			defer wg.Done()
			w.remind(ctx, task)
		}(task)
	}
	wg.Wait()
}

func (w *ReminderWorker) remind(ctx context.Context, task *domain.Task) {
	dctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	err := w.sink.Notify(dctx, domain.Notification{
		RecipientID: task.AssigneeID,
		TaskID:      task.ID,
		Kind:        domain.NotificationPreDeadline,
	})
	if err != nil {
		// flag is latched anyway to avoid a retry storm against an
		// unreachable recipient
		w.logger.Warn("failed to deliver reminder",
			zap.Int64("task_id", task.ID),
			zap.Int64("assignee_id", task.AssigneeID),
			zap.Error(err),
		)
	}

	// keyed by id and detached from cancellation: a worker stopping
	// mid-tick still finishes the flag writes it already owes
	if err := w.taskRepo.MarkReminderSent(context.WithoutCancel(ctx), task.ID); err != nil {
		w.logger.Errorf("Failed to mark reminder sent for task %d: %v", task.ID, err)
		return
	}

	w.logger.Infof("Sent reminder for task %d", task.ID)
}
