package worker

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/optical-member/internal/config"
	"github.com/optical-member/internal/logger"
	"github.com/optical-member/internal/queue"

	"github.com/robfig/cron/v3"
)

const (
	defaultPurgeSpec     = "@every 1h"
	defaultReconcileSpec = "@every 5m"
	maintenanceUnique    = time.Minute
)

// maintenanceRunner 队列关闭时同步执行维护任务
type maintenanceRunner interface {
	RunMaintenance(ctx context.Context, taskType string) error
}

// Scheduler 周期维护调度：过期核销码清理与悬挂核销意图对账
type Scheduler struct {
	name   string
	cron   *cron.Cron
	queue  *queue.Client
	runner maintenanceRunner
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler 创建调度服务；队列可用时投递任务，否则直接执行
func NewScheduler(cfg config.RedemptionConfig, queueClient *queue.Client, runner maintenanceRunner) (*Scheduler, error) {
	if runner == nil && !queueClient.Enabled() {
		return nil, errors.New("scheduler has no executor")
	}
	s := &Scheduler{
		name:   "scheduler",
		cron:   cron.New(),
		queue:  queueClient,
		runner: runner,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	jobs := []struct {
		spec     string
		fallback string
		task     string
	}{
		{spec: cfg.PurgeSpec, fallback: defaultPurgeSpec, task: queue.TaskRedemptionPurge},
		{spec: cfg.ReconcileSpec, fallback: defaultReconcileSpec, task: queue.TaskSettlementReconcile},
	}
	for _, job := range jobs {
		spec := strings.TrimSpace(job.spec)
		if spec == "" {
			spec = job.fallback
		}
		task := job.task
		if _, err := s.cron.AddFunc(spec, func() { s.dispatch(task) }); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Name 服务名称
func (s *Scheduler) Name() string {
	if s == nil || s.name == "" {
		return "scheduler"
	}
	return s.name
}

// Start 启动调度并阻塞到 ctx 结束
func (s *Scheduler) Start(ctx context.Context) error {
	if s == nil || s.cron == nil {
		return errors.New("scheduler not initialized")
	}
	s.cron.Start()
	<-ctx.Done()
	return nil
}

// Stop 停止调度并等待运行中的任务结束
func (s *Scheduler) Stop(ctx context.Context) error {
	if s == nil || s.cron == nil {
		return nil
	}
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (s *Scheduler) dispatch(task string) {
	if s.queue.Enabled() {
		if err := s.queue.EnqueueMaintenance(task, maintenanceUnique); err != nil {
			logger.Warnw("scheduler_enqueue_failed", "task_type", task, "error", err)
		}
		return
	}
	if s.runner == nil {
		return
	}
	if err := s.runner.RunMaintenance(s.ctx, task); err != nil {
		logger.Warnw("scheduler_run_failed", "task_type", task, "error", err)
	}
}
