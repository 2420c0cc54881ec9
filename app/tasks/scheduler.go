package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/feedpress/feedpress/app/cfg"
	"github.com/feedpress/feedpress/app/database"
	"github.com/feedpress/feedpress/app/feed"
	"github.com/feedpress/feedpress/app/queue"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	definitionCache *feed.DefinitionCache
	feedRepo        database.FeedRepository
	entryRepo       database.EntryRepository
	adapter         *queue.Adapter
	renderer        *feed.Renderer
	httpClient      *http.Client
	userAgent       string
	interval        time.Duration
	workerCount     int
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	taskQueue       chan TaskInterface
}

func NewScheduler(definitionCache *feed.DefinitionCache, feedRepo database.FeedRepository,
	entryRepo database.EntryRepository, adapter *queue.Adapter, renderer *feed.Renderer,
	httpClient *http.Client) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		definitionCache: definitionCache,
		feedRepo:        feedRepo,
		entryRepo:       entryRepo,
		adapter:         adapter,
		renderer:        renderer,
		httpClient:      httpClient,
		userAgent:       cfg.UserAgent,
		interval:        time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:     cfg.WorkerCount,
		ctx:             ctx,
		cancel:          cancel,
		taskQueue:       make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	definitions := s.definitionCache.GetDefinitions()
	if len(definitions) == 0 {
		slog.Debug("No feed definitions found")
		return
	}

	slog.Debug("Registering feed definitions", "count", len(definitions))

	for _, definition := range definitions {
		syncTask := NewSyncFeedDefinitionTask(definition.Name, definition, s.feedRepo)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncFeedDefinitionTask", "feed", definition.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueTasks() {
	definitions := s.definitionCache.GetDefinitions()

	for _, definition := range definitions {
		if !definition.Settings.Enabled {
			slog.Debug("Feed disabled, skipping", "feed", definition.Name)
			continue
		}

		if !definition.Settings.Notify {
			continue
		}

		notifyTask := NewNotifyHubsTask(definition.Name, definition, s.renderer,
			s.adapter, s.feedRepo, s.entryRepo)
		if err := s.EnqueueTask(notifyTask); err != nil {
			slog.Warn("Failed to enqueue NotifyHubsTask", "feed", definition.Name, "error", err)
		}
	}

	deliverTask := NewDeliverNotificationsTask(s.adapter, s.httpClient, s.userAgent)
	if err := s.EnqueueTask(deliverTask); err != nil {
		slog.Warn("Failed to enqueue DeliverNotificationsTask", "error", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "feed", task.GetFeedName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
		return
	}

	slog.Debug("Worker task executed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "duration", task.GetDuration())
}
