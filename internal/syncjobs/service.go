// Package syncjobs triggers provider imports and URL extractions on the CMS and
// follows the resulting tasks until they finish.
package syncjobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/firstindallas/backend/internal/cms"
	"github.com/firstindallas/backend/internal/models"
)

var (
	ErrUnknownProvider = errors.New("unknown sync provider")
	ErrNoFacebookURLs  = errors.New("no Facebook pages are configured")
	ErrInvalidStatus   = errors.New("unknown task status")
)

// InvalidURLs reports extraction URLs that were rejected, keyed by field.
type InvalidURLs map[string]string

func (e InvalidURLs) Error() string { return "invalid extraction urls" }

// CMS is the part of the CMS client that runs tasks.
type CMS interface {
	TriggerSync(ctx context.Context, path string) (*cms.SyncStarted, error)
	SyncStatus(ctx context.Context) (map[string][]models.SyncTask, error)
	Extract(ctx context.Context, urls []string) ([]models.SyncTask, error)
	ListTasks(ctx context.Context, status string, limit, offset int) ([]models.SyncTask, error)
	GetTask(ctx context.Context, id int64) (*models.SyncTask, error)
}

// Snapshots stores the latest state of watched tasks.
type Snapshots interface {
	Put(ctx context.Context, v TaskView) error
	List(ctx context.Context) ([]TaskView, error)
}

// Notifier pushes task progress to connected admin dashboards.
type Notifier interface {
	TaskUpdated(ctx context.Context, v TaskView) error
}

// Invalidator drops cached directory listings after an import brought new events.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// TaskView is a task with the provider that started it and a display message.
type TaskView struct {
	models.SyncTask
	Provider string `json:"provider,omitempty"`
	Message  string `json:"message"`
}

// Describe returns the admin-facing message for the task's status.
func Describe(t models.SyncTask) string {
	switch t.Status {
	case models.TaskCompleted:
		return fmt.Sprintf("Sync completed successfully! Imported %d new events", t.EventsExtracted)
	case models.TaskFailed:
		msg := t.ErrorMessage
		if msg == "" {
			msg = "Unknown error"
		}
		return "Sync failed: " + msg
	case models.TaskRunning:
		return "Sync in progress..."
	default:
		return "Sync queued"
	}
}

func view(t models.SyncTask, provider string) TaskView {
	return TaskView{SyncTask: t, Provider: provider, Message: Describe(t)}
}

// Started is returned by Trigger and Extract.
type Started struct {
	Provider string     `json:"provider,omitempty"`
	Message  string     `json:"message"`
	Note     string     `json:"note,omitempty"`
	Tasks    []TaskView `json:"tasks"`
}

// Options configures a Service. Everything except the CMS is optional.
type Options struct {
	Snapshots    Snapshots
	Notifier     Notifier
	Directory    Invalidator
	Poller       Poller
	FacebookURLs []string
	Logger       *zap.Logger
}

// Service starts CMS tasks and watches them in the background.
type Service struct {
	cms  CMS
	opts Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates a sync service. Call Close to stop watchers.
func NewService(client CMS, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Poller.Interval == 0 {
		opts.Poller = DefaultPoller()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{cms: client, opts: opts, ctx: ctx, cancel: cancel}
}

// Close stops all watchers and waits for them to exit.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

// Trigger starts an import for the named provider.
func (s *Service) Trigger(ctx context.Context, name string) (*Started, error) {
	p, ok := LookupProvider(name)
	if !ok {
		return nil, ErrUnknownProvider
	}
	if p.Path == "" {
		if len(s.opts.FacebookURLs) == 0 {
			return nil, ErrNoFacebookURLs
		}
		started, err := s.extract(ctx, p.Name, s.opts.FacebookURLs)
		if err != nil {
			return nil, err
		}
		started.Message = fmt.Sprintf("Facebook sync started for %d pages", len(started.Tasks))
		return started, nil
	}

	res, err := s.cms.TriggerSync(ctx, p.Path)
	if err != nil {
		return nil, err
	}
	out := &Started{Provider: p.Name, Message: res.Message, Note: res.Note}
	if res.TaskID > 0 {
		status := models.TaskStatus(res.Status)
		if status == "" {
			status = models.TaskQueued
		}
		v := view(models.SyncTask{ID: res.TaskID, Status: status}, p.Name)
		out.Tasks = append(out.Tasks, v)
		s.watch(v)
	}
	s.opts.Logger.Info("sync triggered", zap.String("provider", p.Name), zap.Int64("task_id", res.TaskID))
	return out, nil
}

// Extract creates one extraction task per URL.
func (s *Service) Extract(ctx context.Context, urls []string) (*Started, error) {
	started, err := s.extract(ctx, "", urls)
	if err != nil {
		return nil, err
	}
	started.Message = fmt.Sprintf("Extraction started for %d URLs", len(started.Tasks))
	return started, nil
}

func (s *Service) extract(ctx context.Context, provider string, raw []string) (*Started, error) {
	urls, fields := NormalizeURLs(raw)
	if len(fields) > 0 {
		return nil, InvalidURLs(fields)
	}
	tasks, err := s.cms.Extract(ctx, urls)
	if err != nil {
		return nil, err
	}
	out := &Started{Provider: provider, Tasks: make([]TaskView, 0, len(tasks))}
	for _, t := range tasks {
		if t.SourceType == "" {
			t.SourceType = DetectSourceType(t.URL)
		}
		v := view(t, provider)
		out.Tasks = append(out.Tasks, v)
		s.watch(v)
	}
	s.opts.Logger.Info("extraction started", zap.String("provider", provider), zap.Int("tasks", len(tasks)))
	return out, nil
}

func (s *Service) publish(v TaskView) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if s.opts.Snapshots != nil {
		if err := s.opts.Snapshots.Put(ctx, v); err != nil {
			s.opts.Logger.Warn("store task snapshot", zap.Int64("task_id", v.ID), zap.Error(err))
		}
	}
	if s.opts.Notifier != nil {
		if err := s.opts.Notifier.TaskUpdated(ctx, v); err != nil {
			s.opts.Logger.Warn("notify task update", zap.Int64("task_id", v.ID), zap.Error(err))
		}
	}
}

// watch polls the task until it is terminal, publishing each change.
func (s *Service) watch(initial TaskView) {
	s.publish(initial)
	if initial.Status.Terminal() {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		last := initial.SyncTask
		final, err := s.opts.Poller.Poll(s.ctx, func(ctx context.Context) (*models.SyncTask, error) {
			return s.cms.GetTask(ctx, initial.ID)
		}, func(t *models.SyncTask) {
			if t.Status == last.Status && t.EventsExtracted == last.EventsExtracted {
				return
			}
			last = *t
			s.publish(view(*t, initial.Provider))
		})

		log := s.opts.Logger.With(zap.Int64("task_id", initial.ID), zap.String("provider", initial.Provider))
		switch {
		case err != nil && errors.Is(err, context.Canceled):
			log.Info("stopped watching task")
		case err != nil:
			log.Warn("gave up watching task", zap.Error(err))
		case final.Status == models.TaskFailed:
			log.Warn("task failed", zap.String("error", final.ErrorMessage))
		default:
			log.Info("task completed", zap.Int("events_extracted", final.EventsExtracted))
			if final.EventsExtracted > 0 && s.opts.Directory != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := s.opts.Directory.Invalidate(ctx); err != nil {
					log.Warn("invalidate directory", zap.Error(err))
				}
				cancel()
			}
		}
	}()
}

// Active returns the watched tasks' latest snapshots.
func (s *Service) Active(ctx context.Context) ([]TaskView, error) {
	if s.opts.Snapshots == nil {
		return []TaskView{}, nil
	}
	return s.opts.Snapshots.List(ctx)
}

// Status returns recent tasks grouped by provider.
func (s *Service) Status(ctx context.Context) (map[string][]models.SyncTask, error) {
	return s.cms.SyncStatus(ctx)
}

// ListTasks returns recent tasks, optionally filtered by status.
func (s *Service) ListTasks(ctx context.Context, status string, limit, offset int) ([]models.SyncTask, error) {
	switch models.TaskStatus(status) {
	case "", models.TaskQueued, models.TaskRunning, models.TaskCompleted, models.TaskFailed:
	default:
		return nil, ErrInvalidStatus
	}
	return s.cms.ListTasks(ctx, status, limit, offset)
}

// Task returns one task with its display message.
func (s *Service) Task(ctx context.Context, id int64) (*TaskView, error) {
	t, err := s.cms.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	v := view(*t, "")
	return &v, nil
}
