// Package worker runs the background jobs: mirroring new submissions to the CMS
// intake and finishing approvals that were interrupted.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/firstindallas/backend/internal/cms"
	"github.com/firstindallas/backend/pkg/queue"
)

// JobQueue is the Redis queue the mirror processor drains.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job, cause error) error
	DeadLetter(ctx context.Context, job *queue.Job, cause error) error
}

// Intake receives mirrored submissions.
type Intake interface {
	MirrorSubmission(ctx context.Context, payload interface{}) (cms.Result, error)
}

// SyncMarker records that a submission reached the CMS intake.
type SyncMarker interface {
	MarkSynced(ctx context.Context, id uuid.UUID) error
}

var errPermanent = errors.New("permanent failure")

// MirrorProcessor forwards queued submissions to the CMS intake.
type MirrorProcessor struct {
	queue   JobQueue
	intake  Intake
	marker  SyncMarker
	logger  *zap.Logger
	backoff time.Duration
}

// NewMirrorProcessor creates a mirror processor.
func NewMirrorProcessor(q JobQueue, intake Intake, marker SyncMarker, logger *zap.Logger) *MirrorProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MirrorProcessor{queue: q, intake: intake, marker: marker, logger: logger, backoff: queue.RetryBackoff}
}

// Process executes one mirror job.
func (p *MirrorProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeCMSMirror {
		return fmt.Errorf("%w: unknown job type %s", errPermanent, job.Type)
	}
	var payload queue.MirrorPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("%w: unmarshal payload: %v", errPermanent, err)
	}

	if _, err := p.intake.MirrorSubmission(ctx, payload.Submission); err != nil {
		var apiErr *cms.APIError
		switch {
		case errors.Is(err, cms.ErrConflict):
			p.logger.Info("submission already mirrored", zap.String("submission_id", payload.SubmissionID.String()))
		case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 &&
			apiErr.Status != http.StatusRequestTimeout && apiErr.Status != http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", errPermanent, err)
		default:
			return fmt.Errorf("mirror submission: %w", err)
		}
	}

	if err := p.marker.MarkSynced(ctx, payload.SubmissionID); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	p.logger.Info("submission mirrored", zap.String("submission_id", payload.SubmissionID.String()), zap.String("job_id", job.ID))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *MirrorProcessor) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			p.logger.Info("mirror worker stopping")
			return
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			sleep(ctx, p.backoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			// The job is already off the list, so a cancelled ctx must not lose it.
			requeueCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if errors.Is(err, errPermanent) {
				err = p.queue.DeadLetter(requeueCtx, job, err)
			} else {
				err = p.queue.Retry(requeueCtx, job, err)
			}
			cancel()
			if err != nil {
				p.logger.Error("requeue failed", zap.String("job_id", job.ID), zap.Error(err))
			}
			sleep(ctx, p.backoff)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// ApprovalReconciler completes approvals whose live event exists but whose
// status never became published.
type ApprovalReconciler interface {
	Reconcile(ctx context.Context, batch int) (int, error)
}

// Reconciler runs an ApprovalReconciler on a fixed interval.
type Reconciler struct {
	target   ApprovalReconciler
	interval time.Duration
	batch    int
	logger   *zap.Logger
}

// NewReconciler creates a reconciler. Non-positive interval or batch fall back to a minute and 50.
func NewReconciler(target ApprovalReconciler, interval time.Duration, batch int, logger *zap.Logger) *Reconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if batch <= 0 {
		batch = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{target: target, interval: interval, batch: batch, logger: logger}
}

// RunOnce reconciles one batch.
func (r *Reconciler) RunOnce(ctx context.Context) int {
	n, err := r.target.Reconcile(ctx, r.batch)
	if err != nil {
		r.logger.Error("reconcile approvals", zap.Error(err))
	}
	if n > 0 {
		r.logger.Info("reconciled approvals", zap.Int("count", n))
	}
	return n
}

// Run reconciles immediately and then on every tick until ctx is done.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		r.RunOnce(ctx)
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopping")
			return
		case <-ticker.C:
		}
	}
}
