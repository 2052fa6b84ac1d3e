package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/voyageshield/voyageshield/internal/pkg/logger"
	"github.com/voyageshield/voyageshield/internal/pkg/mail"
)

// Redis keys, all under the mail: namespace so the queue can share a database
// with the plan and statistics caches.
const (
	JobKeyPrefix     = "mail:job:"
	JobQueueKey      = "mail:queue"
	JobProcessingKey = "mail:processing"
	JobStatsKey      = "mail:stats"

	DefaultMaxRetries = 3
	JobTTL            = 24 * time.Hour
	DefaultWorkers    = 2

	stuckAfter    = 10 * time.Minute
	sweepInterval = time.Minute
)

// Queue delivers background jobs through Redis lists. Emails are the only
// job type; the mailer does the actual sending.
type Queue struct {
	client     *redis.Client
	mailer     mail.Mailer
	workers    int
	workerPool chan struct{}
	stopCh     chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	running    bool
	retryDelay time.Duration
}

// NewQueue creates a job queue on client that sends mail with mailer
func NewQueue(client *redis.Client, mailer mail.Mailer, workers int) *Queue {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	return &Queue{
		client:     client,
		mailer:     mailer,
		workers:    workers,
		workerPool: make(chan struct{}, workers),
		stopCh:     make(chan struct{}),
		retryDelay: time.Minute,
	}
}

// Start launches the workers and the stuck-job sweeper. Calling it on a
// running queue does nothing.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}

	q.running = true
	q.stopCh = make(chan struct{})
	logger.L().Infow("starting mail queue", "workers", q.workers)

	for i := 0; i < q.workers; i++ {
		q.workerPool <- struct{}{}
	}

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}

	q.wg.Add(1)
	go q.stuckSweeper(stuckAfter, sweepInterval)
}

// Stop signals the workers and blocks until in-flight sends finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running {
		return
	}

	logger.L().Info("stopping mail queue")
	close(q.stopCh)
	q.running = false
	q.wg.Wait()
	for len(q.workerPool) > 0 {
		<-q.workerPool
	}
	logger.L().Info("mail queue stopped")
}

// stuckSweeper requeues jobs a crashed worker left in the processing list.
func (q *Queue) stuckSweeper(maxAge time.Duration, interval time.Duration) {
	defer q.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	ctx := context.Background()
	for {
		select {
		case <-q.stopCh:
			return
		case <-ticker.C:
			q.recoverStuck(ctx, maxAge, time.Now())
		}
	}
}

func (q *Queue) recoverStuck(ctx context.Context, maxAge time.Duration, now time.Time) {
	log := logger.L()
	ids, err := q.client.LRange(ctx, JobProcessingKey, 0, -1).Result()
	if err != nil {
		log.Errorw("job sweeper failed to list processing jobs", "error", err)
		return
	}
	for _, id := range ids {
		job, err := q.GetJob(ctx, id)
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Errorw("job sweeper failed to load job", "job_id", id, "error", err)
			}
			_ = q.client.LRem(ctx, JobProcessingKey, 1, id).Err()
			continue
		}
		if job.Status != JobStatusProcessing {
			_ = q.client.LRem(ctx, JobProcessingKey, 1, id).Err()
			continue
		}

		started := job.UpdatedAt
		if job.ProcessedAt != nil && !job.ProcessedAt.IsZero() {
			started = *job.ProcessedAt
		}
		if now.Sub(started) > maxAge {
			log.Warnw("recovering stuck job", "job_id", job.ID, "type", job.Type, "age", now.Sub(started).String())
			job.ErrorMsg = "recovered by sweeper"
			_ = q.requeueJob(ctx, job)
		}
	}
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			return
		default:
			<-q.workerPool

			job, err := q.dequeueJob(ctx)
			if err != nil {
				if !errors.Is(err, redis.Nil) {
					logger.L().Errorw("failed to dequeue job", "worker", id, "error", err)
					time.Sleep(time.Second)
				}
				q.workerPool <- struct{}{}
				continue
			}

			if job != nil {
				q.processJob(ctx, job)
			}
			q.workerPool <- struct{}{}
		}
	}
}

// EnqueueJob adds a new job to the queue
func (q *Queue) EnqueueJob(ctx context.Context, jobType JobType, payload map[string]interface{}) (*Job, error) {
	now := time.Now()
	job := &Job{
		ID:         uuid.NewString(),
		Type:       jobType,
		Status:     JobStatusPending,
		Payload:    payload,
		CreatedAt:  now,
		UpdatedAt:  now,
		MaxRetries: DefaultMaxRetries,
	}

	jobData, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	pipe := q.client.Pipeline()
	pipe.Set(ctx, JobKeyPrefix+job.ID, jobData, JobTTL)
	pipe.LPush(ctx, JobQueueKey, job.ID)
	pipe.HIncrBy(ctx, JobStatsKey, string(JobStatusPending), 1)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	logger.L().Debugw("job enqueued", "job_id", job.ID, "type", job.Type)
	return job, nil
}

// dequeueJob moves the next job to the processing list and loads it
func (q *Queue) dequeueJob(ctx context.Context) (*Job, error) {
	jobID, err := q.client.BRPopLPush(ctx, JobQueueKey, JobProcessingKey, time.Second).Result()
	if err != nil {
		return nil, err
	}

	job, err := q.GetJob(ctx, jobID)
	if err != nil {
		q.client.LRem(ctx, JobProcessingKey, 1, jobID)
		return nil, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	return job, nil
}

// processJob runs one job and records the outcome
func (q *Queue) processJob(ctx context.Context, job *Job) {
	log := logger.L()
	job.MarkAsProcessing()
	q.updateJob(ctx, job)

	var err error
	switch job.Type {
	case JobTypeSendEmail:
		err = q.processEmailJob(job)
	default:
		err = fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err != nil {
		q.fail(ctx, job, err)
	} else {
		job.MarkAsCompleted()
		q.updateJobStats(ctx, JobStatusCompleted, 1)
		q.removeCompletedJob(ctx, job.ID)
		log.Debugw("mail job delivered", "job_id", job.ID)
	}

	q.removeFromProcessing(ctx, job.ID)
}

// fail records a failed attempt. Retryable jobs go back on the queue after
// retryDelay times the attempt count.
func (q *Queue) fail(ctx context.Context, job *Job, cause error) {
	job.MarkAsFailed(cause.Error())
	if !job.IsRetryable() {
		logger.L().Errorw("mail job permanently failed", "job_id", job.ID, "retries", job.RetryCount, "error", cause)
		q.updateJobStats(ctx, JobStatusFailed, 1)
		q.updateJob(ctx, job)
		return
	}

	logger.L().Warnw("mail job failed, retrying", "job_id", job.ID, "attempt", job.RetryCount, "max", job.MaxRetries, "error", cause)
	job.MarkAsRetrying()
	q.updateJob(ctx, job)

	id := job.ID
	time.AfterFunc(q.retryDelay*time.Duration(job.RetryCount), func() {
		if err := q.client.LPush(context.Background(), JobQueueKey, id).Err(); err != nil {
			logger.L().Errorw("failed to requeue mail job", "job_id", id, "error", err)
		}
	})
}

func (q *Queue) processEmailJob(job *Job) error {
	payload, err := EmailJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid email payload: %w", err)
	}
	if payload.To == "" {
		return errors.New("email payload has no recipient")
	}
	return q.mailer.Send(payload.To, payload.Subject, payload.Body)
}

func (q *Queue) updateJob(ctx context.Context, job *Job) {
	jobData, err := json.Marshal(job)
	if err != nil {
		logger.L().Errorw("failed to marshal job", "job_id", job.ID, "error", err)
		return
	}
	if err := q.client.Set(ctx, JobKeyPrefix+job.ID, jobData, JobTTL).Err(); err != nil {
		logger.L().Errorw("failed to update job", "job_id", job.ID, "error", err)
	}
}

// requeueJob moves a job back to the pending queue
func (q *Queue) requeueJob(ctx context.Context, job *Job) error {
	job.Status = JobStatusPending
	job.UpdatedAt = time.Now()
	q.updateJob(ctx, job)
	if err := q.client.LRem(ctx, JobProcessingKey, 1, job.ID).Err(); err != nil {
		logger.L().Errorw("failed to remove job from processing", "job_id", job.ID, "error", err)
	}
	return q.client.RPush(ctx, JobQueueKey, job.ID).Err()
}

func (q *Queue) removeFromProcessing(ctx context.Context, jobID string) {
	if err := q.client.LRem(ctx, JobProcessingKey, 1, jobID).Err(); err != nil {
		logger.L().Errorw("failed to remove job from processing", "job_id", jobID, "error", err)
	}
}

func (q *Queue) removeCompletedJob(ctx context.Context, jobID string) {
	if err := q.client.Del(ctx, JobKeyPrefix+jobID).Err(); err != nil {
		logger.L().Errorw("failed to remove completed job", "job_id", jobID, "error", err)
	}
}

func (q *Queue) updateJobStats(ctx context.Context, status JobStatus, delta int64) {
	if err := q.client.HIncrBy(ctx, JobStatsKey, string(status), delta).Err(); err != nil {
		logger.L().Errorw("failed to update job stats", "error", err)
	}
}

// GetJob retrieves a job by ID
func (q *Queue) GetJob(ctx context.Context, jobID string) (*Job, error) {
	jobData, err := q.client.Get(ctx, JobKeyPrefix+jobID).Bytes()
	if err != nil {
		return nil, err
	}

	var job Job
	if err := json.Unmarshal(jobData, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

// GetJobStats returns counters per job status
func (q *Queue) GetJobStats(ctx context.Context) (map[JobStatus]int64, error) {
	stats, err := q.client.HGetAll(ctx, JobStatsKey).Result()
	if err != nil {
		return nil, err
	}

	result := make(map[JobStatus]int64)
	for status, count := range stats {
		if countInt, err := json.Number(count).Int64(); err == nil {
			result[JobStatus(status)] = countInt
		}
	}
	return result, nil
}

// GetQueueSize returns the number of pending jobs
func (q *Queue) GetQueueSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, JobQueueKey).Result()
}

// GetProcessingSize returns the number of jobs being processed
func (q *Queue) GetProcessingSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, JobProcessingKey).Result()
}
