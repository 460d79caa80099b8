package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"bert-gateway/models"
)

const (
	DefaultJobConcurrency = 4
	DefaultJobQueueSize   = 64
	DefaultJobStartDelay  = 100 * time.Millisecond
	DefaultJobLanguage    = "R"
)

// Progress reported at each pipeline step boundary
const (
	progressStarted      = 10
	progressDependencies = 20
	progressDataReady    = 40
	progressExecuting    = 60
	progressDone         = 100

	progressPerLibrary = 2
)

type JobQueueOptions struct {
	Concurrency        int
	QueueSize          int
	StartDelay         time.Duration
	StepTimeout        time.Duration
	DefaultMemoryLimit int64
	TempDir            string
	Recorder           ExecutionRecorder
	Logger             *logrus.Entry
}

// JobQueue runs asynchronous jobs on a fixed pool of goroutines. At most
// QueueSize jobs may be queued or running at once; Enqueue fails with
// QueueFull beyond that.
type JobQueue struct {
	registry *Registry
	sessions SessionStore
	jobs     *JobStore
	recorder ExecutionRecorder
	opts     JobQueueOptions
	logger   *logrus.Entry

	slots chan struct{}
	tasks chan string

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

func NewJobQueue(registry *Registry, sessions SessionStore, jobs *JobStore, opts JobQueueOptions) *JobQueue {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultJobConcurrency
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultJobQueueSize
	}
	if opts.StartDelay < 0 {
		opts.StartDelay = 0
	}
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = DefaultWorkerTimeout
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &JobQueue{
		registry: registry,
		sessions: sessions,
		jobs:     jobs,
		recorder: opts.Recorder,
		opts:     opts,
		logger:   opts.Logger.WithField("component", "jobs"),
		slots:    make(chan struct{}, opts.QueueSize),
		tasks:    make(chan string, opts.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the pool goroutines
func (q *JobQueue) Start() {
	q.startOnce.Do(func() {
		for i := 0; i < q.opts.Concurrency; i++ {
			q.wg.Add(1)
			go func() {
				defer q.wg.Done()
				for {
					select {
					case id := <-q.tasks:
						q.run(id)
					case <-q.ctx.Done():
						return
					}
				}
			}()
		}
	})
}

// Stop cancels running jobs and waits for the pool to exit
func (q *JobQueue) Stop() {
	q.stopOnce.Do(q.cancel)
	q.wg.Wait()
}

// Enqueue validates the request, stores a queued Job and schedules it. It
// returns as soon as the job exists; the pipeline starts after StartDelay.
func (q *JobQueue) Enqueue(ctx context.Context, req *models.CreateJobRequest) (*models.Job, error) {
	if strings.TrimSpace(req.FunctionName) == "" {
		return nil, newError(KindValidation, "Missing required fields: functionName")
	}
	if err := validateFunctionName(req.FunctionName); err != nil {
		return nil, err
	}
	language := req.Language
	if strings.TrimSpace(language) == "" {
		language = DefaultJobLanguage
	}
	if _, err := q.registry.Lookup(language); err != nil {
		return nil, err
	}
	if _, _, err := q.loadSessions(ctx, req.DataSessionID, req.ScriptSessionID); err != nil {
		return nil, err
	}

	select {
	case q.slots <- struct{}{}:
	default:
		return nil, newError(KindQueueFull, "job queue is full (%d jobs pending)", q.opts.QueueSize)
	}

	job := q.jobs.Create(&models.Job{
		ID:              uuid.New().String(),
		Language:        language,
		FunctionName:    req.FunctionName,
		DataSessionID:   req.DataSessionID,
		ScriptSessionID: req.ScriptSessionID,
		Parameters:      req.Parameters,
	})

	q.logger.WithFields(logrus.Fields{"job_id": job.ID, "function": job.FunctionName, "language": language}).Info("job queued")

	time.AfterFunc(q.opts.StartDelay, func() {
		q.tasks <- job.ID
	})
	return job, nil
}

// Status returns a snapshot of the job
func (q *JobQueue) Status(id string) (*models.Job, error) {
	return q.jobs.Get(id)
}

func (q *JobQueue) loadSessions(ctx context.Context, dataID, scriptID string) (*models.Session, *models.Session, error) {
	if dataID == "" || scriptID == "" {
		return nil, nil, newError(KindValidation, "Missing required fields: dataSessionId, scriptSessionId")
	}
	data, err := q.sessions.Get(ctx, dataID)
	if err != nil {
		return nil, nil, err
	}
	script, err := q.sessions.Get(ctx, scriptID)
	if err != nil {
		return nil, nil, err
	}
	if data.Kind != models.SessionData || script.Kind != models.SessionScript {
		return nil, nil, newError(KindValidation, "dataSessionId must reference data and scriptSessionId a script")
	}
	return data, script, nil
}

// run executes the pipeline of one job: dependencies, data preparation and
// the function call. Any failure ends the job in the failed state.
func (q *JobQueue) run(id string) {
	defer func() { <-q.slots }()

	log := q.logger.WithField("job_id", id)
	started := time.Now()

	job, err := q.advance(id, models.JobRunning, progressStarted)
	if err != nil {
		log.WithError(err).Debug("job vanished before start")
		return
	}

	result, err := q.pipeline(log, job)
	elapsed := time.Since(started)
	if err != nil {
		log.WithError(err).WithField("kind", KindOf(err)).Warn("job failed")
		q.fail(id, err)
		q.record(job, models.StatusError, err, elapsed)
		return
	}

	if _, err := q.jobs.Update(id, func(j *models.Job) {
		j.Status = models.JobCompleted
		j.Progress = progressDone
		j.Result = result
	}); err != nil {
		log.WithError(err).Debug("job vanished before completion")
		return
	}
	log.WithField("duration_ms", elapsed.Milliseconds()).Info("job completed")
	q.record(job, models.StatusSuccess, nil, elapsed)
}

func (q *JobQueue) pipeline(log *logrus.Entry, job *models.Job) (*models.ExecutionResult, error) {
	lang, err := q.registry.Lookup(job.Language)
	if err != nil {
		return nil, err
	}
	data, script, err := q.loadSessions(q.ctx, job.DataSessionID, job.ScriptSessionID)
	if err != nil {
		return nil, err
	}

	// Dependencies
	if _, err := q.advance(job.ID, models.JobRunning, progressDependencies); err != nil {
		return nil, err
	}
	for i, lib := range lang.Dialect.Libraries(script.Script) {
		if err := q.ensureLibrary(job.ID, lang, lib); err != nil {
			return nil, err
		}
		progress := progressDependencies + progressPerLibrary*(i+1)
		if progress >= progressDataReady {
			progress = progressDataReady - progressPerLibrary
		}
		if _, err := q.advance(job.ID, models.JobRunning, progress); err != nil {
			return nil, err
		}
		log.WithField("library", lib).Debug("dependency ready")
	}

	// Data preparation
	dataPath, err := q.writeData(job.ID, data.Data)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Message: "failed to prepare data", Err: err}
	}
	defer func() {
		if err := os.Remove(dataPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).Warn("failed to remove job data file")
		}
	}()
	if _, err := q.advance(job.ID, models.JobRunning, progressDataReady); err != nil {
		return nil, err
	}

	// Execution
	inv, err := JobInvocation(job.ID, lang, script.Script, dataPath, job.FunctionName, job.Parameters)
	if err != nil {
		return nil, err
	}
	if _, err := q.advance(job.ID, models.JobRunning, progressExecuting); err != nil {
		return nil, err
	}

	started := time.Now()
	out, err := runWorker(q.ctx, lang, inv, Limits{Timeout: q.opts.StepTimeout, MemoryBytes: q.opts.DefaultMemoryLimit})
	if err != nil {
		return nil, err
	}
	res, err := FromWorkerOutput(out, time.Since(started))
	if err != nil {
		return nil, err
	}
	if !res.Succeeded() {
		return nil, &Error{Kind: KindWorkerCrashed, Message: res.ErrorDetails}
	}
	return res, nil
}

// ensureLibrary checks the library through the language worker, installing it
// when missing
func (q *JobQueue) ensureLibrary(jobID string, lang *Language, library string) error {
	preamble, expr := lang.Dialect.DependencyCheck(library)
	inv := Invocation{
		Tag:        jobID + "-dep",
		Language:   lang.Name,
		Preamble:   preamble,
		Expression: expr,
	}
	out, err := runWorker(q.ctx, lang, inv, Limits{Timeout: q.opts.StepTimeout})
	if err != nil {
		return fmt.Errorf("failed to install dependency %s: %w", library, err)
	}
	res, err := FromWorkerOutput(out, 0)
	if err != nil {
		return fmt.Errorf("failed to install dependency %s: %w", library, err)
	}
	if !res.Succeeded() {
		return &Error{Kind: KindWorkerCrashed, Message: fmt.Sprintf("failed to install dependency %s: %s", library, res.ErrorDetails)}
	}
	return nil
}

// writeData writes the session table to a temp CSV named after the job
func (q *JobQueue) writeData(jobID string, rows [][]string) (string, error) {
	pattern := fmt.Sprintf("bert_data_%s_%d_*.csv", safeName(jobID), time.Now().UnixNano())
	f, err := os.CreateTemp(q.opts.TempDir, pattern)
	if err != nil {
		return "", err
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (q *JobQueue) advance(id, status string, progress int) (*models.Job, error) {
	return q.jobs.Update(id, func(j *models.Job) {
		j.Status = status
		j.Progress = progress
	})
}

func (q *JobQueue) fail(id string, cause error) {
	msg := cause.Error()
	if _, err := q.jobs.Update(id, func(j *models.Job) {
		j.Status = models.JobFailed
		j.Error = msg
	}); err != nil {
		q.logger.WithError(err).WithField("job_id", id).Debug("job vanished before failure")
	}
}

func (q *JobQueue) record(job *models.Job, status string, err error, elapsed time.Duration) {
	if q.recorder == nil {
		return
	}
	rec := &models.ExecutionRecord{
		CallID:       job.ID,
		Source:       models.SourceJob,
		FunctionName: job.FunctionName,
		Language:     job.Language,
		Status:       status,
		DurationMs:   elapsed.Milliseconds(),
		InvokedAt:    job.CreatedAt,
	}
	if err != nil {
		rec.ErrorKind = string(KindOf(err))
		rec.ErrorMessage = err.Error()
	}
	if err := q.recorder.RecordExecution(context.Background(), rec); err != nil {
		q.logger.WithError(err).Warn("failed to record job execution")
	}
}
