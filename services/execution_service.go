package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"bert-gateway/models"
)

// ExecutionRecorder persists the outcome of every execution
type ExecutionRecorder interface {
	RecordExecution(ctx context.Context, rec *models.ExecutionRecord) error
}

type ExecutionServiceOptions struct {
	DefaultTimeout     time.Duration
	MaxTimeout         time.Duration
	DefaultMemoryLimit int64
	Storage            StorageService
	Recorder           ExecutionRecorder
	Logger             *logrus.Entry
}

// ExecutionService runs synchronous function calls through the registry
type ExecutionService struct {
	registry       *Registry
	storage        StorageService
	recorder       ExecutionRecorder
	defaultTimeout time.Duration
	maxTimeout     time.Duration
	defaultMemory  int64
	logger         *logrus.Entry
}

func NewExecutionService(registry *Registry, opts ExecutionServiceOptions) *ExecutionService {
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = DefaultWorkerTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ExecutionService{
		registry:       registry,
		storage:        opts.Storage,
		recorder:       opts.Recorder,
		defaultTimeout: opts.DefaultTimeout,
		maxTimeout:     opts.MaxTimeout,
		defaultMemory:  opts.DefaultMemoryLimit,
		logger:         opts.Logger.WithField("component", "execution"),
	}
}

// NewCall builds the FunctionCall for an execute request
func NewCall(req *models.ExecuteRequest, userID string) models.FunctionCall {
	call := models.FunctionCall{
		ID:           uuid.New().String(),
		FunctionName: req.FunctionName,
		Language:     req.Language,
		Arguments:    append([]models.TypedValue{}, req.Parameters...),
		Context: models.ExecutionContext{
			WorkspaceID: req.WorkspaceID,
			UserID:      userID,
		},
	}
	if s := req.ExecutionContext; s != nil {
		call.Context.TimeoutMs = s.Timeout
		call.Context.MemoryLimitBytes = s.MemoryLimit
		call.Context.DebugMode = s.Debug
	}
	return call
}

// Execute validates call, dispatches it to the worker of its language and
// normalizes the worker output. Validation and language errors are returned
// before any worker is contacted.
func (s *ExecutionService) Execute(ctx context.Context, call models.FunctionCall) (*models.ExecutionResult, error) {
	if err := ValidateCall(call); err != nil {
		return nil, err
	}
	lang, err := s.registry.Lookup(call.Language)
	if err != nil {
		return nil, err
	}
	inv, err := ToWorkerInvocation(call, lang)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{
		"call_id":  call.ID,
		"language": lang.Name,
		"function": call.FunctionName,
	})

	var scriptKey string
	if call.Context.DebugMode && s.storage != nil {
		key := GenerateScriptKey(call.Context.WorkspaceID, call.ID, lang.Name, time.Now())
		if err := s.storage.SaveScript(ctx, key, inv.Script()); err != nil {
			log.WithError(err).Warn("failed to archive debug script")
		} else {
			scriptKey = key
		}
	}

	started := time.Now()
	out, err := runWorker(ctx, lang, inv, s.limits(call.Context))
	elapsed := time.Since(started)
	if err != nil {
		log.WithError(err).WithField("kind", KindOf(err)).Warn("execution failed")
		s.record(ctx, call, models.StatusError, err, elapsed)
		return nil, err
	}

	res, err := FromWorkerOutput(out, elapsed)
	if err != nil {
		log.WithError(err).Warn("malformed worker payload")
		s.record(ctx, call, models.StatusError, err, elapsed)
		return nil, err
	}
	res.ScriptKey = scriptKey

	log.WithFields(logrus.Fields{"status": res.Status, "duration_ms": res.ExecutionTimeMs}).Info("execution finished")
	s.record(ctx, call, res.Status, nil, elapsed)
	return res, nil
}

// ListFunctions returns the function catalog, optionally for one language
func (s *ExecutionService) ListFunctions(language string) ([]models.FunctionInfo, error) {
	return s.registry.Functions(language)
}

// Languages returns the registered language names
func (s *ExecutionService) Languages() []string {
	return s.registry.Names()
}

func (s *ExecutionService) limits(ec models.ExecutionContext) Limits {
	timeout := s.defaultTimeout
	if ec.TimeoutMs > 0 {
		timeout = time.Duration(ec.TimeoutMs) * time.Millisecond
	}
	if s.maxTimeout > 0 && timeout > s.maxTimeout {
		timeout = s.maxTimeout
	}
	memory := s.defaultMemory
	if ec.MemoryLimitBytes > 0 {
		memory = ec.MemoryLimitBytes
	}
	return Limits{Timeout: timeout, MemoryBytes: memory}
}

func (s *ExecutionService) record(ctx context.Context, call models.FunctionCall, status string, err error, elapsed time.Duration) {
	if s.recorder == nil {
		return
	}
	rec := &models.ExecutionRecord{
		CallID:       call.ID,
		Source:       models.SourceSync,
		FunctionName: call.FunctionName,
		Language:     call.Language,
		WorkspaceID:  call.Context.WorkspaceID,
		InvokedBy:    call.Context.UserID,
		Status:       status,
		DurationMs:   elapsed.Milliseconds(),
		InvokedAt:    time.Now().Add(-elapsed),
	}
	if err != nil {
		rec.ErrorKind = string(KindOf(err))
		rec.ErrorMessage = err.Error()
	}
	if err := s.recorder.RecordExecution(ctx, rec); err != nil {
		s.logger.WithError(err).Warn("failed to record execution")
	}
}

// runWorker executes inv on the language worker inside a trace subsegment
func runWorker(ctx context.Context, lang *Language, inv Invocation, limits Limits) (*WorkerOutput, error) {
	var out *WorkerOutput
	err := capture(ctx, "Worker.Execute", map[string]interface{}{
		"worker.language": lang.Name,
		"worker.tag":      inv.Tag,
	}, func(ctx1 context.Context) error {
		var werr error
		out, werr = lang.Worker.Execute(ctx1, inv, limits)
		return werr
	})
	return out, err
}
