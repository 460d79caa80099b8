package models

import "time"

// JobStatus constants
const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// Job is an asynchronously tracked execution. Progress never decreases and
// a job in a terminal state is never mutated again.
type Job struct {
	ID              string           `json:"jobId"`
	Status          string           `json:"status"`
	Progress        int              `json:"progress"`
	Language        string           `json:"language"`
	FunctionName    string           `json:"functionName"`
	DataSessionID   string           `json:"dataSessionId"`
	ScriptSessionID string           `json:"scriptSessionId"`
	Parameters      []TypedValue     `json:"parameters,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	CompletedAt     *time.Time       `json:"completedAt,omitempty"`
	Result          *ExecutionResult `json:"result,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// IsTerminal reports whether the job has completed or failed
func (j *Job) IsTerminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}

// CreateJobRequest is the request body for POST /jobs
type CreateJobRequest struct {
	DataSessionID   string       `json:"dataSessionId"`
	ScriptSessionID string       `json:"scriptSessionId"`
	FunctionName    string       `json:"functionName"`
	Language        string       `json:"language"`
	Parameters      []TypedValue `json:"parameters" swaggertype:"array,object"`
}

// CreateJobResponse is returned once a job has been queued
type CreateJobResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"jobId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// JobStatusResponse is returned when polling a job
type JobStatusResponse struct {
	Success     bool             `json:"success"`
	JobID       string           `json:"jobId"`
	Status      string           `json:"status"`
	Progress    int              `json:"progress"`
	Result      *ExecutionResult `json:"result,omitempty"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}
