package models

import (
	"time"
)

// Execution sources
const (
	SourceSync = "sync"
	SourceJob  = "job"
)

// ExecutionRecord is one row of the execution history (function_executions table)
type ExecutionRecord struct {
	ID           int64     `json:"id"`
	CallID       string    `json:"call_id"`
	Source       string    `json:"source"`
	FunctionName string    `json:"function_name"`
	Language     string    `json:"language"`
	WorkspaceID  string    `json:"workspace_id,omitempty"`
	InvokedBy    string    `json:"invoked_by,omitempty"`
	Status       string    `json:"status"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	InvokedAt    time.Time `json:"invoked_at"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
}

// HealthResponse is returned by the health endpoints
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Languages []string  `json:"languages"`
}
