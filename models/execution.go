package models

// ExecutionStatus constants
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ExecutionResult is the normalized outcome of one FunctionCall. It is also the
// response envelope of the synchronous execute endpoint.
type ExecutionResult struct {
	Result          TypedValue `json:"result" swaggertype:"object"`
	Status          string     `json:"status"`
	ExecutionTimeMs int64      `json:"execution_time"`
	OutputLogs      []string   `json:"output_logs"`
	Warnings        []string   `json:"warnings"`
	ErrorDetails    string     `json:"error_details,omitempty"`
	ScriptKey       string     `json:"script_key,omitempty"`
}

// Succeeded reports whether the worker returned success
func (r *ExecutionResult) Succeeded() bool {
	return r.Status == StatusSuccess
}
