package models

// FunctionCall is a language-agnostic function invocation. It is built once by
// the gateway and passed by value afterwards.
type FunctionCall struct {
	ID           string           `json:"id"`
	FunctionName string           `json:"function_name"`
	Language     string           `json:"language"`
	Arguments    []TypedValue     `json:"arguments"`
	Context      ExecutionContext `json:"context"`
}

// ExecutionContext carries per-call limits and identity
type ExecutionContext struct {
	WorkspaceID      string `json:"workspace_id"`
	UserID           string `json:"user_id"`
	TimeoutMs        int64  `json:"timeout_ms"`
	MemoryLimitBytes int64  `json:"memory_limit_bytes"`
	DebugMode        bool   `json:"debug_mode"`
}

// ExecuteRequest represents the request body for POST /functions/execute
type ExecuteRequest struct {
	FunctionName     string             `json:"function_name"`
	Language         string             `json:"language"`
	Parameters       []TypedValue       `json:"parameters" swaggertype:"array,object"`
	WorkspaceID      string             `json:"workspace_id"`
	ExecutionContext *ExecutionSettings `json:"execution_context,omitempty"`
}

// ExecutionSettings is the execution_context object of an ExecuteRequest
type ExecutionSettings struct {
	Timeout     int64 `json:"timeout"`      // milliseconds
	MemoryLimit int64 `json:"memory_limit"` // bytes
	Debug       bool  `json:"debug"`
}

// FunctionInfo describes a callable function in the listing
type FunctionInfo struct {
	Name        string   `json:"name"`
	Language    string   `json:"language"`
	Description string   `json:"description"`
	Parameters  []string `json:"parameters"`
	Returns     string   `json:"returns"`
	Example     string   `json:"example,omitempty"`
}

// FunctionListResponse is returned by GET /functions
type FunctionListResponse struct {
	Functions []FunctionInfo `json:"functions"`
}
