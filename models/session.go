package models

import "time"

// Session payload kinds
const (
	SessionData   = "data"
	SessionScript = "script"
)

// Session is a server-held reference to uploaded tabular data or script text.
// Sessions are read-only once stored.
type Session struct {
	ID         string     `json:"sessionId"`
	Kind       string     `json:"kind"`
	FileName   string     `json:"fileName"`
	Data       [][]string `json:"data,omitempty"`
	Script     string     `json:"script,omitempty"`
	UploadTime time.Time  `json:"uploadTime"`
}

// SessionPayload is what gets stored; exactly one of Data or Script is set
type SessionPayload struct {
	Kind   string
	Data   [][]string
	Script string
}

// CreateSessionRequest is the request body for POST /sessions
type CreateSessionRequest struct {
	Kind     string     `json:"kind"`
	FileName string     `json:"fileName"`
	Data     [][]string `json:"data"`
	Script   string     `json:"script"`
}

// CreateSessionResponse describes a stored session
type CreateSessionResponse struct {
	Success    bool     `json:"success"`
	SessionID  string   `json:"sessionId"`
	Kind       string   `json:"kind"`
	FileName   string   `json:"fileName"`
	Rows       int      `json:"rows,omitempty"`
	Columns    int      `json:"columns,omitempty"`
	Functions  []string `json:"functions,omitempty"`
	Libraries  []string `json:"libraries,omitempty"`
	LinesCount int      `json:"linesCount,omitempty"`
}
