// Package security provides structured logging for Roster.
// Every entry is written as one JSON object per line so logs can be shipped
// and queried without a parser.
package security

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// LogLevel is the severity of a log entry.
type LogLevel string

const (
	LogLevelInfo     LogLevel = "INFO"
	LogLevelWarning  LogLevel = "WARN"
	LogLevelError    LogLevel = "ERROR"
	LogLevelCritical LogLevel = "CRITICAL"
	LogLevelSecurity LogLevel = "SECURITY"
)

// SecurityEventType identifies an auditable action.
type SecurityEventType string

const (
	// Authentication
	EventLoginSuccess       SecurityEventType = "LOGIN_SUCCESS"
	EventLoginFailure       SecurityEventType = "LOGIN_FAILURE"
	EventLogout             SecurityEventType = "LOGOUT"
	EventAccountLocked      SecurityEventType = "ACCOUNT_LOCKED"
	EventUnauthorizedAccess SecurityEventType = "UNAUTHORIZED_ACCESS"

	// Teams
	EventTeamCreate SecurityEventType = "TEAM_CREATE"
	EventTeamUpdate SecurityEventType = "TEAM_UPDATE"
	EventTeamDelete SecurityEventType = "TEAM_DELETE"

	// Applications
	EventApplicationSubmit SecurityEventType = "APPLICATION_SUBMIT"
	EventApplicationDelete SecurityEventType = "APPLICATION_DELETE"
	EventStatusOverride    SecurityEventType = "STATUS_OVERRIDE"

	// Assignment runs
	EventAssignmentRun       SecurityEventType = "ASSIGNMENT_RUN"
	EventAssignmentRunFailed SecurityEventType = "ASSIGNMENT_RUN_FAILED"

	// Accounts
	EventUserCreate SecurityEventType = "USER_CREATE"

	EventRateLimitExceeded SecurityEventType = "RATE_LIMIT_EXCEEDED"
)

// LogEntry is the JSON shape of a single log line.
type LogEntry struct {
	Timestamp  time.Time              `json:"timestamp"`
	Level      LogLevel               `json:"level"`
	Message    string                 `json:"message"`
	EventType  SecurityEventType      `json:"event_type,omitempty"`
	ActorID    *int                   `json:"actor_id,omitempty"`
	ActorEmail string                 `json:"actor_email,omitempty"`
	IPAddress  string                 `json:"ip_address,omitempty"`
	UserAgent  string                 `json:"user_agent,omitempty"`
	Extra      map[string]interface{} `json:"extra,omitempty"`

	// HTTP request fields
	Method    string `json:"method,omitempty"`
	Path      string `json:"path,omitempty"`
	Status    int    `json:"status,omitempty"`
	LatencyMS int64  `json:"latency_ms,omitempty"`

	Error string `json:"error,omitempty"`
}

// Logger writes LogEntry lines to its output.
// Safe for concurrent use; *log.Logger serializes writes.
type Logger struct {
	output *log.Logger
}

// NewLogger creates a logger writing to stdout.
func NewLogger() *Logger {
	return NewLoggerTo(os.Stdout)
}

// NewLoggerTo creates a logger writing to w.
func NewLoggerTo(w io.Writer) *Logger {
	return &Logger{output: log.New(w, "", 0)}
}

func (l *Logger) write(entry LogEntry) {
	entry.Timestamp = time.Now().UTC()

	data, err := json.Marshal(entry)
	if err != nil {
		l.output.Printf(`{"level":"ERROR","message":"failed to marshal log entry: %s"}`, err)
		return
	}
	l.output.Println(string(data))
}

// Info logs an informational message.
func (l *Logger) Info(message string) {
	l.write(LogEntry{Level: LogLevelInfo, Message: message})
}

// Warn logs a warning.
func (l *Logger) Warn(message string) {
	l.write(LogEntry{Level: LogLevelWarning, Message: message})
}

// Error logs an error. err may be nil.
func (l *Logger) Error(message string, err error) {
	entry := LogEntry{Level: LogLevelError, Message: message}
	if err != nil {
		entry.Error = err.Error()
	}
	l.write(entry)
}

// Critical logs a failure that needs operator attention. err may be nil.
func (l *Logger) Critical(message string, err error) {
	entry := LogEntry{Level: LogLevelCritical, Message: message}
	if err != nil {
		entry.Error = err.Error()
	}
	l.write(entry)
}

// SecurityEvent logs an auditable action. actorID is nil for actions
// without a logged-in user, such as CLI runs and public submissions.
func (l *Logger) SecurityEvent(
	eventType SecurityEventType,
	actorID *int,
	actorEmail, ipAddress, userAgent string,
	extra map[string]interface{},
) {
	l.write(LogEntry{
		Level:      LogLevelSecurity,
		Message:    fmt.Sprintf("security event: %s", eventType),
		EventType:  eventType,
		ActorID:    actorID,
		ActorEmail: actorEmail,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Extra:      extra,
	})
}

// HTTPRequest logs a completed HTTP request.
func (l *Logger) HTTPRequest(method, path string, status int, latencyMS int64, ipAddress, userAgent string) {
	l.write(LogEntry{
		Level:     LogLevelInfo,
		Message:   fmt.Sprintf("%s %s %d", method, path, status),
		Method:    method,
		Path:      path,
		Status:    status,
		LatencyMS: latencyMS,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	})
}
