// Package audit records administrative actions as structured log events.
package audit

import (
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Entry represents a single audit log entry with structured fields
type Entry struct {
	Timestamp    time.Time         `json:"timestamp"`
	Action       string            `json:"action"`
	AdminUser    string            `json:"admin_user"`
	ResourceType string            `json:"resource_type,omitempty"`
	ResourceID   string            `json:"resource_id,omitempty"`
	IPAddress    string            `json:"ip_address"`
	Status       string            `json:"status"`
	Details      map[string]string `json:"details,omitempty"`
}

// Logger provides structured audit logging for admin operations
type Logger struct {
	logger   zerolog.Logger
	clientIP func(*http.Request) string
	now      func() time.Time
}

// NewLogger writes audit entries through logger. clientIP resolves the
// caller address; nil falls back to the connection's remote address.
func NewLogger(logger zerolog.Logger, clientIP func(*http.Request) string) *Logger {
	if clientIP == nil {
		clientIP = remoteIP
	}
	return &Logger{
		logger:   logger.With().Str("log_type", "audit").Logger(),
		clientIP: clientIP,
		now:      time.Now,
	}
}

// Nop discards every entry.
func Nop() *Logger {
	return NewLogger(zerolog.Nop(), nil)
}

func (l *Logger) Log(entry Entry) {
	if l == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now().UTC()
	}
	event := l.logger.Info()
	if entry.Status == StatusFailure {
		event = l.logger.Warn()
	}
	event.Interface("audit", entry).Msg(entry.Action)
}

func (l *Logger) LogSuccess(action, adminUser, resourceType, resourceID, ipAddress string, details map[string]string) {
	l.Log(Entry{
		Action:       action,
		AdminUser:    adminUser,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Status:       StatusSuccess,
		Details:      details,
	})
}

func (l *Logger) LogFailure(action, adminUser, ipAddress string, details map[string]string) {
	l.Log(Entry{
		Action:    action,
		AdminUser: adminUser,
		IPAddress: ipAddress,
		Status:    StatusFailure,
		Details:   details,
	})
}

// LogFromRequest records an action performed by adminUser in request r.
func (l *Logger) LogFromRequest(r *http.Request, adminUser, action, resourceType, resourceID, status string, details map[string]string) {
	if l == nil {
		return
	}
	if adminUser == "" {
		adminUser = "unknown"
	}
	l.Log(Entry{
		Action:       action,
		AdminUser:    adminUser,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    l.clientIP(r),
		Status:       status,
		Details:      details,
	})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
