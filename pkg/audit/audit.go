package audit

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// AppName is the RFC5424 APP-NAME of every audit line.
const AppName = "pawguardian"

// SDID constants for structured data IDs (RFC5424).
// 32473 is the documentation Private Enterprise Number from RFC 5612.
const (
	PEN         = 32473
	SDIDRun     = "run@32473"
	SDIDSubject = "subject@32473"
	SDIDAction  = "action@32473"
	SDIDClient  = "client@32473"
)

// Syslog facility constants
const (
	FacilityUser   = 1  // LOG_USER - user-level messages
	FacilityLocal0 = 16 // LOG_LOCAL0 - interventions on the vehicle
)

// Severity levels matching syslog (RFC5424)
type Severity int

const (
	SeverityEmergency Severity = iota // 0
	SeverityAlert                     // 1
	SeverityCritical                  // 2
	SeverityError                     // 3
	SeverityWarning                   // 4
	SeverityNotice                    // 5
	SeverityInfo                      // 6
	SeverityDebug                     // 7
)

// Event is anything that can be written to the audit trail
type Event interface {
	MessageID() string
	Message() string
	Severity() Severity
	Facility() int
	StructuredData() map[string]map[string]string
}

const timestampLayout = "2006-01-02T15:04:05.000Z"

// Logger writes events as RFC5424 lines:
// <PRI>1 TIMESTAMP HOSTNAME APP-NAME PROCID MSGID SD MSG
type Logger struct {
	mu  sync.Mutex
	out io.Writer
	// host, app and pid never change after NewLogger, so the header
	// fields that follow the timestamp are rendered once.
	header string
	now    func() time.Time
}

// NewLogger returns a logger writing to stdout
func NewLogger() *Logger {
	host, _ := os.Hostname()
	if host == "" {
		host = "-"
	}
	return &Logger{
		out:    os.Stdout,
		header: host + " " + AppName + " " + strconv.Itoa(os.Getpid()),
		now:    time.Now,
	}
}

// SetWriter redirects the logger
func (l *Logger) SetWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
}

// Line renders an event without writing it
func (l *Logger) Line(event Event) string {
	sd := formatStructuredData(event.StructuredData())
	if sd == "" {
		sd = "-"
	}
	pri := event.Facility()*8 + int(event.Severity())
	return fmt.Sprintf("<%d>1 %s %s %s %s %s\n",
		pri,
		l.now().UTC().Format(timestampLayout),
		l.header,
		event.MessageID(),
		sd,
		event.Message(),
	)
}

// Log writes one event
func (l *Logger) Log(event Event) {
	line := l.Line(event)
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.out, line)
}

// formatStructuredData renders SD elements in sorted order so a run always
// produces the same line: [sdid k1="v1" k2="v2"][sdid2 ...]
func formatStructuredData(sd map[string]map[string]string) string {
	var b strings.Builder
	for _, id := range sortedKeys(sd) {
		params := sd[id]
		b.WriteByte('[')
		b.WriteString(id)
		for _, k := range sortedKeys(params) {
			b.WriteByte(' ')
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(escapeSDValue(params[k]))
		}
		b.WriteByte(']')
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var sdEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `]`, `\]`)

// escapeSDValue quotes a PARAM-VALUE, escaping the three characters
// RFC5424 reserves
func escapeSDValue(value string) string {
	return `"` + sdEscaper.Replace(value) + `"`
}

// DefaultLogger receives every event passed to Log
var DefaultLogger = NewLogger()

var enabled atomic.Bool

func init() {
	enabled.Store(enabledFromEnv(os.Getenv("PAWGUARDIAN_AUDIT_ENABLED")))
}

func enabledFromEnv(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "false", "0", "no", "off":
		return false
	default:
		return true
	}
}

// IsEnabled reports whether Log does anything
func IsEnabled() bool {
	return enabled.Load()
}

// SetEnabled overrides PAWGUARDIAN_AUDIT_ENABLED
func SetEnabled(on bool) {
	enabled.Store(on)
}

// The database sink is opened on the first event so commands that never
// audit anything never dial AUDIT_DATABASE_URL.
var sink struct {
	once  sync.Once
	store *Store
}

// DefaultStore returns the messages table sink, or nil when
// AUDIT_DATABASE_URL is unset or unreachable
func DefaultStore() *Store {
	sink.once.Do(func() {
		s, err := OpenStore(os.Getenv("AUDIT_DATABASE_URL"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "audit: failed to connect to audit database: %v\n", err)
			return
		}
		sink.store = s
	})
	return sink.store
}

// Log records an event with no deadline on the database insert
func Log(event Event) {
	LogContext(context.Background(), event)
}

// LogContext writes the event to DefaultLogger and, when configured, the
// messages table
func LogContext(ctx context.Context, event Event) {
	if !IsEnabled() {
		return
	}
	DefaultLogger.Log(event)

	if s := DefaultStore(); s != nil {
		if err := s.Save(ctx, event); err != nil {
			fmt.Fprintf(os.Stderr, "audit: failed to save event %s: %v\n", event.MessageID(), err)
		}
	}
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
