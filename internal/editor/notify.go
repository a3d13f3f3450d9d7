package editor

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/talgya/hexworlds/internal/document"
	"github.com/talgya/hexworlds/internal/routing"
)

// Level grades a notice.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notice is a user-facing message.
type Notice struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier receives user-facing messages.
type Notifier interface {
	Notify(Notice)
}

// LogNotifier writes notices to the default logger.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notice) {
	switch n.Level {
	case LevelError:
		slog.Error(n.Message)
	case LevelWarn:
		slog.Warn(n.Message)
	default:
		slog.Info(n.Message)
	}
}

// NoticeBuffer keeps the most recent notices. It is safe for concurrent use.
type NoticeBuffer struct {
	mu      sync.Mutex
	limit   int
	notices []Notice
	next    Notifier
}

// NewNoticeBuffer keeps up to limit notices and forwards each to next, if set.
func NewNoticeBuffer(limit int, next Notifier) *NoticeBuffer {
	return &NoticeBuffer{limit: max(limit, 1), next: next}
}

func (b *NoticeBuffer) Notify(n Notice) {
	b.mu.Lock()
	b.notices = append(b.notices, n)
	if len(b.notices) > b.limit {
		b.notices = b.notices[len(b.notices)-b.limit:]
	}
	b.mu.Unlock()
	if b.next != nil {
		b.next.Notify(n)
	}
}

// Recent returns the buffered notices, oldest first.
func (b *NoticeBuffer) Recent() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Notice(nil), b.notices...)
}

var userErrors = []error{
	ErrInvalidArgument,
	ErrNotRoutable,
	document.ErrNotFound,
	document.ErrDuplicateLandmark,
	document.ErrInvalidAttributes,
	document.ErrIconRequired,
	document.ErrTooFewPoints,
	document.ErrInvalidIndex,
	document.ErrInvalidTerrain,
	document.ErrInvalidFormat,
	routing.ErrTokenOffNetwork,
	routing.ErrDestinationOffNetwork,
	routing.ErrNoRouteFound,
}

// isUserError reports whether err came from bad input rather than a fault.
func isUserError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return true
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, routing.ErrTokenOffNetwork):
		return "Token is not near any path. Move it onto or next to a road."
	case errors.Is(err, routing.ErrDestinationOffNetwork):
		return "Destination is not near any path. Click on or near a road."
	case errors.Is(err, routing.ErrNoRouteFound):
		return "No route found. Make sure the roads connect start and destination."
	case errors.Is(err, document.ErrInvalidAttributes):
		return "Attributes must be a JSON object."
	case errors.Is(err, document.ErrDuplicateLandmark):
		return "A landmark already exists on this hex."
	case errors.Is(err, document.ErrInvalidFormat):
		return "Invalid map file: no hexes found."
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return "Invalid map file: " + syntaxErr.Error() + "."
	}
	return err.Error()
}
