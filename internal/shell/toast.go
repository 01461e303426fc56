package shell

import (
	"log/slog"
	"time"
)

// maxToasts bounds the notification history.
const maxToasts = 5

// Toast is one user-visible notification.
type Toast struct {
	Message string
	Error   bool
	At      time.Time
}

// Toasts collects notifications for the UI. It implements router.Notifier.
type Toasts struct {
	items []Toast
	now   func() time.Time
	log   *slog.Logger
}

// NewToasts creates an empty notification list.
func NewToasts(log *slog.Logger) *Toasts {
	if log == nil {
		log = slog.Default()
	}
	return &Toasts{now: time.Now, log: log}
}

// NotifyError records an error notification.
func (t *Toasts) NotifyError(message string) {
	t.push(Toast{Message: message, Error: true})
}

// Notify records an informational notification.
func (t *Toasts) Notify(message string) {
	t.push(Toast{Message: message})
}

func (t *Toasts) push(toast Toast) {
	toast.At = t.now()
	t.log.Info("shell.Toasts: notify", "message", toast.Message, "error", toast.Error)
	t.items = append(t.items, toast)
	if len(t.items) > maxToasts {
		t.items = t.items[len(t.items)-maxToasts:]
	}
}

// Latest returns the newest notification.
func (t *Toasts) Latest() (Toast, bool) {
	if len(t.items) == 0 {
		return Toast{}, false
	}
	return t.items[len(t.items)-1], true
}

// Messages returns the recorded messages, oldest first.
func (t *Toasts) Messages() []string {
	out := make([]string, len(t.items))
	for i, it := range t.items {
		out[i] = it.Message
	}
	return out
}

// Dismiss drops the newest notification.
func (t *Toasts) Dismiss() {
	if len(t.items) > 0 {
		t.items = t.items[:len(t.items)-1]
	}
}

// Items returns the recorded notifications, oldest first.
func (t *Toasts) Items() []Toast {
	return append([]Toast(nil), t.items...)
}
