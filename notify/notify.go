package notify

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type ToastType string

const (
	ToastSuccess ToastType = "success"
	ToastError   ToastType = "error"
	ToastWarning ToastType = "warning"
	ToastInfo    ToastType = "info"
)

const defaultDuration = 5 * time.Second

// Toast is a single user-facing notification
type Toast struct {
	ID          string
	Type        ToastType
	Title       string
	Message     string
	Duration    time.Duration // zero keeps the toast until dismissed
	Dismissible bool
	CreatedAt   time.Time
}

// Notifier is the notification surface the session pipeline reports through.
type Notifier interface {
	Show(toast Toast)
}

// Service keeps the visible toasts and dismisses them when their duration elapses.
type Service struct {
	lock     sync.RWMutex
	toasts   []Toast
	timers   map[string]*time.Timer
	duration time.Duration
	nowTime  func() time.Time
}

var _ Notifier = (*Service)(nil)

type ServiceOption func(*Service)

// WithDefaultDuration overrides the 5 second default toast lifetime; zero disables auto-dismiss.
func WithDefaultDuration(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.duration = d
	}
}

func NewService(options ...ServiceOption) *Service {
	s := &Service{
		timers:   make(map[string]*time.Timer),
		duration: defaultDuration,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Show adds a toast, filling in ID, duration and dismissible defaults.
func (s *Service) Show(toast Toast) {
	toast.ID = "toast-" + uuid.NewString()
	toast.CreatedAt = s.nowTime()
	if toast.Duration == 0 {
		toast.Duration = s.duration
	}
	// every toast can be closed by the user
	toast.Dismissible = true

	log.Debug().Str("type", string(toast.Type)).Str("title", toast.Title).Msg(toast.Message)

	s.lock.Lock()
	defer s.lock.Unlock()
	s.toasts = append(s.toasts, toast)
	if toast.Duration > 0 {
		id := toast.ID
		s.timers[id] = time.AfterFunc(toast.Duration, func() { s.Dismiss(id) })
	}
}

func (s *Service) Success(title, message string) {
	s.Show(Toast{Type: ToastSuccess, Title: title, Message: message})
}

func (s *Service) Error(title, message string) {
	s.Show(Toast{Type: ToastError, Title: title, Message: message})
}

func (s *Service) Warning(title, message string) {
	s.Show(Toast{Type: ToastWarning, Title: title, Message: message})
}

func (s *Service) Info(title, message string) {
	s.Show(Toast{Type: ToastInfo, Title: title, Message: message})
}

func (s *Service) Dismiss(id string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	s.toasts = slices.DeleteFunc(s.toasts, func(t Toast) bool { return t.ID == id })
}

func (s *Service) DismissAll() {
	s.lock.Lock()
	defer s.lock.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.toasts = nil
}

// Toasts returns the visible toasts, oldest first
func (s *Service) Toasts() []Toast {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return slices.Clone(s.toasts)
}

// Recorder is a Notifier that keeps every toast it is shown. It never dismisses.
type Recorder struct {
	lock   sync.Mutex
	toasts []Toast
}

func (r *Recorder) Show(toast Toast) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.toasts = append(r.toasts, toast)
}

func (r *Recorder) Toasts() []Toast {
	r.lock.Lock()
	defer r.lock.Unlock()
	return slices.Clone(r.toasts)
}

// Count returns how many toasts with the given title have been shown
func (r *Recorder) Count(title string) int {
	r.lock.Lock()
	defer r.lock.Unlock()
	n := 0
	for _, t := range r.toasts {
		if t.Title == title {
			n++
		}
	}
	return n
}

// Discard drops every toast
type Discard struct{}

func (Discard) Show(Toast) {}
