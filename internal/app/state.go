// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/j-veylop/callmap/internal/models"
	"github.com/j-veylop/callmap/internal/services"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	maxNotifications = 10
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	CreatedAt time.Time
	ID        string
	Message   string
	Type      NotificationType
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// LoadingState tracks loading states for different resources.
type LoadingState struct {
	Initial bool
	Dataset bool
	Stats   bool
}

// State is the application state shared between the root model and tabs.
type State struct {
	mu sync.RWMutex

	Snapshot *services.Snapshot
	Stats    *services.StatsEvent
	// Visible holds the calls currently drawn on the map.
	Visible     []models.Call
	FilterChain string
	LoadError   error

	Loading LoadingState

	LastUpdated time.Time

	notifications   []Notification
	notificationSeq int
}

// NewState creates an empty state waiting for the initial load.
func NewState() *State {
	return &State{
		FilterChain:   "none",
		notifications: make([]Notification, 0),
		Loading: LoadingState{
			Initial: true,
		},
	}
}

// SetLoading sets the loading state for a specific resource.
func (s *State) SetLoading(resource string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch resource {
	case "initial":
		s.Loading.Initial = loading
	case "dataset":
		s.Loading.Dataset = loading
	case "stats":
		s.Loading.Stats = loading
	}
}

// AnyLoading returns true if any resource is currently loading.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.Loading.Initial ||
		s.Loading.Dataset ||
		s.Loading.Stats
}

// IsInitialLoading returns true if initial data is still loading.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial
}

// GetLoadingResources returns a list of currently loading resources.
func (s *State) GetLoadingResources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var resources []string
	if s.Loading.Initial {
		resources = append(resources, "initial")
	}
	if s.Loading.Dataset {
		resources = append(resources, "dataset")
	}
	if s.Loading.Stats {
		resources = append(resources, "stats")
	}
	return resources
}

// SetDataset installs a newly loaded snapshot together with the calls the
// current filter chain selects from it.
func (s *State) SetDataset(snap *services.Snapshot, visible []models.Call) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Snapshot = snap
	s.Visible = visible
	s.LoadError = nil
	s.LastUpdated = time.Now()
}

// SetLoadError records why the last load failed. A previously loaded
// snapshot stays in place.
func (s *State) SetLoadError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LoadError = err
}

// GetLoadError returns the error of the last failed load, or nil.
func (s *State) GetLoadError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LoadError
}

// GetSnapshot returns the loaded snapshot, or nil.
func (s *State) GetSnapshot() *services.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Snapshot
}

// SetVisible replaces the calls drawn on the map and the chain that selected them.
func (s *State) SetVisible(calls []models.Call, chain string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Visible = calls
	s.FilterChain = chain
}

// GetVisible returns the calls currently drawn on the map. The slice must
// not be modified.
func (s *State) GetVisible() []models.Call {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Visible
}

// GetFilterChain returns the description of the active filters.
func (s *State) GetFilterChain() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.FilterChain
}

// GetCustomerCount returns the number of customers in the loaded dataset.
func (s *State) GetCustomerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Snapshot == nil {
		return 0
	}
	return s.Snapshot.Stats.Customers
}

// SetStats updates the statistics.
func (s *State) SetStats(stats services.StatsEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Stats = &stats
}

// GetStats returns the current statistics.
func (s *State) GetStats() *services.StatsEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Stats
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	notification := Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	}

	s.notifications = append(s.notifications, notification)

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}

	return active
}

// ClearAllNotifications removes all notifications.
func (s *State) ClearAllNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = make([]Notification, 0)
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// GetLastUpdated returns the last time a dataset was installed.
func (s *State) GetLastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastUpdated
}

// TimeSinceUpdate returns the duration since the last update.
func (s *State) TimeSinceUpdate() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.LastUpdated.IsZero() {
		return 0
	}
	return time.Since(s.LastUpdated)
}
