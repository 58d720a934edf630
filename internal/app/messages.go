package app

import (
	"time"

	"github.com/j-veylop/callmap/internal/models"
	"github.com/j-veylop/callmap/internal/services"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// DatasetLoadedMsg contains the result of reading the dataset.
type DatasetLoadedMsg struct {
	Snapshot *services.Snapshot
	Error    error
	// Visible is the active filter chain applied to the loaded calls.
	Visible []models.Call
}

// StatsLoadedMsg contains loaded statistics.
type StatsLoadedMsg struct {
	Stats services.StatsEvent
}

// RefreshMsg requests a refresh of data.
type RefreshMsg struct {
	Resource string // "all", "dataset", "stats"
}

// FilterAppliedMsg reports a filter run from the map tab.
type FilterAppliedMsg struct {
	Error error
	Key   string
	Query string
	Chain string
	Count int
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Message  string
	Type     NotificationType
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearNotificationsMsg requests clearing all notifications.
type ClearNotificationsMsg struct{}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}

// ExportResultMsg contains the result of a map image export.
type ExportResultMsg struct {
	Error   error
	Path    string
	Calls   int
	Success bool
}
