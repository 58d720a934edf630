package app

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/callmap/internal/models"
	"github.com/j-veylop/callmap/internal/render"
	"github.com/j-veylop/callmap/internal/services"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second
)

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// loadDatasetCmd returns a command that reads and replays the dataset.
func loadDatasetCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		snap, err := mgr.Load()
		if err != nil {
			return DatasetLoadedMsg{Error: err}
		}
		return DatasetLoadedMsg{Snapshot: snap, Visible: mgr.Visible()}
	}
}

// loadStatsCmd returns a command that loads statistics.
func loadStatsCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		return StatsLoadedMsg{Stats: mgr.GetStats()}
	}
}

// subscribeToServicesCmd subscribes immediately so no event broadcast by a
// later command is missed, and returns a command delivering the channel.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch, _ := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// ExportMapCmd renders calls to a PNG in the configured export directory.
func ExportMapCmd(mgr *services.Manager, calls []models.Call, chain string) tea.Cmd {
	return func() tea.Msg {
		caption := fmt.Sprintf("%s calls | filters: %s", humanize.Comma(int64(len(calls))), chain)
		path, err := render.ExportFile(mgr.Config().ExportDir, calls, mgr.MapOptions(caption))
		return ExportResultMsg{
			Path:    path,
			Calls:   len(calls),
			Success: err == nil,
			Error:   err,
		}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

// NotifySuccessCmd returns a command that adds a success notification.
func NotifySuccessCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationSuccess,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// NotifyErrorCmd returns a command that adds an error notification.
func NotifyErrorCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationError,
			Message:  message,
			Duration: LongNotificationDuration,
		}
	}
}

// NotifyWarningCmd returns a command that adds a warning notification.
func NotifyWarningCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationWarning,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// NotifyInfoCmd returns a command that adds an info notification.
func NotifyInfoCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationInfo,
			Message:  message,
			Duration: QuickNotificationDuration,
		}
	}
}

// delayedCmd returns a command that sends a message after a delay.
func delayedCmd(delay time.Duration, msg tea.Msg) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return msg
	})
}

// Commands provides a public interface to the command functions.
type Commands struct {
	manager *services.Manager
}

// NewCommands creates a new Commands instance.
func NewCommands(mgr *services.Manager) *Commands {
	return &Commands{manager: mgr}
}

// Tick returns a tick command with the specified interval.
func (c *Commands) Tick(interval time.Duration) tea.Cmd {
	return tickCmd(interval)
}

// LoadDataset returns a command that reads the dataset.
func (c *Commands) LoadDataset() tea.Cmd {
	return loadDatasetCmd(c.manager)
}

// LoadStats returns a command that loads statistics.
func (c *Commands) LoadStats() tea.Cmd {
	return loadStatsCmd(c.manager)
}

// ExportMap returns a command that exports calls as a PNG.
func (c *Commands) ExportMap(calls []models.Call, chain string) tea.Cmd {
	return ExportMapCmd(c.manager, calls, chain)
}

// NotifySuccess returns a command that adds a success notification.
func (c *Commands) NotifySuccess(message string) tea.Cmd {
	return NotifySuccessCmd(message)
}

// NotifyError returns a command that adds an error notification.
func (c *Commands) NotifyError(message string) tea.Cmd {
	return NotifyErrorCmd(message)
}

// NotifyWarning returns a command that adds a warning notification.
func (c *Commands) NotifyWarning(message string) tea.Cmd {
	return NotifyWarningCmd(message)
}

// NotifyInfo returns a command that adds an info notification.
func (c *Commands) NotifyInfo(message string) tea.Cmd {
	return NotifyInfoCmd(message)
}

// ClearNotification returns a command that removes a notification after a delay.
func (c *Commands) ClearNotification(id string, delay time.Duration) tea.Cmd {
	return clearNotificationCmd(id, delay)
}

// Delayed returns a command that sends a message after a delay.
func (c *Commands) Delayed(delay time.Duration, msg tea.Msg) tea.Cmd {
	return delayedCmd(delay, msg)
}
