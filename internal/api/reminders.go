package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/danbi-garden/danbi/internal/reminder"
)

// ReminderResponse is one armed watering reminder.
type ReminderResponse struct {
	Key       string    `json:"key"`
	PlantID   string    `json:"plant_id"`
	TriggerAt time.Time `json:"trigger_at"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
}

// NotificationSettingsRequest is the body of PUT /settings/notifications.
type NotificationSettingsRequest struct {
	Enabled *bool `json:"enabled"`
}

func (s *Server) listReminders(c echo.Context) error {
	pending, err := s.garden.PendingReminders(c.Request().Context())
	if err != nil {
		return s.HandleError(c, err, "Failed to list reminders", 0)
	}

	slices.SortFunc(pending, func(a, b reminder.Reminder) int {
		return a.TriggerAt.Compare(b.TriggerAt)
	})

	out := make([]ReminderResponse, 0, len(pending))
	for _, r := range pending {
		out = append(out, ReminderResponse{
			Key:       r.Key,
			PlantID:   r.PlantID,
			TriggerAt: r.TriggerAt,
			Title:     r.Title,
			Body:      r.Body,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) setNotifications(c echo.Context) error {
	var req NotificationSettingsRequest
	if err := c.Bind(&req); err != nil {
		return s.HandleError(c, err, "Invalid request body", http.StatusBadRequest)
	}
	if req.Enabled == nil {
		return s.HandleError(c, nil, "Missing enabled field", http.StatusBadRequest)
	}

	if err := s.garden.SetNotificationsEnabled(c.Request().Context(), *req.Enabled); err != nil {
		return s.HandleError(c, err, "Failed to update notifications", 0)
	}
	return c.JSON(http.StatusOK, map[string]bool{"enabled": s.garden.NotificationsEnabled()})
}

// foreground is called by clients returning to the foreground. It refreshes
// every reminder and reports whether an app-open ad was shown.
func (s *Server) foreground(c echo.Context) error {
	shown, err := s.garden.Foreground(c.Request().Context())
	if err != nil {
		return s.HandleError(c, err, "Failed to refresh reminders", 0)
	}
	return c.JSON(http.StatusOK, map[string]bool{"ad_shown": shown})
}
