package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/danbi-garden/danbi/internal/garden"
	"github.com/danbi-garden/danbi/internal/plant"
)

// PlantResponse is a plant with its derived watering state.
type PlantResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Species          string    `json:"species,omitempty"`
	LastWatered      time.Time `json:"last_watered"`
	IntervalDays     int       `json:"interval_days"`
	Note             string    `json:"note,omitempty"`
	SortOrder        int       `json:"sort_order"`
	HasImage         bool      `json:"has_image"`
	DaysSinceWatered int       `json:"days_since_watered"`
	DaysUntilDue     int       `json:"days_until_due"`
	NeedsWater       bool      `json:"needs_water"`
	Progress         float64   `json:"progress"`
	NextReminder     time.Time `json:"next_reminder"`
}

// CreatePlantRequest is the body of POST /plants. Image is base64 in JSON.
// An absent interval_days uses the default; an explicit value must be at
// least 1.
type CreatePlantRequest struct {
	Name         string     `json:"name"`
	Species      string     `json:"species"`
	LastWatered  *time.Time `json:"last_watered,omitempty"`
	IntervalDays *int       `json:"interval_days,omitempty"`
	Note         string     `json:"note,omitempty"`
	Image        []byte     `json:"image,omitempty"`
}

// UpdatePlantRequest is the body of PATCH /plants/:id. Absent fields are kept.
type UpdatePlantRequest struct {
	Name         *string    `json:"name,omitempty"`
	Species      *string    `json:"species,omitempty"`
	LastWatered  *time.Time `json:"last_watered,omitempty"`
	IntervalDays *int       `json:"interval_days,omitempty"`
	Note         *string    `json:"note,omitempty"`
	Image        *[]byte    `json:"image,omitempty"`
}

// SummaryResponse is the home screen banner: how many plants are due today.
type SummaryResponse struct {
	Plants       int    `json:"plants"`
	NeedingWater int    `json:"needing_water"`
	Message      string `json:"message"`
}

// ReorderRequest is the body of PUT /plants/order.
type ReorderRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) toResponse(rec *plant.Record) PlantResponse {
	now := s.garden.Now()
	return PlantResponse{
		ID:               rec.ID.String(),
		Name:             rec.Name,
		Species:          rec.Species,
		LastWatered:      rec.LastWatered,
		IntervalDays:     rec.IntervalDays,
		Note:             rec.Note,
		SortOrder:        rec.SortOrder,
		HasImage:         len(rec.Image) > 0,
		DaysSinceWatered: rec.DaysSinceWatered(now),
		DaysUntilDue:     rec.DaysUntilDue(now),
		NeedsWater:       rec.NeedsWater(now),
		Progress:         rec.Progress(now),
		NextReminder:     s.garden.NextReminder(rec),
	}
}

func (s *Server) listPlants(c echo.Context) error {
	plants, err := s.garden.List(c.Request().Context())
	if err != nil {
		return s.HandleError(c, err, "Failed to list plants", 0)
	}
	out := make([]PlantResponse, 0, len(plants))
	for _, p := range plants {
		out = append(out, s.toResponse(p))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getSummary(c echo.Context) error {
	ctx := c.Request().Context()
	due, err := s.garden.NeedingWater(ctx)
	if err != nil {
		return s.HandleError(c, err, "Failed to count plants", 0)
	}
	total, err := s.garden.Count(ctx)
	if err != nil {
		return s.HandleError(c, err, "Failed to count plants", 0)
	}
	return c.JSON(http.StatusOK, SummaryResponse{
		Plants:       total,
		NeedingWater: due,
		Message:      garden.SummaryMessage(due),
	})
}

func (s *Server) createPlant(c echo.Context) error {
	var req CreatePlantRequest
	if err := c.Bind(&req); err != nil {
		return s.HandleError(c, err, "Invalid request body", http.StatusBadRequest)
	}

	draft := garden.Draft{
		Name:    req.Name,
		Species: req.Species,
		Image:   req.Image,
		Note:    req.Note,
	}
	if req.IntervalDays != nil {
		if err := plant.ValidateInterval(*req.IntervalDays); err != nil {
			return s.HandleError(c, err, "Invalid watering interval", 0)
		}
		draft.IntervalDays = *req.IntervalDays
	}
	if req.LastWatered != nil {
		draft.LastWatered = *req.LastWatered
	}

	rec, err := s.garden.Create(c.Request().Context(), draft)
	if err != nil {
		return s.HandleError(c, err, "Failed to create plant", 0)
	}
	return c.JSON(http.StatusCreated, s.toResponse(rec))
}

func (s *Server) getPlant(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return s.HandleError(c, err, "Invalid plant id", http.StatusBadRequest)
	}
	rec, err := s.garden.Get(c.Request().Context(), id)
	if err != nil {
		return s.HandleError(c, err, "Plant not found", 0)
	}
	return c.JSON(http.StatusOK, s.toResponse(rec))
}

func (s *Server) updatePlant(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return s.HandleError(c, err, "Invalid plant id", http.StatusBadRequest)
	}

	var req UpdatePlantRequest
	if err := c.Bind(&req); err != nil {
		return s.HandleError(c, err, "Invalid request body", http.StatusBadRequest)
	}

	rec, err := s.garden.Edit(c.Request().Context(), id, garden.Patch{
		Name:         req.Name,
		Species:      req.Species,
		LastWatered:  req.LastWatered,
		IntervalDays: req.IntervalDays,
		Image:        req.Image,
		Note:         req.Note,
	})
	if err != nil {
		return s.HandleError(c, err, "Failed to update plant", 0)
	}
	return c.JSON(http.StatusOK, s.toResponse(rec))
}

func (s *Server) deletePlant(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return s.HandleError(c, err, "Invalid plant id", http.StatusBadRequest)
	}
	if err := s.garden.Delete(c.Request().Context(), id); err != nil {
		return s.HandleError(c, err, "Failed to delete plant", 0)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) waterPlant(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return s.HandleError(c, err, "Invalid plant id", http.StatusBadRequest)
	}
	rec, err := s.garden.Water(c.Request().Context(), id)
	if err != nil {
		return s.HandleError(c, err, "Failed to water plant", 0)
	}
	return c.JSON(http.StatusOK, s.toResponse(rec))
}

func (s *Server) getPlantImage(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return s.HandleError(c, err, "Invalid plant id", http.StatusBadRequest)
	}
	rec, err := s.garden.Get(c.Request().Context(), id)
	if err != nil {
		return s.HandleError(c, err, "Plant not found", 0)
	}
	if len(rec.Image) == 0 {
		return s.HandleError(c, nil, "Plant has no photo", http.StatusNotFound)
	}
	return c.Blob(http.StatusOK, http.DetectContentType(rec.Image), rec.Image)
}

func (s *Server) reorderPlants(c echo.Context) error {
	var req ReorderRequest
	if err := c.Bind(&req); err != nil {
		return s.HandleError(c, err, "Invalid request body", http.StatusBadRequest)
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return s.HandleError(c, err, "Invalid plant id", http.StatusBadRequest)
		}
		ids = append(ids, id)
	}

	if err := s.garden.Reorder(c.Request().Context(), ids); err != nil {
		return s.HandleError(c, err, "Failed to reorder plants", 0)
	}
	return s.listPlants(c)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}
