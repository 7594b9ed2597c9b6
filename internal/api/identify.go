package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/danbi-garden/danbi/internal/careinfo"
	"github.com/danbi-garden/danbi/internal/garden"
	"github.com/danbi-garden/danbi/internal/species"
)

// imageField is the multipart field carrying the photo.
const imageField = "image"

// CareResponse pairs a care profile with the prefilled add-plant form.
type CareResponse struct {
	Profile      *careinfo.Profile `json:"profile"`
	IntervalDays int               `json:"interval_days"`
	Note         string            `json:"note,omitempty"`
}

// identifyPhoto accepts the photo either as a multipart "image" field or as
// the raw request body.
func (s *Server) identifyPhoto(c echo.Context) error {
	data, err := readImage(c)
	if err != nil {
		return s.HandleError(c, err, "Failed to read photo", http.StatusBadRequest)
	}

	result, err := s.garden.Identify(c.Request().Context(), data)
	if err != nil {
		return s.HandleError(c, err, "Identification failed", 0)
	}
	return c.JSON(http.StatusOK, result)
}

func readImage(c echo.Context) ([]byte, error) {
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile(imageField)
		if err != nil {
			return nil, err
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	return io.ReadAll(c.Request().Body)
}

// getCare resolves care information for ?name=, trying ?fallback= when the
// first lookup finds nothing, and returns the form a fresh add-plant screen
// would show.
func (s *Server) getCare(c echo.Context) error {
	name := strings.TrimSpace(c.QueryParam("name"))
	if name == "" {
		return s.HandleError(c, nil, "Missing name parameter", http.StatusBadRequest)
	}
	fallback := strings.TrimSpace(c.QueryParam("fallback"))

	form := s.garden.Prefill(c.Request().Context(), garden.NewForm(), name, fallback)
	if form.Care == nil {
		return s.HandleError(c, nil, "No care information found", http.StatusNotFound)
	}
	return c.JSON(http.StatusOK, CareResponse{
		Profile:      form.Care,
		IntervalDays: form.IntervalDays,
		Note:         form.Note,
	})
}

// searchSpecies filters the curated list used for manual selection.
func (s *Server) searchSpecies(c echo.Context) error {
	matches := s.garden.Search(c.QueryParam("q"))
	if matches == nil {
		matches = []species.Houseplant{}
	}
	return c.JSON(http.StatusOK, matches)
}
