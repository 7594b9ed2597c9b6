package garden

import (
	"context"
	"strings"

	"github.com/danbi-garden/danbi/internal/careinfo"
	"github.com/danbi-garden/danbi/internal/logger"
	"github.com/danbi-garden/danbi/internal/plant"
)

// Form is the editable state of the add-plant form that care information
// may prefill.
type Form struct {
	IntervalDays int
	Note         string
	Care         *careinfo.Profile // set when a profile was found
}

// NewForm returns a form with the default interval.
func NewForm() Form {
	return Form{IntervalDays: plant.DefaultIntervalDays}
}

// Prefill looks up care information for a confirmed species name. The
// recommended interval replaces the form's interval only while it is still
// the default, and the summary fills the note only while it is empty.
func (s *Service) Prefill(ctx context.Context, form Form, name, fallback string) Form {
	if s.resolver == nil {
		return form
	}

	profile, err := s.resolver.Resolve(ctx, name, fallback)
	if err != nil {
		s.log.Debug("care lookup abandoned", logger.Error(err))
		return form
	}
	if profile == nil {
		return form
	}

	form.Care = profile
	if profile.RecommendedDays != nil && form.IntervalDays == plant.DefaultIntervalDays {
		form.IntervalDays = *profile.RecommendedDays
	}
	if strings.TrimSpace(form.Note) == "" && profile.Summary != "" {
		form.Note = profile.Summary
	}
	return form
}
