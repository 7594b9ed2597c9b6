package plant

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/danbi-garden/danbi/internal/errors"
	"github.com/danbi-garden/danbi/internal/plant"
)

// lister is the part of the garden service argument resolution needs.
type lister interface {
	List(ctx context.Context) ([]*plant.Record, error)
}

// resolve finds the plant an argument refers to: a full ID, an ID prefix
// of at least four characters, or an exact name. Ambiguous arguments are
// rejected.
func resolve(ctx context.Context, svc lister, arg string) (*plant.Record, error) {
	arg = strings.TrimSpace(arg)
	plants, err := svc.List(ctx)
	if err != nil {
		return nil, err
	}

	if id, err := uuid.Parse(arg); err == nil {
		for _, p := range plants {
			if p.ID == id {
				return p, nil
			}
		}
		return nil, notFound(arg)
	}

	var matches []*plant.Record
	for _, p := range plants {
		if p.Name == arg {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 && len(arg) >= 4 {
		prefix := strings.ToLower(arg)
		for _, p := range plants {
			if strings.HasPrefix(p.ID.String(), prefix) {
				matches = append(matches, p)
			}
		}
	}

	switch len(matches) {
	case 0:
		return nil, notFound(arg)
	case 1:
		return matches[0], nil
	default:
		return nil, errors.Newf("%q matches %d plants, use the id", arg, len(matches)).
			Category(errors.CategoryConflict).
			Component("cli").
			Context("argument", arg).
			Build()
	}
}

func resolveAll(ctx context.Context, svc lister, args []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(args))
	for _, arg := range args {
		rec, err := resolve(ctx, svc, arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, rec.ID)
	}
	return ids, nil
}

func notFound(arg string) error {
	return errors.Newf("no plant matches %q", arg).
		Category(errors.CategoryNotFound).
		Component("cli").
		Context("argument", arg).
		Build()
}
