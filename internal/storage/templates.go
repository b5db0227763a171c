package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/rerack/internal/gymstats/workouts"
	"github.com/2beens/rerack/internal/localstore"
)

var ErrInvalidTemplate = errors.New("invalid template")

// Templates never leave the device.

func (s *Service) SaveTemplate(ctx context.Context, t workouts.Template) (workouts.Template, error) {
	if strings.TrimSpace(t.Name) == "" {
		return workouts.Template{}, fmt.Errorf("%w: empty name", ErrInvalidTemplate)
	}
	if t.ID == "" {
		t.ID = workouts.NewWorkoutID(s.now())
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	s.saveLocal(ctx, localstore.CollectionTemplates, t.ID, t)
	return t, nil
}

// GetAllTemplates returns templates sorted by name.
func (s *Service) GetAllTemplates(ctx context.Context) []workouts.Template {
	templates, skipped, err := localstore.ListJSON[workouts.Template](ctx, s.local, localstore.CollectionTemplates)
	if err != nil {
		log.Errorf("local list templates: %s", err)
		return []workouts.Template{}
	}
	if skipped > 0 {
		log.Warnf("local list templates: skipped %d undecodable entries", skipped)
	}
	sort.SliceStable(templates, func(i, j int) bool {
		return strings.ToLower(templates[i].Name) < strings.ToLower(templates[j].Name)
	})
	return templates
}

func (s *Service) DeleteTemplate(ctx context.Context, id string) {
	if err := s.local.Delete(ctx, localstore.CollectionTemplates, id); err != nil {
		log.Errorf("local delete template %s: %s", id, err)
	}
}
