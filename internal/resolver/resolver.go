// Package resolver maps names found in schedules to stored gym, area and
// sport references, creating gyms and areas on first sight.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/gym-slots/constants"
	"github.com/joseph-ayodele/gym-slots/internal/common"
	"github.com/joseph-ayodele/gym-slots/internal/entity"
	"github.com/joseph-ayodele/gym-slots/internal/repository"
)

// GymInput describes a gym as found in one document.
type GymInput struct {
	Name      string
	Address   string
	Tel       string
	AreaName  string
	SourceURL string
}

type Resolver struct {
	gyms   repository.GymRepository
	areas  repository.AreaRepository
	sports repository.SportRepository
	logger *slog.Logger
}

func NewResolver(gyms repository.GymRepository, areas repository.AreaRepository, sports repository.SportRepository, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{gyms: gyms, areas: areas, sports: sports, logger: logger}
}

// ResolveGym returns the reference of the gym named in. An unknown name
// creates the gym with open-use display defaults.
func (r *Resolver) ResolveGym(ctx context.Context, in GymInput) (string, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = constants.DefaultGymName
	}

	existing, err := r.gyms.GetByName(ctx, name)
	switch {
	case err == nil:
		r.logger.Debug("resolver.gym.existing", "gym", name, "gym_id", existing.ID)
		return existing.ID, nil
	case !errors.Is(err, common.ErrNotFound):
		return "", fmt.Errorf("look up gym %q: %w", name, err)
	}

	areaRef, _, err := r.ResolveArea(ctx, in.AreaName)
	if err != nil {
		return "", err
	}

	stored, created, err := r.gyms.Create(ctx, &entity.Gym{
		Name:         name,
		Address:      strings.TrimSpace(in.Address),
		Tel:          strings.TrimSpace(in.Tel),
		AreaID:       areaRef,
		Tags:         []string{},
		Courts:       map[string]int{},
		Format:       constants.GymFormatOpenUse,
		Restrictions: []string{},
		Parking:      constants.GymParkingUnknown,
		OfficialURL:  in.SourceURL,
		Distance:     constants.GymDistanceUnknown,
	})
	if err != nil {
		return "", fmt.Errorf("create gym %q: %w", name, err)
	}
	if created {
		r.logger.Info("resolver.gym.created", "gym", name, "gym_id", stored.ID, "area_id", stored.AreaID)
	}
	return stored.ID, nil
}

// ResolveArea trims name and returns its area reference, creating the area
// when needed. A blank name yields ok=false.
func (r *Resolver) ResolveArea(ctx context.Context, name string) (string, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false, nil
	}

	area, err := r.areas.GetByName(ctx, name)
	if err == nil {
		return area.ID, true, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return "", false, fmt.Errorf("look up area %q: %w", name, err)
	}

	area, err = r.areas.Create(ctx, name)
	if err != nil {
		return "", false, fmt.Errorf("create area %q: %w", name, err)
	}
	r.logger.Info("resolver.area.created", "area", name, "area_id", area.ID)
	return area.ID, true, nil
}

// ResolveSport looks name up in the sport vocabulary. It never creates.
func (r *Resolver) ResolveSport(ctx context.Context, name string) (string, bool, error) {
	s, err := r.sports.GetByName(ctx, name)
	if err == nil {
		return s.ID, true, nil
	}
	if errors.Is(err, common.ErrNotFound) {
		return "", false, nil
	}
	return "", false, fmt.Errorf("look up sport %q: %w", name, err)
}
