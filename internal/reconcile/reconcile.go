// Package reconcile validates extracted slots, resolves their sports and
// writes them as open-slot records for one gym.
package reconcile

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

// Result tallies one Persist call. Success+Failed equals the number of
// input slots unless the batch was aborted before any slot was tried.
type Result struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
	// Aborted is set when the batch precondition failed; it wraps
	// common.ErrPrecondition.
	Aborted error `json:"-"`
}

// SportResolver is the subset of the resolver Persist needs.
type SportResolver interface {
	ResolveSport(ctx context.Context, name string) (ref string, ok bool, err error)
}

type Reconciler struct {
	gyms   repository.GymRepository
	slots  repository.OpenSlotRepository
	sports SportResolver
	logger *slog.Logger
}

func NewReconciler(gyms repository.GymRepository, slots repository.OpenSlotRepository, sports SportResolver, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{gyms: gyms, slots: slots, sports: sports, logger: logger}
}

// Persist writes slots for gymRef in order. Per-slot problems are counted
// and reported in Errors; only a gym without an area aborts the batch.
func (r *Reconciler) Persist(ctx context.Context, gymRef, sourceRef string, slots []entity.Slot) Result {
	res := Result{Errors: []string{}}
	if len(slots) == 0 {
		return res
	}

	gym, err := r.gyms.GetByID(ctx, gymRef)
	if err != nil || gym.AreaID == "" {
		msg := "Failed to get area_id for gym: " + gymRef
		r.logger.Error("reconcile.gym.no_area", "gym_id", gymRef, "error", err)
		res.Errors = append(res.Errors, msg)
		res.Aborted = common.PreconditionError(msg, err)
		return res
	}

	sportCache := map[string]string{}
	for i, s := range slots {
		if err := validateSlot(s); err != nil {
			r.fail(&res, i, s, fmt.Sprintf("Invalid slot %s %s: %s", s.Date, s.StartTime, err.Error()), err)
			continue
		}

		sportRef, ok := sportCache[s.SportName]
		if !ok {
			lookup := strings.TrimSpace(s.SportName)
			if canon, known := constants.CanonicalSport(lookup); known {
				lookup = canon
			}
			ref, found, err := r.sports.ResolveSport(ctx, lookup)
			if err != nil {
				r.fail(&res, i, s, fmt.Sprintf("Failed to resolve sport %s: %v", s.SportName, err), err)
				continue
			}
			if !found {
				r.fail(&res, i, s, "Sport not found: "+s.SportName, nil)
				continue
			}
			sportRef = ref
			sportCache[s.SportName] = ref
		}

		_, err := r.slots.Create(ctx, &entity.OpenSlot{
			GymID:         gym.ID,
			AreaID:        gym.AreaID,
			SportID:       sportRef,
			SourceID:      sourceRef,
			Date:          s.Date,
			StartTime:     s.StartTime,
			EndTime:       s.EndTime,
			Status:        s.Status,
			Capacity:      s.Capacity,
			Remaining:     s.Remaining,
			ReceptionType: s.ReceptionType,
			Target:        s.Target,
			Notes:         s.Notes,
		})
		if err != nil {
			r.fail(&res, i, s, fmt.Sprintf("Failed to save slot %s %s: %v", s.Date, s.StartTime, err), err)
			continue
		}
		res.Success++
	}

	r.logger.Info("reconcile.persist.done",
		"gym_id", gymRef,
		"source_id", sourceRef,
		"success", res.Success,
		"failed", res.Failed,
	)
	return res
}

func (r *Reconciler) fail(res *Result, i int, s entity.Slot, msg string, err error) {
	res.Failed++
	res.Errors = append(res.Errors, msg)
	r.logger.Warn("reconcile.slot.failed", "index", i, "slot", s, "reason", msg, "error", err)
}

func validateSlot(s entity.Slot) error {
	v := common.NewValidator().
		Field("date", s.Date, common.Required, common.Layout("2006-01-02")).
		Field("start_time", s.StartTime, common.Clock).
		Field("end_time", s.EndTime, common.Clock).
		Field("sport_name", s.SportName, common.Required).
		Field("status", string(s.Status), common.OneOf(constants.Statuses()...)).
		Field("reception_type", string(s.ReceptionType), common.OneOf(constants.ReceptionTypes()...)).
		Field("capacity", s.Capacity, common.NonNegative).
		Field("remaining", s.Remaining, common.NonNegative)
	if s.Capacity != nil && s.Remaining != nil {
		v.Check(*s.Remaining <= *s.Capacity, "remaining", *s.Remaining, fmt.Sprintf("must not exceed capacity %d", *s.Capacity))
	}
	if !v.HasErrors() {
		return nil
	}
	return errors.New(v.ErrorMessage())
}
