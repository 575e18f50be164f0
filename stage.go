package mdp5

import (
	"cmp"
	"fmt"
	"log/slog"

	"github.com/go-errors/errors"
	"golang.org/x/exp/slices"

	"github.com/flavioheleno/mdp5/reg"
)

// assignStages gives each plane a mixer stage in z order, the lowest ZPos on
// StageBase. Planes with equal ZPos keep their input order. Nothing is
// modified when the planes do not fit.
func assignStages(planes []*PlaneState, capacity int, log *slog.Logger) error {
	if len(planes) > capacity {
		return errors.WrapPrefix(ErrTooManyLayers, fmt.Sprintf("%d planes for %d stages", len(planes), capacity), 0)
	}

	sorted := slices.Clone(planes)
	slices.SortStableFunc(sorted, func(a, b *PlaneState) int {
		return cmp.Compare(a.ZPos, b.ZPos)
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i].ZPos == sorted[i-1].ZPos {
			log.Warn("planes share a zpos", "zpos", sorted[i].ZPos,
				"pipes", []reg.Pipe{sorted[i-1].Plane.Pipe(), sorted[i].Plane.Pipe()})
		}
	}

	for i, ps := range sorted {
		ps.Stage = reg.StageBase + reg.Stage(i)
		log.Debug("assign stage", "pipe", ps.Plane.Pipe(), "stage", ps.Stage, "zpos", ps.ZPos)
	}
	return nil
}
