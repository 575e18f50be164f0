package mdp5

import (
	"testing"

	"github.com/go-errors/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flavioheleno/mdp5/mdp5test"
	"github.com/flavioheleno/mdp5/reg"
)

func planeAt(p reg.Pipe, z int) *PlaneState {
	return &PlaneState{Plane: mdp5test.NewPlane(p), ZPos: z, Alpha: 0xFF}
}

func TestAssignStagesOrder(t *testing.T) {
	a := planeAt(reg.PipeVIG0, 2)
	b := planeAt(reg.PipeRGB0, 0)
	c := planeAt(reg.PipeDMA0, 1)

	require.NoError(t, assignStages([]*PlaneState{a, b, c}, 5, quietLogger()))
	assert.Equal(t, reg.StageBase, b.Stage)
	assert.Equal(t, reg.StageBase+1, c.Stage)
	assert.Equal(t, reg.StageBase+2, a.Stage)
}

func permutations(n int) [][]int {
	if n == 0 {
		return [][]int{{}}
	}
	var out [][]int
	for _, p := range permutations(n - 1) {
		for i := 0; i <= len(p); i++ {
			q := append(append(append([]int{}, p[:i]...), n-1), p[i:]...)
			out = append(out, q)
		}
	}
	return out
}

func TestAssignStagesPermutations(t *testing.T) {
	pipes := []reg.Pipe{reg.PipeVIG0, reg.PipeVIG1, reg.PipeRGB0, reg.PipeRGB1, reg.PipeDMA0}
	for _, perm := range permutations(len(pipes)) {
		planes := make([]*PlaneState, len(perm))
		for i, z := range perm {
			planes[i] = planeAt(pipes[i], z*10)
		}
		require.NoError(t, assignStages(planes, 5, quietLogger()))

		seen := map[reg.Stage]bool{}
		for i, ps := range planes {
			assert.Equal(t, reg.StageBase+reg.Stage(perm[i]), ps.Stage, "perm %v plane %d", perm, i)
			seen[ps.Stage] = true
		}
		assert.Len(t, seen, len(planes))
	}
}

func TestAssignStagesTooMany(t *testing.T) {
	planes := []*PlaneState{
		planeAt(reg.PipeVIG0, 0),
		planeAt(reg.PipeVIG1, 1),
		planeAt(reg.PipeRGB0, 2),
	}
	for _, ps := range planes {
		ps.Stage = reg.Stage4
	}

	err := assignStages(planes, 2, quietLogger())
	assert.True(t, errors.Is(err, ErrTooManyLayers), "got %v", err)
	for _, ps := range planes {
		assert.Equal(t, reg.Stage4, ps.Stage)
	}
}

func TestAssignStagesDuplicateZPos(t *testing.T) {
	a := planeAt(reg.PipeVIG0, 1)
	b := planeAt(reg.PipeRGB0, 1)
	c := planeAt(reg.PipeDMA0, 0)

	require.NoError(t, assignStages([]*PlaneState{a, b, c}, 5, quietLogger()))
	assert.Equal(t, reg.StageBase, c.Stage)
	assert.Equal(t, reg.StageBase+1, a.Stage)
	assert.Equal(t, reg.StageBase+2, b.Stage)
}

func TestAssignStagesEmpty(t *testing.T) {
	assert.NoError(t, assignStages(nil, 1, quietLogger()))
}

func TestCheckRejectsMissingPlane(t *testing.T) {
	k, _ := newTestKMS(t, nil)
	c, _ := newOutput(t, k, 0, videoIntf)
	assert.Error(t, c.Check(&State{Planes: []*PlaneState{{}}}))
}

func TestCheckCapacity(t *testing.T) {
	k, _ := newTestKMS(t, &Opts{Stages: 1})
	c, _ := newOutput(t, k, 0, videoIntf)

	st := &State{Enable: true, Planes: []*PlaneState{planeAt(reg.PipeVIG0, 0), planeAt(reg.PipeVIG1, 1)}}
	err := c.Check(st)
	assert.True(t, errors.Is(err, ErrTooManyLayers), "got %v", err)
	assert.Equal(t, reg.StageUnused, st.Planes[0].Stage)
}
