package preset

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lautenbacher.net/golight/color"
	"lautenbacher.net/golight/events"
	"lautenbacher.net/golight/persist"
)

type mockCommitter struct {
	commits int
	fail    error
}

func (m *mockCommitter) Commit(persist.State) error {
	if m.fail != nil {
		return m.fail
	}
	m.commits++
	return nil
}

type mockApplier struct {
	applied []color.HSV
}

func (m *mockApplier) SetHSV(h, s, v int) error {
	m.applied = append(m.applied, color.ClampHSV(h, s, v))
	return nil
}

type mockPublisher struct {
	last events.PresetsChanged
	n    int
}

func (m *mockPublisher) Publish(e events.Event) {
	if p, ok := e.(events.PresetsChanged); ok {
		m.last = p
		m.n++
	}
}

func newStore() (*Store, *mockCommitter, *mockApplier, *mockPublisher) {
	c := &mockCommitter{}
	a := &mockApplier{}
	p := &mockPublisher{}
	return New(&persist.State{}, c, a, p), c, a, p
}

func names(entries []persist.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func fill(t *testing.T, s *Store, n int) {
	for i := range n {
		require.NoError(t, s.Save(color.HSV{H: uint16(i)}, fmt.Sprintf("c%d", i)))
	}
}

func TestSaveAppendsAndCommits(t *testing.T) {
	s, c, _, p := newStore()

	require.NoError(t, s.Save(color.HSV{H: 180, S: 50, V: 50}, "mint"))
	require.NoError(t, s.Save(color.HSV{H: 0, S: 100, V: 100}, "red"))

	assert.Equal(t, []string{"mint", "red"}, names(s.List()))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 2, c.commits)
	assert.Equal(t, 2, p.n)
	assert.Equal(t, []string{"mint", "red"}, p.last.Names)
}

func TestEleventhSaveFails(t *testing.T) {
	s, c, _, _ := newStore()
	fill(t, s, persist.Capacity)

	err := s.Save(color.HSV{H: 99}, "extra")
	assert.ErrorIs(t, err, ErrFull)
	assert.Equal(t, persist.Capacity, s.Len())
	assert.Equal(t, persist.Capacity, c.commits, "no commit for the rejected save")
}

func TestDuplicateNameFails(t *testing.T) {
	s, c, _, _ := newStore()
	require.NoError(t, s.Save(color.HSV{H: 1}, "mint"))

	err := s.Save(color.HSV{H: 200, S: 3, V: 4}, "mint")
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, c.commits)

	// case sensitive
	require.NoError(t, s.Save(color.HSV{H: 1}, "Mint"))
}

func TestFullIsReportedBeforeDuplicate(t *testing.T) {
	s, _, _, _ := newStore()
	fill(t, s, persist.Capacity)
	assert.ErrorIs(t, s.Save(color.HSV{}, "c0"), ErrFull)
}

func TestNameIsTruncatedBeforeDuplicateCheck(t *testing.T) {
	s, _, _, _ := newStore()
	require.NoError(t, s.Save(color.HSV{}, "abcdefghijkXXX"))
	assert.Equal(t, []string{"abcdefghijk"}, names(s.List()))
	assert.ErrorIs(t, s.Save(color.HSV{}, "abcdefghijkYYY"), ErrDuplicate)
}

func TestEmptyName(t *testing.T) {
	s, _, _, _ := newStore()
	assert.ErrorIs(t, s.Save(color.HSV{}, ""), ErrInvalidName)
}

func TestDeletePreservesOrder(t *testing.T) {
	s, c, _, _ := newStore()
	fill(t, s, 5)

	require.NoError(t, s.Delete("c2"))
	assert.Equal(t, []string{"c0", "c1", "c3", "c4"}, names(s.List()))
	assert.Equal(t, 6, c.commits)

	require.NoError(t, s.Delete("c0"))
	require.NoError(t, s.Delete("c4"))
	assert.Equal(t, []string{"c1", "c3"}, names(s.List()))
	assert.Equal(t, uint16(3), s.List()[1].Color.H, "colors move with their names")
}

func TestDeleteNotFound(t *testing.T) {
	s, c, _, _ := newStore()
	fill(t, s, 2)
	assert.ErrorIs(t, s.Delete("nope"), ErrNotFound)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 2, c.commits)
}

func TestApplyDelegatesToEngine(t *testing.T) {
	s, c, a, _ := newStore()
	require.NoError(t, s.Save(color.HSV{H: 180, S: 50, V: 50}, "mint"))

	require.NoError(t, s.Apply("mint"))
	assert.Equal(t, []color.HSV{{H: 180, S: 50, V: 50}}, a.applied)
	assert.Equal(t, 1, c.commits, "the active color flush belongs to the engine")

	assert.ErrorIs(t, s.Apply("nope"), ErrNotFound)
	assert.Len(t, a.applied, 1)
}

func TestCommitFailureRollsBack(t *testing.T) {
	s, c, _, p := newStore()
	fill(t, s, 3)
	c.fail = errors.New("stall")

	err := s.Save(color.HSV{}, "new")
	assert.ErrorContains(t, err, "stall")
	assert.Equal(t, []string{"c0", "c1", "c2"}, names(s.List()))

	err = s.Delete("c1")
	assert.ErrorContains(t, err, "stall")
	assert.Equal(t, []string{"c0", "c1", "c2"}, names(s.List()))
	assert.Equal(t, 3, p.n)
}

func TestListIsACopy(t *testing.T) {
	s, _, _, _ := newStore()
	fill(t, s, 1)
	l := s.List()
	l[0].Name = "changed"
	assert.Equal(t, "c0", s.List()[0].Name)
}
