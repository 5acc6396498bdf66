package compare

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelector_StartsIdle(t *testing.T) {
	sel := NewSelector(openStore(t, 3))
	assert.Equal(t, Idle, sel.State())

	a, b := sel.Selection()
	assert.Empty(t, a)
	assert.Empty(t, b)
}

func TestSelector_ReadyAfterTwoSelections(t *testing.T) {
	sel := NewSelector(openStore(t, 3))

	require.NoError(t, sel.Select(SlotA, "id-1"))
	assert.Equal(t, Idle, sel.State())

	require.NoError(t, sel.Select(SlotB, "id-2"))
	assert.Equal(t, Ready, sel.State())
}

func TestSelector_SameVersionRejected(t *testing.T) {
	sel := NewSelector(openStore(t, 3))
	require.NoError(t, sel.Select(SlotA, "id-1"))
	require.NoError(t, sel.Select(SlotB, "id-2"))

	err := sel.Select(SlotB, "id-1")

	require.ErrorIs(t, err, ErrSameVersion)
	a, b := sel.Selection()
	assert.Equal(t, "id-1", a)
	assert.Equal(t, "id-2", b, "slot B unchanged")
}

func TestSelector_SameVersionRejectedIntoEmptySlot(t *testing.T) {
	sel := NewSelector(openStore(t, 2))
	require.NoError(t, sel.Select(SlotA, "id-1"))

	require.ErrorIs(t, sel.Select(SlotB, "id-1"), ErrSameVersion)
	_, b := sel.Selection()
	assert.Empty(t, b)
}

func TestSelector_UnknownID(t *testing.T) {
	sel := NewSelector(openStore(t, 2))
	require.ErrorIs(t, sel.Select(SlotA, "missing"), ErrNotFound)
}

func TestSelector_NotEnoughVersions(t *testing.T) {
	for _, n := range []int{0, 1} {
		sel := NewSelector(openStore(t, n))
		require.ErrorIs(t, sel.Select(SlotA, "id-1"), ErrNotEnoughVersions)
	}
}

func TestSelector_UnknownSlot(t *testing.T) {
	sel := NewSelector(openStore(t, 2))
	require.ErrorIs(t, sel.Select(Slot("c"), "id-1"), ErrUnknownSlot)
}

func TestSelector_CompareNotReady(t *testing.T) {
	sel := NewSelector(openStore(t, 2))
	_, err := sel.Compare()
	require.ErrorIs(t, err, ErrNotReady)

	require.NoError(t, sel.Select(SlotA, "id-1"))
	_, err = sel.Compare()
	require.ErrorIs(t, err, ErrNotReady)
}

func TestSelector_CompareEntersComparing(t *testing.T) {
	sel := NewSelector(openStore(t, 3))
	require.NoError(t, sel.Select(SlotA, "id-1"))
	require.NoError(t, sel.Select(SlotB, "id-3"))

	c, err := sel.Compare()
	require.NoError(t, err)

	assert.Equal(t, Comparing, sel.State())
	assert.Equal(t, "v1", c.A.Label())
	assert.Equal(t, "v3", c.B.Label())

	// Comparing again from Comparing is allowed.
	_, err = sel.Compare()
	require.NoError(t, err)
}

func TestSelector_SelectionChangeEndsComparing(t *testing.T) {
	sel := NewSelector(openStore(t, 3))
	require.NoError(t, sel.Select(SlotA, "id-1"))
	require.NoError(t, sel.Select(SlotB, "id-2"))
	_, err := sel.Compare()
	require.NoError(t, err)

	require.NoError(t, sel.Select(SlotB, "id-3"))
	assert.Equal(t, Ready, sel.State())
}

func TestSelector_ReselectSameSlotKeepsComparing(t *testing.T) {
	sel := NewSelector(openStore(t, 2))
	require.NoError(t, sel.Select(SlotA, "id-1"))
	require.NoError(t, sel.Select(SlotB, "id-2"))
	_, err := sel.Compare()
	require.NoError(t, err)

	require.NoError(t, sel.Select(SlotA, "id-1"))
	assert.Equal(t, Comparing, sel.State())
}

func TestSelector_FailedSelectKeepsComparing(t *testing.T) {
	sel := NewSelector(openStore(t, 2))
	require.NoError(t, sel.Select(SlotA, "id-1"))
	require.NoError(t, sel.Select(SlotB, "id-2"))
	_, err := sel.Compare()
	require.NoError(t, err)

	require.Error(t, sel.Select(SlotA, "id-2"))
	assert.Equal(t, Comparing, sel.State())
}

func TestSelector_ResetAndClear(t *testing.T) {
	sel := NewSelector(openStore(t, 2))
	require.NoError(t, sel.Select(SlotA, "id-1"))
	require.NoError(t, sel.Select(SlotB, "id-2"))
	_, err := sel.Compare()
	require.NoError(t, err)

	sel.Reset()
	assert.Equal(t, Ready, sel.State())

	sel.Clear(SlotA)
	assert.Equal(t, Idle, sel.State())
	a, b := sel.Selection()
	assert.Empty(t, a)
	assert.Equal(t, "id-2", b)
}

func TestSelector_DeletedSelectionFallsBackToIdle(t *testing.T) {
	s := openStore(t, 3)
	sel := NewSelector(s)
	require.NoError(t, sel.Select(SlotA, "id-1"))
	require.NoError(t, sel.Select(SlotB, "id-2"))
	_, err := sel.Compare()
	require.NoError(t, err)

	require.NoError(t, s.DeleteOne(context.Background(), "id-2"))

	assert.Equal(t, Idle, sel.State())
	_, err = sel.Compare()
	require.ErrorIs(t, err, ErrNotReady)
}

func TestParseSlot(t *testing.T) {
	got, err := ParseSlot("A")
	require.NoError(t, err)
	assert.Equal(t, SlotA, got)

	got, err = ParseSlot("b")
	require.NoError(t, err)
	assert.Equal(t, SlotB, got)

	_, err = ParseSlot("left")
	require.ErrorIs(t, err, ErrUnknownSlot)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "comparing", Comparing.String())
	assert.Equal(t, "State(7)", State(7).String())
}
