package waypoints_test

import (
	"testing"

	"github.com/UnknownOlympus/wayly/internal/models"
	"github.com/UnknownOlympus/wayly/internal/waypoints"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Add(t *testing.T) {
	t.Parallel()

	t.Run("same coordinates different names", func(t *testing.T) {
		t.Parallel()
		store := waypoints.NewStore()

		store.Add(models.Waypoint{Latitude: 41.14, Longitude: -8.61, Name: "Ribeira"})
		steps := store.Add(models.Waypoint{Latitude: 41.14, Longitude: -8.61, Name: "Cais"})

		require.Len(t, steps, 1)
		assert.Equal(t, "Ribeira", steps[0].Name)
	})

	t.Run("preserves insertion order", func(t *testing.T) {
		t.Parallel()
		store := waypoints.NewStore()

		store.Add(models.Waypoint{Latitude: 3, Longitude: 3})
		store.Add(models.Waypoint{Latitude: 1, Longitude: 1})
		store.Add(models.Waypoint{Latitude: 2, Longitude: 2})

		steps := store.Snapshot()
		require.Len(t, steps, 3)
		assert.InDelta(t, 3.0, steps[0].Latitude, 0)
		assert.InDelta(t, 1.0, steps[1].Latitude, 0)
		assert.InDelta(t, 2.0, steps[2].Latitude, 0)
	})

	t.Run("swapped axes are distinct", func(t *testing.T) {
		t.Parallel()
		store := waypoints.NewStore()

		store.Add(models.Waypoint{Latitude: 1, Longitude: 2})
		store.Add(models.Waypoint{Latitude: 2, Longitude: 1})

		assert.Equal(t, 2, store.Len())
	})
}

func TestStore_Remove(t *testing.T) {
	t.Parallel()

	t.Run("ignores the name", func(t *testing.T) {
		t.Parallel()
		store := waypoints.NewStore()

		store.Add(models.Waypoint{Latitude: 40.64, Longitude: -8.65, Name: "Museu"})
		steps := store.Remove(models.Waypoint{Latitude: 40.64, Longitude: -8.65})

		assert.Empty(t, steps)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("absent waypoint is a no-op", func(t *testing.T) {
		t.Parallel()
		store := waypoints.NewStore()
		store.Add(models.Waypoint{Latitude: 1, Longitude: 1})

		steps := store.Remove(models.Waypoint{Latitude: 9, Longitude: 9})

		assert.Len(t, steps, 1)
	})
}

func TestStore_ClearAndSnapshot(t *testing.T) {
	t.Parallel()
	store := waypoints.NewStore()
	store.Add(models.Waypoint{Latitude: 1, Longitude: 1})

	snapshot := store.Snapshot()
	snapshot[0].Name = "mutated"
	store.Clear()

	assert.Equal(t, 0, store.Len())
	assert.Empty(t, store.Snapshot())
	assert.Equal(t, "mutated", snapshot[0].Name)
}
