package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tuttifrutti/internal/game"
)

func testRoom(id string, created time.Time) *game.Room {
	return &game.Room{
		ID:                         id,
		Name:                       "room " + id,
		Status:                     game.StatusLobby,
		Players:                    []*game.Player{game.NewPlayer("p1", "Alice", created)},
		GameHistory:                []game.HistoryEntry{},
		LastProcessedCategoryIndex: -1,
		CreatedAt:                  created,
	}
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.CreateRoom(ctx, testRoom("AB12", now)))
	assert.Equal(t, ErrExists, s.CreateRoom(ctx, testRoom("AB12", now)))

	got, err := s.GetRoom(ctx, "AB12")
	require.NoError(t, err)
	assert.Equal(t, "AB12", got.ID)

	// Reads are private copies; mutating one must not leak into the store.
	got.Name = "mutated"
	again, err := s.GetRoom(ctx, "AB12")
	require.NoError(t, err)
	assert.Equal(t, "room AB12", again.Name)

	_, err = s.GetRoom(ctx, "NOPE")
	assert.Equal(t, ErrNotFound, err)
}

func TestMemoryStore_UpdateRoom(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.CreateRoom(ctx, testRoom("AB12", time.Now())))

	t.Run("commit writes", func(t *testing.T) {
		err := s.UpdateRoom(ctx, "AB12", func(r *game.Room) (bool, error) {
			r.Status = game.StatusPlaying
			return true, nil
		})
		require.NoError(t, err)

		got, _ := s.GetRoom(ctx, "AB12")
		assert.Equal(t, game.StatusPlaying, got.Status)
	})

	t.Run("abort leaves the document untouched", func(t *testing.T) {
		err := s.UpdateRoom(ctx, "AB12", func(r *game.Room) (bool, error) {
			r.Status = game.StatusDeleted
			return false, nil
		})
		require.NoError(t, err)

		got, _ := s.GetRoom(ctx, "AB12")
		assert.Equal(t, game.StatusPlaying, got.Status)
	})

	t.Run("errors pass through", func(t *testing.T) {
		err := s.UpdateRoom(ctx, "AB12", func(r *game.Room) (bool, error) {
			return false, game.ErrNotHost
		})
		assert.Equal(t, game.ErrNotHost, err)
	})

	t.Run("missing room", func(t *testing.T) {
		err := s.UpdateRoom(ctx, "NOPE", func(r *game.Room) (bool, error) {
			return true, nil
		})
		assert.Equal(t, ErrNotFound, err)
	})
}

func TestMemoryStore_WatchRoom(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.CreateRoom(ctx, testRoom("AB12", time.Now())))

	ch, cancel := s.WatchRoom("AB12")
	defer cancel()

	// Subscribing seeds the current state.
	first := <-ch
	require.True(t, first.Exists)
	assert.Equal(t, game.StatusLobby, first.Room.Status)

	require.NoError(t, s.UpdateRoom(ctx, "AB12", func(r *game.Room) (bool, error) {
		r.Status = game.StatusPlaying
		return true, nil
	}))
	second := <-ch
	assert.Equal(t, game.StatusPlaying, second.Room.Status)

	require.NoError(t, s.DeleteRoom(ctx, "AB12"))
	third := <-ch
	assert.False(t, third.Exists)
	assert.Nil(t, third.Room)
}

func TestMemoryStore_WatchRoom_AbortedUpdateIsSilent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.CreateRoom(ctx, testRoom("AB12", time.Now())))

	ch, cancel := s.WatchRoom("AB12")
	defer cancel()
	<-ch // seed

	require.NoError(t, s.UpdateRoom(ctx, "AB12", func(r *game.Room) (bool, error) {
		return false, nil
	}))

	select {
	case snap := <-ch:
		t.Fatalf("aborted update must not notify, got %+v", snap)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryStore_ActiveRooms(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Now().UTC()

	for i, id := range []string{"AAAA", "BBBB", "CCCC"} {
		require.NoError(t, s.CreateRoom(ctx, testRoom(id, base.Add(time.Duration(i)*time.Minute))))
	}
	require.NoError(t, s.UpdateRoom(ctx, "BBBB", func(r *game.Room) (bool, error) {
		r.Status = game.StatusDormant
		return true, nil
	}))

	listing, err := s.ActiveRooms(ctx)
	require.NoError(t, err)
	require.Len(t, listing, 2)
	// Newest first, dormant hidden.
	assert.Equal(t, "CCCC", listing[0].ID)
	assert.Equal(t, "AAAA", listing[1].ID)
}

func TestMemoryStore_ActiveRoomsCap(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Now().UTC()

	codes := []string{"R001", "R002", "R003", "R004", "R005", "R006", "R007", "R008", "R009", "R010", "R011", "R012"}
	for i, id := range codes {
		require.NoError(t, s.CreateRoom(ctx, testRoom(id, base.Add(time.Duration(i)*time.Second))))
	}

	listing, err := s.ActiveRooms(ctx)
	require.NoError(t, err)
	assert.Len(t, listing, ActiveRoomsLimit)
	assert.Equal(t, "R012", listing[0].ID)
}

func TestMemoryStore_Words(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ok, err := s.HasWord(ctx, "AB12_City_L_lima")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.AddWords(ctx, []LibraryEntry{
		{Key: "AB12_City_L_lima", Word: "Lima", ApprovedAt: time.Now()},
	}))

	ok, err = s.HasWord(ctx, "AB12_City_L_lima")
	require.NoError(t, err)
	assert.True(t, ok)
}
