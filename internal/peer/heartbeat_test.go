package peer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tuttifrutti/internal/game"
	"tuttifrutti/internal/store"
)

func addPlayerSeen(t *testing.T, st store.Store, roomID, uid string, lastSeen time.Time) {
	t.Helper()
	require.NoError(t, st.UpdateRoom(context.Background(), roomID, func(r *game.Room) (bool, error) {
		p := game.NewPlayer(uid, uid, lastSeen)
		return true, r.AddPlayer(p)
	}))
}

func TestBeat_UpdatesOwnLastSeenOnly(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	st := store.NewMemoryStore()
	s1 := newTestSession(t, cfg, st, "u1", "Alice")

	room, err := s1.CreateRoom(ctx, "", "en", 0)
	require.NoError(t, err)

	old := time.Now().UTC().Add(-time.Hour)
	addPlayerSeen(t, st, room.ID, "u2", old)
	require.NoError(t, st.UpdateRoom(ctx, room.ID, func(r *game.Room) (bool, error) {
		r.FindPlayer("u1").LastSeen = old
		return true, nil
	}))

	s1.beat(ctx, room.ID)

	stored, err := st.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.True(t, stored.FindPlayer("u1").LastSeen.After(old))
	assert.True(t, stored.FindPlayer("u2").LastSeen.Equal(old))
}

func TestEvictStale_ActingHostRemovesSilentPlayers(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	st := store.NewMemoryStore()
	s1 := newTestSession(t, cfg, st, "u1", "Alice")

	room, err := s1.CreateRoom(ctx, "", "en", 0)
	require.NoError(t, err)

	now := time.Now().UTC()
	addPlayerSeen(t, st, room.ID, "u2", now.Add(-cfg.Peer.InactivityThreshold-time.Minute))
	addPlayerSeen(t, st, room.ID, "u3", now)

	s1.evictStale(ctx, room.ID)

	stored, err := st.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.FindPlayer("u2"))
	assert.NotNil(t, stored.FindPlayer("u3"))
	assert.Equal(t, "u1", stored.HostUID())
}

func TestEvictStale_DeadHostIsEvictedBySuccessor(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	st := store.NewMemoryStore()
	s2 := newTestSession(t, cfg, st, "u2", "Bob")

	now := time.Now().UTC()
	room := &game.Room{
		ID:         "AB12",
		Status:     game.StatusLobby,
		CreatorUID: "u1",
		Players: []*game.Player{
			game.NewPlayer("u1", "Alice", now.Add(-cfg.Peer.InactivityThreshold-time.Minute)),
			game.NewPlayer("u2", "Bob", now),
		},
		LastProcessedCategoryIndex: -1,
		CreatedAt:                  now,
	}
	require.NoError(t, st.CreateRoom(ctx, room))

	// Bob is the first live player, so the eviction falls to him even though
	// the stored order still names Alice first.
	s2.evictStale(ctx, room.ID)

	stored, err := st.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.FindPlayer("u1"))
	assert.Equal(t, "u2", stored.HostUID())
}

func TestEvictStale_NonActingPeerDoesNothing(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	st := store.NewMemoryStore()
	s2 := newTestSession(t, cfg, st, "u2", "Bob")

	now := time.Now().UTC()
	room := &game.Room{
		ID:     "AB12",
		Status: game.StatusLobby,
		Players: []*game.Player{
			game.NewPlayer("u1", "Alice", now),
			game.NewPlayer("u2", "Bob", now),
			game.NewPlayer("u3", "Cleo", now.Add(-cfg.Peer.InactivityThreshold-time.Minute)),
		},
		LastProcessedCategoryIndex: -1,
		CreatedAt:                  now,
	}
	require.NoError(t, st.CreateRoom(ctx, room))

	// Alice is live and first; only her client may evict.
	s2.evictStale(ctx, room.ID)

	stored, err := st.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.FindPlayer("u3"))
}

func TestEvictStale_VotingGetsLongerGrace(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	st := store.NewMemoryStore()
	s1 := newTestSession(t, cfg, st, "u1", "Alice")

	room, err := s1.CreateRoom(ctx, "", "en", 0)
	require.NoError(t, err)

	// Silent longer than the play threshold but within the voting one.
	seen := time.Now().UTC().Add(-cfg.Peer.InactivityThreshold - time.Second)
	addPlayerSeen(t, st, room.ID, "u2", seen)
	require.NoError(t, st.UpdateRoom(ctx, room.ID, func(r *game.Room) (bool, error) {
		r.Status = game.StatusVoting
		return true, nil
	}))

	s1.evictStale(ctx, room.ID)
	stored, err := st.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.FindPlayer("u2"), "voting grace period must apply")

	// Back in the lobby the shorter threshold applies.
	require.NoError(t, st.UpdateRoom(ctx, room.ID, func(r *game.Room) (bool, error) {
		r.Status = game.StatusLobby
		return true, nil
	}))
	s1.evictStale(ctx, room.ID)
	stored, err = st.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.FindPlayer("u2"))
}

func TestEvictStale_EmptiedRoomGoesDormant(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	st := store.NewMemoryStore()
	s1 := newTestSession(t, cfg, st, "u1", "Alice")

	now := time.Now().UTC()
	room := &game.Room{
		ID:     "AB12",
		Status: game.StatusVoting,
		Players: []*game.Player{
			game.NewPlayer("u2", "Bob", now.Add(-cfg.Peer.VotingInactivityThreshold-time.Minute)),
		},
		VotingState:                &game.VotingState{Category: "City"},
		LastProcessedCategoryIndex: -1,
		CreatedAt:                  now,
	}
	require.NoError(t, st.CreateRoom(ctx, room))

	s1.evictStale(ctx, room.ID)

	stored, err := st.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Players)
	assert.Equal(t, game.StatusDormant, stored.Status)
	assert.Nil(t, stored.VotingState)
}
