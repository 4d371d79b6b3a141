package game

import (
	"testing"
	"time"
)

func TestRoom_AddPlayer(t *testing.T) {
	now := time.Now()
	room := &Room{ID: "AB12", Status: StatusLobby}

	if err := room.AddPlayer(NewPlayer("p1", "Alice", now)); err != nil {
		t.Errorf("Failed to add player: %v", err)
	}
	if len(room.Players) != 1 {
		t.Errorf("Expected 1 player, got %d", len(room.Players))
	}
	if room.FindPlayer("p1") == nil {
		t.Error("Player not found after adding")
	}
	if err := room.AddPlayer(NewPlayer("p1", "Alice again", now)); err != ErrAlreadyJoined {
		t.Errorf("Expected ErrAlreadyJoined, got %v", err)
	}
}

func TestRoom_HostSuccession(t *testing.T) {
	now := time.Now()
	room := &Room{ID: "AB12", Status: StatusLobby}
	room.AddPlayer(NewPlayer("p1", "Alice", now))
	room.AddPlayer(NewPlayer("p2", "Bob", now))
	room.AddPlayer(NewPlayer("p3", "Cleo", now))

	if room.HostUID() != "p1" {
		t.Errorf("Expected p1 as host, got %s", room.HostUID())
	}

	// Removing a middle player must not reorder the rest.
	room.RemovePlayer("p2")
	if room.HostUID() != "p1" {
		t.Errorf("Host changed after removing a non-host: %s", room.HostUID())
	}

	room.RemovePlayer("p1")
	if room.HostUID() != "p3" {
		t.Errorf("Expected p3 to inherit host, got %s", room.HostUID())
	}

	room.RemovePlayer("p3")
	if room.Host() != nil {
		t.Error("Empty room should have no host")
	}
}

func TestStatus_Discoverable(t *testing.T) {
	visible := []Status{StatusLobby, StatusPlaying, StatusVoting, StatusFinished}
	for _, s := range visible {
		if !s.Discoverable() {
			t.Errorf("%s should be discoverable", s)
		}
	}
	for _, s := range []Status{StatusDormant, StatusDeleted} {
		if s.Discoverable() {
			t.Errorf("%s should be hidden", s)
		}
	}
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]Status{
		{StatusLobby, StatusPlaying},
		{StatusPlaying, StatusVoting},
		{StatusVoting, StatusFinished},
		{StatusFinished, StatusLobby},
		{StatusFinished, StatusPlaying},
		{StatusDormant, StatusLobby},
		{StatusPlaying, StatusDormant},
		{StatusLobby, StatusDeleted},
	}
	for _, c := range allowed {
		if !CanTransition(c[0], c[1]) {
			t.Errorf("%s -> %s should be allowed", c[0], c[1])
		}
	}

	denied := [][2]Status{
		{StatusLobby, StatusVoting},
		{StatusVoting, StatusPlaying},
		{StatusDormant, StatusPlaying},
		{StatusDeleted, StatusLobby},
		{StatusDeleted, StatusDormant},
	}
	for _, c := range denied {
		if CanTransition(c[0], c[1]) {
			t.Errorf("%s -> %s should be denied", c[0], c[1])
		}
	}
}

func TestRoom_History(t *testing.T) {
	room := &Room{}
	room.GameHistory = append(room.GameHistory, HistoryEntry{
		PlayerUID: "p1",
		Category:  "City",
		Answer:    "São Paulo",
		IsValid:   true,
	})

	if !room.HistoryContains("p1", "City", "saopaulo") {
		t.Error("normalized lookup should find the accented entry")
	}
	if room.HistoryContains("p2", "City", "saopaulo") {
		t.Error("history entries are per player")
	}
	if room.HistoryContains("p1", "Country", "saopaulo") {
		t.Error("history entries are per category")
	}

	e := room.FindHistory("p1", "City", "saopaulo")
	if e == nil || !e.IsValid {
		t.Fatal("expected the valid entry back")
	}
}

func TestPlayer_ResetRound(t *testing.T) {
	p := NewPlayer("p1", "Alice", time.Now())
	p.Score = 35
	p.Answers["City"] = "Lima"
	p.VerifiedResults["City"] = VerifiedResult{IsValid: true, Answer: "Lima", Points: 10}

	p.ResetRound()

	if p.Score != 35 {
		t.Errorf("ResetRound must keep the score, got %d", p.Score)
	}
	if len(p.Answers) != 0 || len(p.VerifiedResults) != 0 {
		t.Error("ResetRound must clear answers and verdicts")
	}
}
