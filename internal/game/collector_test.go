package game

import (
	"testing"

	"udp-trivia-service/internal/domain"
)

func testPlayers(names ...string) []*domain.Player {
	players := make([]*domain.Player, len(names))
	for i, name := range names {
		players[i] = &domain.Player{Addr: "10.0.0.1:" + name, Name: name, Seq: i}
	}
	return players
}

func TestCollectorFirstSubmissionWins(t *testing.T) {
	c := OpenWindow(0, testPlayers("Alice", "Bob"))

	accepted, known := c.Submit("10.0.0.1:Alice", "2")
	if !accepted || !known {
		t.Fatalf("expected first submission accepted, got accepted=%v known=%v", accepted, known)
	}
	accepted, known = c.Submit("10.0.0.1:Alice", "3")
	if accepted || !known {
		t.Fatalf("expected duplicate acknowledged but not accepted, got accepted=%v known=%v", accepted, known)
	}

	subs := c.Submissions()
	if subs[0].Raw != "2" {
		t.Fatalf("expected first answer to stand, got %q", subs[0].Raw)
	}
}

func TestCollectorUnknownAddress(t *testing.T) {
	c := OpenWindow(0, testPlayers("Alice"))
	if _, known := c.Submit("10.9.9.9:late", "1"); known {
		t.Fatalf("expected address without a slot to be unknown")
	}
}

func TestCollectorAllAnswered(t *testing.T) {
	c := OpenWindow(0, testPlayers("Alice", "Bob"))
	if c.AllAnswered() {
		t.Fatalf("expected pending slots at open")
	}
	c.Submit("10.0.0.1:Alice", "1")
	if c.AllAnswered() {
		t.Fatalf("expected Bob still pending")
	}
	c.Submit("10.0.0.1:Bob", "1")
	if !c.AllAnswered() {
		t.Fatalf("expected window closable once everyone answered")
	}
}

func TestCollectorDrop(t *testing.T) {
	c := OpenWindow(0, testPlayers("Alice", "Bob"))
	c.Submit("10.0.0.1:Alice", "1")
	c.Drop("10.0.0.1:Bob")
	if !c.AllAnswered() {
		t.Fatalf("expected dropping the only pending slot to close the window")
	}
	subs := c.Submissions()
	if len(subs) != 1 || subs[0].Player.Name != "Alice" {
		t.Fatalf("expected only Alice's slot to remain, got %d slots", len(subs))
	}
}

func TestCollectorSubmissionsKeepRegistrationOrder(t *testing.T) {
	c := OpenWindow(0, testPlayers("Alice", "Bob", "Carol"))
	c.Submit("10.0.0.1:Carol", "1")
	c.Submit("10.0.0.1:Alice", "1")

	subs := c.Submissions()
	for i, want := range []string{"Alice", "Bob", "Carol"} {
		if subs[i].Player.Name != want {
			t.Fatalf("expected %s at position %d, got %s", want, i, subs[i].Player.Name)
		}
	}
}
