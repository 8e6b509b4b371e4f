package game

import (
	"udp-trivia-service/internal/domain"

	"github.com/google/uuid"
)

// Registry maps remote addresses to players and is the source of truth for
// who is in the game. It is owned by the engine goroutine, which is the
// sole mutator, so it carries no locking.
type Registry struct {
	players map[string]*domain.Player
	order   []string
	nextSeq int
}

func NewRegistry() *Registry {
	return &Registry{players: make(map[string]*domain.Player)}
}

// Register creates a player for addr. Registering an address twice returns
// the existing player unchanged. Names are checked case-sensitively against
// currently registered players only; a departed player's name is free again.
func (r *Registry) Register(addr, name string) (*domain.Player, error) {
	if existing, ok := r.players[addr]; ok {
		return existing, nil
	}
	for _, p := range r.players {
		if p.Name == name {
			return nil, domain.ErrDuplicateName
		}
	}
	p := &domain.Player{
		ID:   uuid.NewString(),
		Addr: addr,
		Name: name,
		Seq:  r.nextSeq,
	}
	r.nextSeq++
	r.players[addr] = p
	r.order = append(r.order, addr)
	return p, nil
}

func (r *Registry) Lookup(addr string) (*domain.Player, bool) {
	p, ok := r.players[addr]
	return p, ok
}

// Remove deletes the player at addr. Registration order of the remaining
// players is preserved.
func (r *Registry) Remove(addr string) (*domain.Player, bool) {
	p, ok := r.players[addr]
	if !ok {
		return nil, false
	}
	delete(r.players, addr)
	for i, a := range r.order {
		if a == addr {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return p, true
}

// List returns players in registration order.
func (r *Registry) List() []*domain.Player {
	out := make([]*domain.Player, 0, len(r.order))
	for _, addr := range r.order {
		out = append(out, r.players[addr])
	}
	return out
}

func (r *Registry) Len() int { return len(r.players) }

// Reset zeroes every score; with clearPlayers it also drops all identities.
func (r *Registry) Reset(clearPlayers bool) {
	if clearPlayers {
		r.players = make(map[string]*domain.Player)
		r.order = nil
		return
	}
	for _, p := range r.players {
		p.Score = 0
	}
}
