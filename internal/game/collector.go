package game

import "udp-trivia-service/internal/domain"

// Submission is one player's slot for the live question.
type Submission struct {
	Player   *domain.Player
	Answered bool
	Raw      string
}

// Collector gathers at most one answer per player for the live question.
// Slots are fixed when the window opens; players who register afterwards
// get no slot and are excluded from this question's grading.
type Collector struct {
	question int
	order    []string
	slots    map[string]*Submission
	pending  int
}

// OpenWindow snapshots the registry into one pending slot per player.
func OpenWindow(question int, players []*domain.Player) *Collector {
	c := &Collector{
		question: question,
		slots:    make(map[string]*Submission, len(players)),
	}
	for _, p := range players {
		c.order = append(c.order, p.Addr)
		c.slots[p.Addr] = &Submission{Player: p}
		c.pending++
	}
	return c
}

func (c *Collector) Question() int { return c.question }

// Submit records the first answer from addr. Later submissions from the
// same address are reported as not accepted but still known, so they can
// be acknowledged without altering the recorded answer. Addresses without
// a slot are unknown.
func (c *Collector) Submit(addr, raw string) (accepted, known bool) {
	slot, ok := c.slots[addr]
	if !ok {
		return false, false
	}
	if slot.Answered {
		return false, true
	}
	slot.Answered = true
	slot.Raw = raw
	c.pending--
	return true, true
}

// Drop removes a slot when its player leaves mid-question.
func (c *Collector) Drop(addr string) {
	slot, ok := c.slots[addr]
	if !ok {
		return
	}
	if !slot.Answered {
		c.pending--
	}
	delete(c.slots, addr)
}

// AllAnswered reports whether no pending slots remain, which lets the
// engine close the answer window early.
func (c *Collector) AllAnswered() bool { return c.pending == 0 }

// Submissions returns the surviving slots in registration order.
func (c *Collector) Submissions() []*Submission {
	subs := make([]*Submission, 0, len(c.slots))
	for _, addr := range c.order {
		if slot, ok := c.slots[addr]; ok {
			subs = append(subs, slot)
		}
	}
	return subs
}
