package game

import "errors"

// ErrStopped is returned by Command when the engine has shut down.
var ErrStopped = errors.New("engine stopped")

// Command is a parsed admin console command.
type Command struct {
	Name string
	Args []string
}

// Events are processed strictly in arrival order by the engine goroutine.
// Producers (transport receive loop, admin console, timers) only enqueue.
type event interface {
	isEvent()
}

type datagramEvent struct {
	addr string
	data []byte
}

type commandEvent struct {
	cmd   Command
	reply chan commandReply
}

// timerEvent carries a generation counter so timers orphaned by an early
// window close, a reset, or shutdown are ignored on arrival.
type timerEvent struct {
	gen uint64
}

type commandReply struct {
	lines []string
}

func (datagramEvent) isEvent() {}
func (commandEvent) isEvent()  {}
func (timerEvent) isEvent()    {}
