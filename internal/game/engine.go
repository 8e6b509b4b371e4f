// Package game contains the session orchestration core: a single-goroutine
// state machine that drives a trivia session over a best-effort transport.
package game

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"udp-trivia-service/internal/domain"
	"udp-trivia-service/internal/protocol"
)

// Sender delivers a framed datagram to a remote address. Delivery is
// best-effort; the transport logs failures and never surfaces them here.
type Sender interface {
	Send(addr string, payload []byte)
}

// QuestionSource loads quiz content for a session. Implementations cache.
type QuestionSource interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// Publisher receives a read-only session snapshot after every mutation.
type Publisher interface {
	Publish(domain.Snapshot)
}

// Settings configure one engine instance.
type Settings struct {
	QuizID           string
	AnswerWindow     time.Duration
	QuestionGap      time.Duration
	PointsPerCorrect int
}

func (s Settings) withDefaults() Settings {
	if s.QuizID == "" {
		s.QuizID = "general"
	}
	if s.AnswerWindow <= 0 {
		s.AnswerWindow = 30 * time.Second
	}
	if s.QuestionGap <= 0 {
		s.QuestionGap = 3 * time.Second
	}
	if s.PointsPerCorrect <= 0 {
		s.PointsPerCorrect = 10
	}
	return s
}

// Engine owns all session-mutating state: the player registry, the phase,
// the answer collector, and the scores. Run drains an ordered event queue
// fed by the transport, the admin console, and timers; nothing else may
// touch the state, which is why none of it is locked.
type Engine struct {
	settings Settings
	source   QuestionSource
	sender   Sender
	pub      Publisher

	registry  *Registry
	collector *Collector
	quiz      domain.Quiz
	phase     domain.Phase
	current   int
	timerGen  uint64
	closing   bool

	events chan event
	done   chan struct{}
}

func New(settings Settings, source QuestionSource, sender Sender, pub Publisher) *Engine {
	return &Engine{
		settings: settings.withDefaults(),
		source:   source,
		sender:   sender,
		pub:      pub,
		registry: NewRegistry(),
		phase:    domain.PhaseLobby,
		events:   make(chan event, 256),
		done:     make(chan struct{}),
	}
}

// Run processes events in strict arrival order until an exit command or
// context cancellation. Call it exactly once.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-e.events:
			e.dispatch(ctx, ev)
			if e.closing {
				return nil
			}
		}
	}
}

// Done is closed once the engine has stopped processing events.
func (e *Engine) Done() <-chan struct{} { return e.done }

// HandleDatagram enqueues an inbound datagram from the transport.
func (e *Engine) HandleDatagram(addr string, data []byte) {
	select {
	case e.events <- datagramEvent{addr: addr, data: data}:
	case <-e.done:
	}
}

// Command enqueues an admin command and waits for the engine's response
// lines. Responses are produced on the engine goroutine, so a status read
// observes a consistent snapshot without any locking.
func (e *Engine) Command(ctx context.Context, cmd Command) ([]string, error) {
	reply := make(chan commandReply, 1)
	select {
	case e.events <- commandEvent{cmd: cmd, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.done:
		return nil, ErrStopped
	}
	select {
	case r := <-reply:
		return r.lines, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.done:
		// The reply may have been written just before shutdown.
		select {
		case r := <-reply:
			return r.lines, nil
		default:
			return nil, ErrStopped
		}
	}
}

func (e *Engine) dispatch(ctx context.Context, ev event) {
	switch ev := ev.(type) {
	case datagramEvent:
		e.handleDatagram(ev.addr, ev.data)
	case commandEvent:
		ev.reply <- commandReply{lines: e.handleCommand(ctx, ev.cmd)}
	case timerEvent:
		e.handleTimer(ev.gen)
	}
}

func (e *Engine) handleDatagram(addr string, data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		log.Printf("dropping malformed datagram from %s: %v", addr, err)
		return
	}
	switch env.Type {
	case protocol.TypeJoin:
		var p protocol.JoinPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			log.Printf("dropping bad join payload from %s: %v", addr, err)
			return
		}
		e.handleJoin(addr, strings.TrimSpace(p.Name))
	case protocol.TypeAnswer:
		var p protocol.AnswerPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			log.Printf("dropping bad answer payload from %s: %v", addr, err)
			return
		}
		e.handleAnswer(addr, p)
	case protocol.TypeLeave:
		e.handleLeave(addr)
	default:
		log.Printf("dropping unknown message type %q from %s", env.Type, addr)
	}
}

func (e *Engine) handleJoin(addr, name string) {
	if name == "" {
		log.Printf("dropping join with empty name from %s", addr)
		return
	}
	if p, ok := e.registry.Lookup(addr); ok {
		// Re-sending join is how a client recovers a lost welcome.
		e.send(addr, protocol.TypeWelcome, protocol.WelcomePayload{
			Message: fmt.Sprintf("Welcome back %s! Waiting for the quiz to start.", p.Name),
		})
		return
	}
	if e.phase != domain.PhaseLobby {
		e.send(addr, protocol.TypeRejected, protocol.RejectedPayload{Reason: protocol.ReasonGameInProgress})
		return
	}
	player, err := e.registry.Register(addr, name)
	if err != nil {
		e.send(addr, protocol.TypeRejected, protocol.RejectedPayload{Reason: protocol.ReasonDuplicateName})
		return
	}
	log.Printf("player joined: %s (%s)", player.Name, addr)
	e.send(addr, protocol.TypeWelcome, protocol.WelcomePayload{
		Message: fmt.Sprintf("Welcome %s! Waiting for the quiz to start.", player.Name),
	})
	e.publish()
}

func (e *Engine) handleAnswer(addr string, p protocol.AnswerPayload) {
	if _, ok := e.registry.Lookup(addr); !ok {
		log.Printf("dropping answer from unregistered address %s", addr)
		return
	}
	if e.phase != domain.PhaseAsking || e.collector == nil || p.Question != e.current {
		log.Printf("dropping answer for non-live question %d from %s", p.Question, addr)
		return
	}
	accepted, known := e.collector.Submit(addr, p.Answer)
	if !known {
		// Registered after the window opened; excluded from this question.
		log.Printf("dropping answer from %s: no slot for question %d", addr, e.current)
		return
	}
	e.send(addr, protocol.TypeAnswerAck, protocol.AnswerAckPayload{Question: e.current, Duplicate: !accepted})
	if accepted && e.collector.AllAnswered() {
		e.grade()
	}
}

func (e *Engine) handleLeave(addr string) {
	player, ok := e.registry.Remove(addr)
	if !ok {
		return
	}
	log.Printf("player left: %s (%s)", player.Name, addr)
	if e.collector != nil {
		e.collector.Drop(addr)
	}
	e.publish()
	if e.phase == domain.PhaseAsking && e.collector != nil && e.collector.AllAnswered() {
		e.grade()
	}
}

func (e *Engine) handleCommand(ctx context.Context, cmd Command) []string {
	switch cmd.Name {
	case "start":
		return e.cmdStart(ctx)
	case "status":
		return e.cmdStatus()
	case "reset":
		return e.cmdReset(len(cmd.Args) > 0 && cmd.Args[0] == "clear")
	case "exit":
		return e.cmdExit()
	case "help", "?":
		return usageLines()
	default:
		return append([]string{fmt.Sprintf("unknown command %q", cmd.Name)}, usageLines()...)
	}
}

func usageLines() []string {
	return []string{
		"commands:",
		"  start         begin the quiz with the players in the lobby",
		"  status        show phase, players and scores",
		"  reset [clear] return to lobby; clear also drops players",
		"  exit          broadcast shutdown and stop the server",
	}
}

func (e *Engine) cmdStart(ctx context.Context) []string {
	if e.phase != domain.PhaseLobby {
		return []string{fmt.Sprintf("cannot start: session is %s (reset first)", e.phase)}
	}
	if e.registry.Len() == 0 {
		return []string{"cannot start: " + domain.ErrNoPlayers.Error()}
	}
	quiz, err := e.source.GetQuiz(ctx, e.settings.QuizID)
	if err != nil {
		return []string{fmt.Sprintf("cannot start: load quiz %q: %v", e.settings.QuizID, err)}
	}
	if len(quiz.Questions) == 0 {
		return []string{fmt.Sprintf("cannot start: quiz %q has no questions", e.settings.QuizID)}
	}
	e.quiz = quiz
	e.current = 0
	log.Printf("starting quiz %q: %d questions, %d players", quiz.ID, len(quiz.Questions), e.registry.Len())
	e.ask()
	return []string{fmt.Sprintf("quiz started: %d questions, %d players", len(quiz.Questions), e.registry.Len())}
}

// cmdStatus is strictly read-only.
func (e *Engine) cmdStatus() []string {
	lines := []string{fmt.Sprintf("phase: %s", e.phase)}
	if e.phase == domain.PhaseAsking || e.phase == domain.PhaseGrading {
		lines = append(lines, fmt.Sprintf("question: %d/%d", e.current+1, len(e.quiz.Questions)))
	}
	lines = append(lines, fmt.Sprintf("players: %d", e.registry.Len()))
	for _, p := range e.registry.List() {
		lines = append(lines, fmt.Sprintf("  - %s (score: %d)", p.Name, p.Score))
	}
	return lines
}

func (e *Engine) cmdReset(clearPlayers bool) []string {
	e.timerGen++
	e.collector = nil
	e.quiz = domain.Quiz{}
	e.current = 0
	e.phase = domain.PhaseLobby
	e.registry.Reset(clearPlayers)
	e.publish()
	if clearPlayers {
		return []string{"session reset; players cleared"}
	}
	return []string{fmt.Sprintf("session reset; %d players kept with zeroed scores", e.registry.Len())}
}

func (e *Engine) cmdExit() []string {
	e.timerGen++
	e.broadcast(protocol.TypeTerminated, protocol.TerminatedPayload{Reason: "server shutting down"})
	e.closing = true
	log.Printf("shutdown requested; notified %d players", e.registry.Len())
	return []string{"shutting down"}
}

// ask enters the Asking phase for e.current: broadcast the question with
// the correct answer withheld, snapshot the registry into answer slots,
// and schedule the window deadline.
func (e *Engine) ask() {
	e.phase = domain.PhaseAsking
	q := e.quiz.Questions[e.current]
	e.broadcast(protocol.TypeQuestion, protocol.QuestionPayload{
		Question: e.current,
		Total:    len(e.quiz.Questions),
		Prompt:   q.Prompt,
		Options:  q.Options,
	})
	e.collector = OpenWindow(e.current, e.registry.List())
	e.scheduleTimer(e.settings.AnswerWindow)
	e.publish()
}

// grade closes the answer window, applies score deltas, and broadcasts the
// per-question result followed by the recomputed leaderboard.
func (e *Engine) grade() {
	e.phase = domain.PhaseGrading
	e.timerGen++ // orphan the window timer when closing early

	q := e.quiz.Questions[e.current]
	subs := e.collector.Submissions()
	e.collector = nil
	outcomes := GradeQuestion(q, subs, e.settings.PointsPerCorrect)
	for i, out := range outcomes {
		subs[i].Player.Score += out.Awarded
	}

	e.broadcast(protocol.TypeResult, protocol.ResultPayload{
		Question: e.current,
		Correct:  q.Options[q.Correct],
		Outcomes: outcomes,
	})
	e.broadcast(protocol.TypeLeaderboard, protocol.LeaderboardPayload{
		Entries: BuildLeaderboard(e.registry.List()).Entries,
	})
	e.publish()

	if e.current+1 < len(e.quiz.Questions) {
		e.scheduleTimer(e.settings.QuestionGap)
		return
	}
	e.finish()
}

func (e *Engine) finish() {
	e.phase = domain.PhaseFinished
	e.broadcast(protocol.TypeLeaderboard, protocol.LeaderboardPayload{
		Final:   true,
		Entries: BuildLeaderboard(e.registry.List()).Entries,
	})
	e.publish()
	log.Printf("quiz finished after %d questions", len(e.quiz.Questions))
}

func (e *Engine) handleTimer(gen uint64) {
	if gen != e.timerGen {
		return
	}
	switch e.phase {
	case domain.PhaseAsking:
		e.grade()
	case domain.PhaseGrading:
		e.current++
		e.ask()
	}
}

// scheduleTimer injects a deadline into the event queue instead of
// sleeping, so admin commands stay responsive while a question is live.
func (e *Engine) scheduleTimer(d time.Duration) {
	e.timerGen++
	gen := e.timerGen
	time.AfterFunc(d, func() {
		select {
		case e.events <- timerEvent{gen: gen}:
		case <-e.done:
		}
	})
}

func (e *Engine) send(addr, msgType string, payload any) {
	data, err := protocol.Encode(msgType, payload)
	if err != nil {
		log.Printf("encode %s: %v", msgType, err)
		return
	}
	e.sender.Send(addr, data)
}

func (e *Engine) broadcast(msgType string, payload any) {
	data, err := protocol.Encode(msgType, payload)
	if err != nil {
		log.Printf("encode %s: %v", msgType, err)
		return
	}
	for _, p := range e.registry.List() {
		e.sender.Send(p.Addr, data)
	}
}

func (e *Engine) publish() {
	if e.pub == nil {
		return
	}
	e.pub.Publish(e.snapshot())
}

func (e *Engine) snapshot() domain.Snapshot {
	s := domain.Snapshot{
		Phase:       e.phase,
		Total:       len(e.quiz.Questions),
		Leaderboard: BuildLeaderboard(e.registry.List()),
	}
	if e.phase == domain.PhaseAsking || e.phase == domain.PhaseGrading {
		s.Question = e.current + 1
	}
	return s
}
