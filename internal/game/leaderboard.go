package game

import (
	"sort"
	"strconv"
	"strings"

	"udp-trivia-service/internal/domain"
)

// GradeQuestion evaluates every slot for the question: one outcome per
// player, in slot order. A correct answer earns the question's own points
// when set, otherwise the configured delta. Every other outcome earns
// nothing, so scores never decrease.
func GradeQuestion(q domain.Question, subs []*Submission, points int) []domain.PlayerOutcome {
	if q.Points > 0 {
		points = q.Points
	}
	outcomes := make([]domain.PlayerOutcome, len(subs))
	for i, sub := range subs {
		out := domain.PlayerOutcome{Name: sub.Player.Name}
		if !sub.Answered {
			out.Outcome = domain.OutcomeTimedOut
		} else if idx, ok := parseAnswer(sub.Raw, q.Options); !ok {
			out.Outcome = domain.OutcomeInvalid
		} else if idx == q.Correct {
			out.Outcome = domain.OutcomeCorrect
			out.Awarded = points
		} else {
			out.Outcome = domain.OutcomeIncorrect
		}
		outcomes[i] = out
	}
	return outcomes
}

// parseAnswer resolves a raw answer to an option index: either a 1-based
// option number or the option text, case-insensitive and trimmed.
func parseAnswer(raw string, options []string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		if n >= 1 && n <= len(options) {
			return n - 1, true
		}
		return 0, false
	}
	for i, opt := range options {
		if strings.EqualFold(raw, strings.TrimSpace(opt)) {
			return i, true
		}
	}
	return 0, false
}

// BuildLeaderboard recomputes the ranking from scratch: score descending,
// ties broken by registration order so the output is reproducible.
func BuildLeaderboard(players []*domain.Player) domain.Leaderboard {
	ranked := make([]*domain.Player, len(players))
	copy(ranked, players)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Seq < ranked[j].Seq
	})
	entries := make([]domain.LeaderboardEntry, len(ranked))
	for i, p := range ranked {
		entries[i] = domain.LeaderboardEntry{Name: p.Name, Score: p.Score}
	}
	return domain.Leaderboard{Entries: entries}
}
