package matchmaking

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Dosada05/matchmaking-system/models"
)

// ErrInsufficientCandidates means the pool handed to Partition does not
// divide evenly into the configured team shape. The engine must never let
// this happen; it is a caller bug, not a retryable condition.
var ErrInsufficientCandidates = errors.New("candidate pool does not fit the team shape")

// Candidate pairs a waiting ticket with the player's current rating for
// the duration of one partitioning run. Candidates are never persisted.
type Candidate struct {
	Ticket models.Ticket
	MMR    int
}

// Partition splits candidates into teamsPerMatch teams of exactly
// playersPerTeam each, greedily balancing the per-team MMR sums.
//
// Candidates are walked from strongest to weakest; each one goes to the
// open team with the lowest running sum (lowest team index on ties). Teams
// that are already full stop receiving candidates. The sort is stable, so
// players with equal MMR keep their queue order and the result is
// deterministic for identical input.
//
// The greedy walk is O(n log n) and does not guarantee a globally optimal
// split.
func Partition(candidates []Candidate, teamsPerMatch, playersPerTeam int) ([][]Candidate, error) {
	required := teamsPerMatch * playersPerTeam
	if len(candidates) != required {
		return nil, fmt.Errorf("%w: got %d candidates, need %d (%d teams of %d)",
			ErrInsufficientCandidates, len(candidates), required, teamsPerMatch, playersPerTeam)
	}

	pool := make([]Candidate, len(candidates))
	copy(pool, candidates)
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].MMR > pool[j].MMR
	})

	teams := make([][]Candidate, teamsPerMatch)
	for i := range teams {
		teams[i] = make([]Candidate, 0, playersPerTeam)
	}
	sums := make([]int, teamsPerMatch)

	for _, c := range pool {
		target := -1
		for i := range teams {
			if len(teams[i]) >= playersPerTeam {
				continue
			}
			if target == -1 || sums[i] < sums[target] {
				target = i
			}
		}
		teams[target] = append(teams[target], c)
		sums[target] += c.MMR
	}

	return teams, nil
}

// TeamName returns the display name for a zero-based team index:
// "Team A" .. "Team Z", then "Team AA", "Team AB", ...
func TeamName(index int) string {
	letters := ""
	for index >= 0 {
		letters = string(rune('A'+index%26)) + letters
		index = index/26 - 1
	}
	return "Team " + letters
}
