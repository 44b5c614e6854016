// Package order resolves snake-draft turn ownership. All functions are pure
// over (pickNumber, teamCount) and safe for concurrent use; they never
// consult room state.
package order

import "fmt"

// Slot locates a pick within the draft grid.
type Slot struct {
	Round       int // 1-based
	PickInRound int // 1-based position within the round
	SeatIndex   int // 0-based seat on the clock
}

// Resolve maps an overall pick number to its round, slot in round, and the
// on-the-clock seat. Odd rounds run seat 0 → teamCount-1, even rounds
// reverse.
func Resolve(pickNumber, teamCount int) (Slot, error) {
	if pickNumber < 1 {
		return Slot{}, fmt.Errorf("pick number must be >= 1, got %d", pickNumber)
	}
	if teamCount < 2 {
		return Slot{}, fmt.Errorf("team count must be >= 2, got %d", teamCount)
	}

	round := (pickNumber-1)/teamCount + 1
	pickInRound := (pickNumber-1)%teamCount + 1

	seat := pickInRound - 1
	if round%2 == 0 {
		seat = teamCount - pickInRound
	}

	return Slot{
		Round:       round,
		PickInRound: pickInRound,
		SeatIndex:   seat,
	}, nil
}

// TotalPicks returns the number of picks in a full draft.
func TotalPicks(teamCount, rounds int) int {
	return teamCount * rounds
}

// PickNumbersForSeat lists the overall pick numbers owned by a seat, in
// draft order. Useful for "N picks away" style lookups by observers.
func PickNumbersForSeat(seatIndex, teamCount, rounds int) []int {
	picks := make([]int, 0, rounds)
	for round := 1; round <= rounds; round++ {
		base := (round - 1) * teamCount
		if round%2 == 1 {
			picks = append(picks, base+seatIndex+1)
		} else {
			picks = append(picks, base+teamCount-seatIndex)
		}
	}
	return picks
}
