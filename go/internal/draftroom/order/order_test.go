package order

import "testing"

func TestResolveTwelveTeams(t *testing.T) {
	tests := []struct {
		name            string
		pickNumber      int
		wantRound       int
		wantPickInRound int
		wantSeat        int
	}{
		{name: "first overall", pickNumber: 1, wantRound: 1, wantPickInRound: 1, wantSeat: 0},
		{name: "end of round one", pickNumber: 12, wantRound: 1, wantPickInRound: 12, wantSeat: 11},
		{name: "turn repeats across round boundary", pickNumber: 13, wantRound: 2, wantPickInRound: 1, wantSeat: 11},
		{name: "end of round two snakes back", pickNumber: 24, wantRound: 2, wantPickInRound: 12, wantSeat: 0},
		{name: "round three resumes forward", pickNumber: 25, wantRound: 3, wantPickInRound: 1, wantSeat: 0},
		{name: "middle of round three", pickNumber: 30, wantRound: 3, wantPickInRound: 6, wantSeat: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot, err := Resolve(tt.pickNumber, 12)
			if err != nil {
				t.Fatalf("Resolve(%d, 12) returned error: %v", tt.pickNumber, err)
			}
			if slot.Round != tt.wantRound {
				t.Errorf("round = %d, want %d", slot.Round, tt.wantRound)
			}
			if slot.PickInRound != tt.wantPickInRound {
				t.Errorf("pickInRound = %d, want %d", slot.PickInRound, tt.wantPickInRound)
			}
			if slot.SeatIndex != tt.wantSeat {
				t.Errorf("seat = %d, want %d", slot.SeatIndex, tt.wantSeat)
			}
		})
	}
}

func TestResolveRejectsBadInput(t *testing.T) {
	if _, err := Resolve(0, 12); err == nil {
		t.Error("Resolve(0, 12) should reject pick number below 1")
	}
	if _, err := Resolve(-3, 12); err == nil {
		t.Error("Resolve(-3, 12) should reject negative pick number")
	}
	if _, err := Resolve(1, 1); err == nil {
		t.Error("Resolve(1, 1) should reject team count below 2")
	}
}

// Adjacent rounds must mirror each other exactly: round r's seat order
// reversed equals round r+1's.
func TestAdjacentRoundsMirror(t *testing.T) {
	for teamCount := 2; teamCount <= 14; teamCount++ {
		for round := 1; round <= 5; round++ {
			var current, next []int
			for slot := 1; slot <= teamCount; slot++ {
				cur, err := Resolve((round-1)*teamCount+slot, teamCount)
				if err != nil {
					t.Fatalf("Resolve: %v", err)
				}
				nxt, err := Resolve(round*teamCount+slot, teamCount)
				if err != nil {
					t.Fatalf("Resolve: %v", err)
				}
				current = append(current, cur.SeatIndex)
				next = append(next, nxt.SeatIndex)
			}
			for i := range current {
				if current[i] != next[teamCount-1-i] {
					t.Fatalf("teamCount=%d round=%d: seat order %v does not mirror %v",
						teamCount, round, current, next)
				}
			}
		}
	}
}

func TestPickNumbersForSeat(t *testing.T) {
	// Seat 2 in a 4-team, 3-round draft: picks 3, 6 (reversed round), 11.
	got := PickNumbersForSeat(2, 4, 3)
	want := []int{3, 6, 11}
	if len(got) != len(want) {
		t.Fatalf("PickNumbersForSeat = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("PickNumbersForSeat = %v, want %v", got, want)
		}
	}

	// Every seat's pick list must agree with Resolve.
	for seat := 0; seat < 4; seat++ {
		for _, p := range PickNumbersForSeat(seat, 4, 3) {
			slot, err := Resolve(p, 4)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if slot.SeatIndex != seat {
				t.Errorf("pick %d resolved to seat %d, want %d", p, slot.SeatIndex, seat)
			}
		}
	}
}
