package calculator

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// MemberBalance compares what one member did against an even split.
type MemberBalance struct {
	MemberID  uuid.UUID
	Actual    float64 // Weight the member was credited with
	FairShare float64 // Snapshot total weight divided by the number of members
	Net       float64 // Positive = did more than their share, Negative = behind
}

// Catchup says that From should take on Amount weight to even things out with To.
type Catchup struct {
	From   uuid.UUID // Member who is behind
	To     uuid.UUID // Member who is ahead
	Amount float64
}

// epsilon filters floating point noise out of nets and catch-ups.
const epsilon = 0.01

// CalculateBalances compares each member's contribution in a snapshot with an
// even split of the snapshot's total weight across members.
//
// Members with no logs are included with zero Actual. Contributors who are not
// in members (for example, removed members with old logs) still count towards
// the total but get no balance row.
//
// Algorithm:
// - fair share = snapshot total weight / len(members)
// - net = actual - fair share
// - catch-ups: greedy matching of the furthest-behind with the furthest-ahead
func CalculateBalances(snapshot WorkloadSnapshot, members []uuid.UUID) ([]MemberBalance, []Catchup, error) {
	if len(members) == 0 {
		return nil, nil, fmt.Errorf("must have at least one member")
	}

	actual := make(map[uuid.UUID]float64, len(snapshot.Contributions))
	for _, c := range snapshot.Contributions {
		actual[c.MemberID] = c.TotalWeight
	}

	fair := snapshot.TotalWeight / float64(len(members))

	balances := make([]MemberBalance, 0, len(members))
	seen := make(map[uuid.UUID]bool, len(members))
	for _, id := range members {
		if seen[id] {
			continue
		}
		seen[id] = true
		balances = append(balances, MemberBalance{
			MemberID:  id,
			Actual:    actual[id],
			FairShare: fair,
			Net:       actual[id] - fair,
		})
	}

	// Split into members ahead and members behind, largest first
	var ahead, behind []MemberBalance
	for _, b := range balances {
		if b.Net > epsilon {
			ahead = append(ahead, b)
		} else if b.Net < -epsilon {
			behind = append(behind, b)
		}
	}
	sort.SliceStable(ahead, func(i, j int) bool { return ahead[i].Net > ahead[j].Net })
	sort.SliceStable(behind, func(i, j int) bool { return behind[i].Net < behind[j].Net })

	remainingBehind := make(map[uuid.UUID]float64, len(behind))
	for _, b := range behind {
		remainingBehind[b.MemberID] = -b.Net
	}
	remainingAhead := make(map[uuid.UUID]float64, len(ahead))
	for _, a := range ahead {
		remainingAhead[a.MemberID] = a.Net
	}

	// Greedy algorithm: match the largest gaps first
	var catchups []Catchup
	i, j := 0, 0
	for i < len(behind) && j < len(ahead) {
		from := behind[i].MemberID
		to := ahead[j].MemberID

		amount := remainingBehind[from]
		if remainingAhead[to] < amount {
			amount = remainingAhead[to]
		}

		if amount > epsilon {
			catchups = append(catchups, Catchup{From: from, To: to, Amount: amount})
		}

		remainingBehind[from] -= amount
		remainingAhead[to] -= amount

		if remainingBehind[from] < epsilon {
			i++
		}
		if remainingAhead[to] < epsilon {
			j++
		}
	}

	return balances, catchups, nil
}
