/*
contracts.go - Effective-dated supply contract resolution

PURPOSE:
  A tank's supply history is a list of contracts, each effective from its
  start day until superseded by the next one. Resolution answers "which
  contract governed day X" and "which contracts touched month M", the two
  questions pricing and theoretical dosage depend on.

RESOLUTION RULE:
  Among contracts with EffectiveFrom <= day, the greatest EffectiveFrom
  wins. Before the first contract there is no supply; downstream code
  treats "no contract" and "contract with zero target ppm" as the same
  no-usage signal.

SEE ALSO:
  - aggregate.go: Uses the month timeline for display price and
    mid-month-change flags
  - theoretical.go: Uses the per-day resolution for the ppm target
*/
package dosing

import "sort"

// =============================================================================
// PER-DAY RESOLUTION
// =============================================================================

// ActiveSupply returns the contract in force on the given day, or false when
// no contract has started yet. History may be unsorted; start days are
// unique per tank so ties cannot occur in well-formed data.
func ActiveSupply(day Day, history []ChemicalSupply) (ChemicalSupply, bool) {
	var best ChemicalSupply
	found := false
	for _, s := range history {
		if s.EffectiveFrom.After(day) {
			continue
		}
		if !found || s.EffectiveFrom.After(best.EffectiveFrom) {
			best = s
			found = true
		}
	}
	return best, found
}

// =============================================================================
// PER-MONTH TIMELINE
// =============================================================================

// SuppliesInMonth returns every contract effective at some point during the
// month, in chronological order: the contract carried in from before the
// month (if any) followed by contracts starting inside it. An empty result
// means the month predates the tank's first contract.
func SuppliesInMonth(month MonthKey, history []ChemicalSupply) []ChemicalSupply {
	sorted := sortedByEffective(history)

	var out []ChemicalSupply
	if carried, ok := ActiveSupply(month.Start(), sorted); ok {
		out = append(out, carried)
	}
	for _, s := range sorted {
		if s.EffectiveFrom.After(month.Start()) && s.EffectiveFrom.BeforeOrEqual(month.End()) {
			out = append(out, s)
		}
	}
	return out
}

// DisplaySupply returns the contract a monthly report row shows: the
// chronologically latest contract effective during the month.
func DisplaySupply(month MonthKey, history []ChemicalSupply) (ChemicalSupply, bool) {
	timeline := SuppliesInMonth(month, history)
	if len(timeline) == 0 {
		return ChemicalSupply{}, false
	}
	return timeline[len(timeline)-1], true
}

func sortedByEffective(history []ChemicalSupply) []ChemicalSupply {
	sorted := make([]ChemicalSupply, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EffectiveFrom.Before(sorted[j].EffectiveFrom)
	})
	return sorted
}
