/*
parameters.go - Weekly process-parameter resolution

PURPOSE:
  Operating parameters (circulation rate, steam production, ...) are
  recorded once per week. Each record covers the half-open window
  [weekStart, weekStart+7d). Resolution finds the record covering a given
  day; days in weeks with no measurement get nothing, deliberately. The
  day-by-day theoretical model never invents data for unmeasured weeks.

OVERLAP RULE:
  Windows are non-overlapping by convention but not enforced. When two
  windows do cover the same day, the later week start wins, the same
  direction contract resolution takes.

SEE ALSO:
  - theoretical.go: Consumes the resolved records
*/
package dosing

// CoveringCWS returns the cooling-water parameter record whose week window
// contains the day, or false when no week covers it.
func CoveringCWS(day Day, history []CWSParameterRecord) (CWSParameterRecord, bool) {
	var best CWSParameterRecord
	found := false
	for _, rec := range history {
		if !(WeekWindow{Start: rec.WeekStart}).Contains(day) {
			continue
		}
		if !found || rec.WeekStart.After(best.WeekStart) {
			best = rec
			found = true
		}
	}
	return best, found
}

// CoveringBWS returns the boiler parameter record whose week window contains
// the day, or false when no week covers it.
func CoveringBWS(day Day, history []BWSParameterRecord) (BWSParameterRecord, bool) {
	var best BWSParameterRecord
	found := false
	for _, rec := range history {
		if !(WeekWindow{Start: rec.WeekStart}).Contains(day) {
			continue
		}
		if !found || rec.WeekStart.After(best.WeekStart) {
			best = rec
			found = true
		}
	}
	return best, found
}
