package workout

import (
	"fmt"
	"math"
)

// Action tells what the progression calculator decided.
type Action string

const (
	ActionStart          Action = "start"
	ActionIncreaseWeight Action = "increase_weight"
	ActionAddReps        Action = "add_reps"
	ActionRepeat         Action = "repeat"
	ActionDeload         Action = "deload"
)

// ProgressionPolicy parameterises double progression.
type ProgressionPolicy struct {
	WeightIncrement           float64
	DeloadFraction            float64
	DeloadAfterFailedSessions int
}

// Target is the suggestion for the next performance of a slot.
type Target struct {
	ExerciseID ExerciseID `json:"exerciseId"`
	// SuggestedWeight is nil when there is no history and the user picks the starting weight.
	SuggestedWeight *float64 `json:"suggestedWeight"`
	SuggestedReps   [2]int   `json:"suggestedReps"`
	Action          Action   `json:"action"`
	Rationale       string   `json:"rationale"`
}

// SuggestTarget applies double progression to the most recent performances of an exercise.
//
// The working weight is the heaviest set of a performance and the working sets are the sets done at that
// weight. Reps are added within [RepMin, RepMax] before the weight goes up. A failed working set
// (reps < RepMin) at the same weight in the last DeloadAfterFailedSessions performances triggers a deload.
func SuggestTarget(id ExerciseID, slot Slot, history History, policy ProgressionPolicy) Target {
	target := Target{
		ExerciseID:      id,
		SuggestedWeight: nil,
		SuggestedReps:   [2]int{slot.RepMin, slot.RepMax},
		Action:          ActionStart,
		Rationale:       "No previous performance. Pick a starting weight you can lift for the whole rep range.",
	}

	perfs := history.performances(id)
	if len(perfs) == 0 {
		return target
	}

	latest := perfs[0].SetsPerformed
	weight := heaviestWeight(latest)
	working := workingSets(latest)

	if failedSessionsInARow(perfs, weight, slot.RepMin) >= max(policy.DeloadAfterFailedSessions, 1) {
		deloaded := roundWeight(weight * (1 - policy.DeloadFraction))
		target.SuggestedWeight = &deloaded
		target.SuggestedReps = [2]int{slot.RepMin, slot.RepMin}
		target.Action = ActionDeload
		target.Rationale = fmt.Sprintf(
			"Fell short of %d reps at %s kg in %d sessions in a row. Deload to %s kg and rebuild from %d reps.",
			slot.RepMin, formatWeight(weight), max(policy.DeloadAfterFailedSessions, 1), formatWeight(deloaded), slot.RepMin)
		return target
	}

	switch {
	case allReached(working, slot.RepMax):
		increased := roundWeight(weight + policy.WeightIncrement)
		target.SuggestedWeight = &increased
		target.Action = ActionIncreaseWeight
		target.Rationale = fmt.Sprintf("All working sets at %s kg reached %d reps. Add %s kg.",
			formatWeight(weight), slot.RepMax, formatWeight(policy.WeightIncrement))
	case !anyFailed(working, slot.RepMin):
		same := roundWeight(weight)
		target.SuggestedWeight = &same
		target.Action = ActionAddReps
		target.Rationale = fmt.Sprintf("Stay at %s kg and add reps toward %d.", formatWeight(weight), slot.RepMax)
	default:
		same := roundWeight(weight)
		target.SuggestedWeight = &same
		target.Action = ActionRepeat
		target.Rationale = fmt.Sprintf("A working set at %s kg fell short of %d reps. Repeat the weight.",
			formatWeight(weight), slot.RepMin)
	}
	return target
}

// failedSessionsInARow counts the most recent performances at weight that had a failed working set.
func failedSessionsInARow(perfs []ExercisePerformance, weight float64, repMin int) int {
	count := 0
	for _, perf := range perfs {
		if heaviestWeight(perf.SetsPerformed) != weight || !anyFailed(workingSets(perf.SetsPerformed), repMin) {
			break
		}
		count++
	}
	return count
}

func allReached(sets []PerformedSet, reps int) bool {
	for _, s := range sets {
		if s.Reps < reps {
			return false
		}
	}
	return true
}

func anyFailed(sets []PerformedSet, repMin int) bool {
	for _, s := range sets {
		if s.Reps < repMin {
			return true
		}
	}
	return false
}

// roundWeight rounds to two decimals to hide float noise such as 40*0.9 = 36.00000000000001.
func roundWeight(w float64) float64 {
	return math.Round(w*100) / 100 //nolint:mnd // two decimals.
}

func formatWeight(w float64) string {
	return fmt.Sprintf("%g", roundWeight(w))
}
