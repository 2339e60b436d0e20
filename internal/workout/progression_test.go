package workout_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/lifelog/internal/workout"
)

var (
	inclinePress = workout.Slot{
		ExerciseID:      "upper_a_incline_press",
		PatternID:       "incline_press",
		Sets:            3,
		RepMin:          6,
		RepMax:          10,
		Core:            true,
		WeightIncrement: nil,
	}
	defaultPolicy = workout.ProgressionPolicy{
		WeightIncrement:           2.5,
		DeloadFraction:            0.10,
		DeloadAfterFailedSessions: 2,
	}
)

func performed(date string, variant string, sets ...workout.PerformedSet) workout.SessionRecord {
	rec := session("s-"+date, date, "upper_a")
	rec.Exercises = []workout.ExercisePerformance{{
		ExerciseID:    inclinePress.ExerciseID,
		VariantName:   variant,
		SetsPerformed: sets,
		Skipped:       false,
	}}
	return rec
}

func set(weight float64, reps int) workout.PerformedSet {
	return workout.PerformedSet{Weight: weight, Reps: reps}
}

func Test_SuggestTarget(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		history    []workout.SessionRecord
		wantWeight *float64
		wantReps   [2]int
		wantAction workout.Action
	}{
		{
			name:       "no history",
			history:    nil,
			wantWeight: nil,
			wantReps:   [2]int{6, 10},
			wantAction: workout.ActionStart,
		},
		{
			name:       "top of range reached",
			history:    []workout.SessionRecord{performed("2025-01-01", "", set(40, 10))},
			wantWeight: new(42.5),
			wantReps:   [2]int{6, 10},
			wantAction: workout.ActionIncreaseWeight,
		},
		{
			name: "two failed sessions at the same weight deload",
			history: []workout.SessionRecord{
				performed("2025-01-01", "", set(40, 5), set(40, 4)),
				performed("2025-01-05", "", set(40, 5)),
			},
			wantWeight: new(36.0),
			wantReps:   [2]int{6, 6},
			wantAction: workout.ActionDeload,
		},
		{
			name:       "within range adds reps",
			history:    []workout.SessionRecord{performed("2025-01-01", "", set(40, 10), set(40, 8), set(40, 7))},
			wantWeight: new(40.0),
			wantReps:   [2]int{6, 10},
			wantAction: workout.ActionAddReps,
		},
		{
			name:       "single failed session repeats",
			history:    []workout.SessionRecord{performed("2025-01-01", "", set(40, 7), set(40, 5))},
			wantWeight: new(40.0),
			wantReps:   [2]int{6, 10},
			wantAction: workout.ActionRepeat,
		},
		{
			name: "failures at different weights do not deload",
			history: []workout.SessionRecord{
				performed("2025-01-01", "", set(37.5, 5)),
				performed("2025-01-05", "", set(40, 5)),
			},
			wantWeight: new(40.0),
			wantReps:   [2]int{6, 10},
			wantAction: workout.ActionRepeat,
		},
		{
			name: "success between failures does not deload",
			history: []workout.SessionRecord{
				performed("2025-01-01", "", set(40, 5)),
				performed("2025-01-03", "", set(40, 7)),
				performed("2025-01-05", "", set(40, 5)),
			},
			wantWeight: new(40.0),
			wantReps:   [2]int{6, 10},
			wantAction: workout.ActionRepeat,
		},
		{
			name:       "heaviest set decides, lighter back-off sets are ignored",
			history:    []workout.SessionRecord{performed("2025-01-01", "", set(40, 10), set(40, 10), set(30, 4))},
			wantWeight: new(42.5),
			wantReps:   [2]int{6, 10},
			wantAction: workout.ActionIncreaseWeight,
		},
		{
			name: "latest session by date is used",
			history: []workout.SessionRecord{
				performed("2025-01-08", "", set(42.5, 7)),
				performed("2025-01-01", "", set(40, 10)),
			},
			wantWeight: new(42.5),
			wantReps:   [2]int{6, 10},
			wantAction: workout.ActionAddReps,
		},
		{
			name: "variant substitution keeps history",
			history: []workout.SessionRecord{
				performed("2025-01-01", "Incline Dumbbell Press", set(40, 5)),
				performed("2025-01-05", "Incline Barbell Press", set(40, 4)),
			},
			wantWeight: new(36.0),
			wantReps:   [2]int{6, 6},
			wantAction: workout.ActionDeload,
		},
		{
			name: "skipped entries are ignored",
			history: func() []workout.SessionRecord {
				skipped := performed("2025-01-05", "", set(0, 0))
				skipped.Exercises[0].Skipped = true
				return []workout.SessionRecord{performed("2025-01-01", "", set(40, 10)), skipped}
			}(),
			wantWeight: new(42.5),
			wantReps:   [2]int{6, 10},
			wantAction: workout.ActionIncreaseWeight,
		},
		{
			name: "rest days are ignored",
			history: []workout.SessionRecord{
				performed("2025-01-01", "", set(40, 5)),
				restDay("r1", "2025-01-03"),
				performed("2025-01-05", "", set(40, 5)),
			},
			wantWeight: new(36.0),
			wantReps:   [2]int{6, 6},
			wantAction: workout.ActionDeload,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := workout.SuggestTarget(inclinePress.ExerciseID, inclinePress, mustHistory(t, tt.history...), defaultPolicy)
			if diff := cmp.Diff(tt.wantWeight, got.SuggestedWeight); diff != "" {
				t.Errorf("SuggestedWeight mismatch (-want +got):\n%s", diff)
			}
			if got.SuggestedReps != tt.wantReps {
				t.Errorf("SuggestedReps = %v, want %v", got.SuggestedReps, tt.wantReps)
			}
			if got.Action != tt.wantAction {
				t.Errorf("Action = %q, want %q", got.Action, tt.wantAction)
			}
			if got.Rationale == "" {
				t.Error("Rationale is empty")
			}
		})
	}
}

func Test_SuggestTarget_OtherExercisesDoNotInterfere(t *testing.T) {
	t.Parallel()
	rec := performed("2025-01-05", "", set(60, 3))
	rec.Exercises[0].ExerciseID = "upper_b_incline_press"
	history := mustHistory(t, performed("2025-01-01", "", set(40, 10)), rec)

	got := workout.SuggestTarget(inclinePress.ExerciseID, inclinePress, history, defaultPolicy)
	if diff := cmp.Diff(new(42.5), got.SuggestedWeight); diff != "" {
		t.Errorf("SuggestedWeight mismatch (-want +got):\n%s", diff)
	}
}

func Test_SuggestTarget_Idempotent(t *testing.T) {
	t.Parallel()
	history := mustHistory(t,
		performed("2025-01-01", "", set(40, 5)),
		performed("2025-01-05", "", set(40, 5)),
	)
	before := history.Records()

	first := workout.SuggestTarget(inclinePress.ExerciseID, inclinePress, history, defaultPolicy)
	second := workout.SuggestTarget(inclinePress.ExerciseID, inclinePress, history, defaultPolicy)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("SuggestTarget() not idempotent (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(before, history.Records()); diff != "" {
		t.Errorf("SuggestTarget() mutated history (-before +after):\n%s", diff)
	}
}

func Test_SuggestTarget_RoundsWeights(t *testing.T) {
	t.Parallel()
	policy := defaultPolicy
	policy.WeightIncrement = 0.1
	history := mustHistory(t, performed("2025-01-01", "", set(20.2, 10)))

	got := workout.SuggestTarget(inclinePress.ExerciseID, inclinePress, history, policy)
	if diff := cmp.Diff(new(20.3), got.SuggestedWeight); diff != "" {
		t.Errorf("SuggestedWeight mismatch (-want +got):\n%s", diff)
	}
}
