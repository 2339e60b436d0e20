package main

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/lifelog/internal/workout"
)

func Test_application_healthy(t *testing.T) {
	client := startTestServer(t).Client()

	var got healthResponse
	status, err := client.GetJSON(t.Context(), "/api/healthy", &got)
	if err != nil {
		t.Fatalf("Failed to get health: %v", err)
	}
	want := healthResponse{Status: "ok", SchemaVersion: 2}
	if status != http.StatusOK {
		t.Errorf("Expected status 200, got %d", status)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Health mismatch (-want +got):\n%s", diff)
	}
}

func Test_application_workoutsAPI(t *testing.T) {
	var (
		ctx    = t.Context()
		client = startTestServer(t).Client()
	)

	t.Run("Next session on empty history", func(t *testing.T) {
		var schedule workout.Schedule
		status, err := client.GetJSON(ctx, "/api/workouts/next", &schedule)
		if err != nil {
			t.Fatalf("Failed to get next session: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", status)
		}
		if schedule.TemplateID != "upper_a" || schedule.IsOptionalOffer || schedule.Recommend {
			t.Errorf("Expected upper_a without offer or rest advice, got %+v", schedule)
		}
		if schedule.TemplateName != "Upper A" {
			t.Errorf("Expected template name Upper A, got %q", schedule.TemplateName)
		}
	})

	t.Run("Decline without pending offer conflicts", func(t *testing.T) {
		status, err := client.SendJSON(ctx, http.MethodPost, "/api/workouts/next/decline", nil, nil)
		if err != nil {
			t.Fatalf("Failed to decline: %v", err)
		}
		if status != http.StatusConflict {
			t.Errorf("Expected status 409, got %d", status)
		}
	})

	t.Run("Target without history", func(t *testing.T) {
		var target workout.Target
		if _, err := client.GetJSON(ctx, "/api/exercises/upper_a_incline_press/target", &target); err != nil {
			t.Fatalf("Failed to get target: %v", err)
		}
		if target.SuggestedWeight != nil || target.Action != workout.ActionStart {
			t.Errorf("Expected start without weight, got %+v", target)
		}
	})

	var stored []workout.SessionRecord
	t.Run("Complete a full cycle", func(t *testing.T) {
		stored = completeCycle(t, client)
		for _, rec := range stored {
			if rec.ID == "" {
				t.Errorf("Expected an assigned id for %s", rec.TemplateID)
			}
		}
	})

	t.Run("Target increases weight after reaching the top of the range", func(t *testing.T) {
		var target workout.Target
		if _, err := client.GetJSON(ctx, "/api/exercises/upper_a_incline_press/target", &target); err != nil {
			t.Fatalf("Failed to get target: %v", err)
		}
		if target.SuggestedWeight == nil || *target.SuggestedWeight != 42.5 {
			t.Fatalf("Expected suggested weight 42.5, got %v", target.SuggestedWeight)
		}
		if diff := cmp.Diff([2]int{6, 10}, target.SuggestedReps); diff != "" {
			t.Errorf("Suggested reps mismatch (-want +got):\n%s", diff)
		}
		if target.Action != workout.ActionIncreaseWeight {
			t.Errorf("Expected action %s, got %s", workout.ActionIncreaseWeight, target.Action)
		}
	})

	t.Run("Bonus session is offered after the anchor", func(t *testing.T) {
		var schedule workout.Schedule
		if _, err := client.GetJSON(ctx, "/api/workouts/next", &schedule); err != nil {
			t.Fatalf("Failed to get next session: %v", err)
		}
		want := workout.Decision{
			TemplateID:      "upper_c",
			IsOptionalOffer: true,
			AnchorSessionID: stored[len(stored)-1].ID,
		}
		if diff := cmp.Diff(want, schedule.Decision); diff != "" {
			t.Errorf("Decision mismatch (-want +got):\n%s", diff)
		}
		if !schedule.Recommend || schedule.ConsecutiveCount != 4 {
			t.Errorf("Expected rest advice after 4 sessions, got %+v", schedule.RestAdvice)
		}
	})

	t.Run("Declining the offer continues the cycle", func(t *testing.T) {
		status, err := client.SendJSON(ctx, http.MethodPost, "/api/workouts/next/decline", nil, nil)
		if err != nil {
			t.Fatalf("Failed to decline: %v", err)
		}
		if status != http.StatusNoContent {
			t.Fatalf("Expected status 204, got %d", status)
		}

		var schedule workout.Schedule
		if _, err = client.GetJSON(ctx, "/api/workouts/next", &schedule); err != nil {
			t.Fatalf("Failed to get next session: %v", err)
		}
		if schedule.TemplateID != "upper_a" || schedule.IsOptionalOffer {
			t.Errorf("Expected upper_a after declining, got %+v", schedule.Decision)
		}

		if status, err = client.SendJSON(ctx, http.MethodPost, "/api/workouts/next/decline", nil, nil); err != nil {
			t.Fatalf("Failed to decline again: %v", err)
		}
		if status != http.StatusConflict {
			t.Errorf("Expected status 409 for a second decline, got %d", status)
		}
	})

	t.Run("History lists stored sessions in date order", func(t *testing.T) {
		var history []workout.SessionRecord
		if _, err := client.GetJSON(ctx, "/api/workouts/sessions", &history); err != nil {
			t.Fatalf("Failed to get history: %v", err)
		}
		if diff := cmp.Diff(stored, history); diff != "" {
			t.Errorf("History mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Invalid sessions are rejected", func(t *testing.T) {
		tests := []struct {
			name string
			body any
		}{
			{
				name: "unknown template",
				body: map[string]any{"date": "2026-02-01", "templateId": "upper_z"},
			},
			{
				name: "bad date",
				body: map[string]any{"date": "yesterday", "templateId": "upper_a"},
			},
			{
				name: "exercise from another template",
				body: map[string]any{"date": "2026-02-01", "templateId": "upper_a", "exercises": []map[string]any{
					{"exerciseId": "lower_a_squat", "setsPerformed": []map[string]any{{"weight": 60, "reps": 5}}},
				}},
			},
			{
				name: "not an object",
				body: []int{1, 2, 3},
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var got errorResponse
				status, err := client.SendJSON(ctx, http.MethodPost, "/api/workouts/sessions", tt.body, &got)
				if err != nil {
					t.Fatalf("Failed to post session: %v", err)
				}
				if status != http.StatusBadRequest {
					t.Errorf("Expected status 400, got %d", status)
				}
				if got.Error == "" {
					t.Error("Expected an error message")
				}
			})
		}
	})

	t.Run("Session plan filters variants by environment", func(t *testing.T) {
		var plan workout.Plan
		status, err := client.GetJSON(ctx, "/api/workouts/templates/upper_a/plan?environment=home", &plan)
		if err != nil {
			t.Fatalf("Failed to get plan: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", status)
		}
		if len(plan.Slots) != 4 {
			t.Fatalf("Expected 4 slots, got %d", len(plan.Slots))
		}
		raise := plan.Slots[2]
		if raise.ExerciseID != "upper_a_lateral_raise" {
			t.Fatalf("Expected third slot to be the lateral raise, got %s", raise.ExerciseID)
		}
		want := []workout.Variant{{Name: "Band Lateral Raise", Tags: []string{"home", "apartment"}}}
		if diff := cmp.Diff(want, raise.Variants); diff != "" {
			t.Errorf("Variants mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Variants by pattern", func(t *testing.T) {
		var variants []workout.Variant
		status, err := client.GetJSON(ctx, "/api/patterns/lateral_raise/variants?environment=commercial", &variants)
		if err != nil {
			t.Fatalf("Failed to get variants: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", status)
		}
		names := make([]string, 0, len(variants))
		for _, v := range variants {
			names = append(names, v.Name)
		}
		if diff := cmp.Diff([]string{"Dumbbell Lateral Raise", "Cable Lateral Raise"}, names); diff != "" {
			t.Errorf("Variant names mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Unknown ids are not found", func(t *testing.T) {
		for _, path := range []string{
			"/api/patterns/juggling/variants",
			"/api/workouts/templates/upper_z/plan",
			"/api/exercises/upper_z_press/target",
		} {
			var got errorResponse
			status, err := client.GetJSON(ctx, path, &got)
			if err != nil {
				t.Fatalf("Failed to get %s: %v", path, err)
			}
			if status != http.StatusNotFound {
				t.Errorf("Expected status 404 for %s, got %d", path, status)
			}
			if !strings.Contains(got.Error, "not found") && !strings.Contains(got.Error, "unknown") {
				t.Errorf("Expected a descriptive error for %s, got %q", path, got.Error)
			}
		}
	})
}
