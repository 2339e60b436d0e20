package main

import (
	"fmt"
	"net/http"

	"github.com/myrjola/lifelog/internal/errors"
	"github.com/myrjola/lifelog/internal/workout"
)

type homeTemplateData struct {
	BaseTemplateData
	TemplateID       string
	SessionName      string
	IsOptionalOffer  bool
	RestRecommended  bool
	ConsecutiveCount int
	// Environments lists the selectable training environments.
	Environments []string
	Slots        []slotView
}

// slotView is one planned exercise formatted for display.
type slotView struct {
	ExerciseID  string
	PatternName string
	Core        bool
	Sets        int
	Reps        string
	// Weight is empty when there is no history to base a suggestion on.
	Weight    string
	Action    string
	Rationale string
	Variants  []string
	// Notes is the pattern description in markdown.
	Notes string
}

func formatRepRange(reps [2]int) string {
	if reps[0] == reps[1] {
		return fmt.Sprintf("%d", reps[0])
	}
	return fmt.Sprintf("%d–%d", reps[0], reps[1])
}

func (app *application) toSlotViews(slots []workout.PlannedSlot) []slotView {
	catalog := app.workoutService.Catalog()
	views := make([]slotView, 0, len(slots))
	for _, s := range slots {
		view := slotView{
			ExerciseID:  string(s.ExerciseID),
			PatternName: s.PatternName,
			Core:        s.Core,
			Sets:        s.Sets,
			Reps:        formatRepRange(s.Target.SuggestedReps),
			Weight:      "",
			Action:      string(s.Target.Action),
			Rationale:   s.Target.Rationale,
			Variants:    make([]string, 0, len(s.Variants)),
			Notes:       "",
		}
		if s.Target.SuggestedWeight != nil {
			view.Weight = formatFloat(*s.Target.SuggestedWeight) + " kg"
		}
		for _, v := range s.Variants {
			view.Variants = append(view.Variants, v.Name)
		}
		if pattern, ok := catalog.Pattern(s.PatternID); ok {
			view.Notes = pattern.DescriptionMarkdown
		}
		views = append(views, view)
	}
	return views
}

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	base := newBaseTemplateData(r)
	overview, err := app.workoutService.Overview(r.Context(), base.Environment)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	data := homeTemplateData{
		BaseTemplateData: base,
		TemplateID:       string(overview.Plan.TemplateID),
		SessionName:      overview.Plan.Name,
		IsOptionalOffer:  overview.Schedule.IsOptionalOffer,
		RestRecommended:  overview.Schedule.Recommend,
		ConsecutiveCount: overview.Schedule.ConsecutiveCount,
		Environments:     app.workoutService.Catalog().Environments(),
		Slots:            app.toSlotViews(overview.Plan.Slots),
	}
	app.render(w, r, http.StatusOK, "home", data)
}

func (app *application) homeDeclinePOST(w http.ResponseWriter, r *http.Request) {
	// A stale form after the offer was already resolved lands back on the overview.
	if _, err := app.workoutService.DeclineOffer(r.Context()); err != nil &&
		!errors.Is(err, workout.ErrNoPendingOffer) {
		app.serverError(w, r, err)
		return
	}
	redirect(w, r, "/")
}
