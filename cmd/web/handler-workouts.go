package main

import (
	"fmt"
	"net/http"

	"github.com/myrjola/lifelog/internal/contexthelpers"
	"github.com/myrjola/lifelog/internal/errors"
	"github.com/myrjola/lifelog/internal/workout"
)

func (app *application) nextSessionGET(w http.ResponseWriter, r *http.Request) {
	schedule, err := app.workoutService.NextSession(r.Context())
	if err != nil {
		app.apiError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, schedule)
}

func (app *application) declineOfferPOST(w http.ResponseWriter, r *http.Request) {
	if _, err := app.workoutService.DeclineOffer(r.Context()); err != nil {
		app.apiError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) sessionPlanGET(w http.ResponseWriter, r *http.Request) {
	id := workout.TemplateID(r.PathValue("templateID"))
	plan, err := app.workoutService.SessionPlan(r.Context(), id, contexthelpers.Environment(r.Context()))
	if err != nil {
		app.apiError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, plan)
}

func (app *application) sessionsGET(w http.ResponseWriter, r *http.Request) {
	history, err := app.workoutService.History(r.Context())
	if err != nil {
		app.apiError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, history.Records())
}

func (app *application) sessionsPOST(w http.ResponseWriter, r *http.Request) {
	var rec workout.SessionRecord
	if err := decodeJSON(r, &rec); err != nil {
		app.apiError(w, r, err)
		return
	}
	stored, err := app.workoutService.CompleteSession(r.Context(), rec)
	if err != nil {
		app.apiError(w, r, err)
		return
	}
	writeRawJSON(w, http.StatusCreated, stored)
}

func (app *application) exerciseTargetGET(w http.ResponseWriter, r *http.Request) {
	id := workout.ExerciseID(r.PathValue("exerciseID"))
	target, err := app.workoutService.SlotTarget(r.Context(), id)
	if err != nil {
		app.apiError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, target)
}

func (app *application) patternVariantsGET(w http.ResponseWriter, r *http.Request) {
	id := workout.PatternID(r.PathValue("patternID"))
	variants, err := app.workoutService.EligibleVariants(id, contexthelpers.Environment(r.Context()))
	if errors.Is(err, workout.ErrConfiguration) {
		err = fmt.Errorf("%w: %w", workout.ErrNotFound, err)
	}
	if err != nil {
		app.apiError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, variants)
}
