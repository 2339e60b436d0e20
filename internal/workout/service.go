package workout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/lifelog/internal/errors"
)

// Service loads history from the record store and runs the scheduling and progression policies on it.
type Service struct {
	catalog *Catalog
	repo    *repository
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a new workout service.
func NewService(catalog *Catalog, store RecordStore, logger *slog.Logger) *Service {
	return &Service{
		catalog: catalog,
		repo:    newRepository(store),
		logger:  logger,
		now:     time.Now,
	}
}

// Catalog returns the validated configuration.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// Schedule is the next session together with the rest advice.
type Schedule struct {
	Decision
	RestAdvice
	TemplateName string `json:"templateName"`
}

// PlannedSlot is a slot with its eligible variants and progression target.
type PlannedSlot struct {
	Slot
	PatternName string    `json:"patternName"`
	Variants    []Variant `json:"variants"`
	Target      Target    `json:"target"`
}

// Plan is a template with a target for every slot.
type Plan struct {
	TemplateID TemplateID    `json:"templateId"`
	Name       string        `json:"name"`
	Optional   bool          `json:"optional"`
	Slots      []PlannedSlot `json:"slots"`
}

// History returns the ordered session history. Malformed records are skipped with a warning.
func (s *Service) History(ctx context.Context) (History, error) {
	sessions, issues, err := s.repo.listSessions(ctx)
	if err != nil {
		return History{}, fmt.Errorf("list sessions: %w", err)
	}
	history, dateIssues := NewHistory(sessions)
	issues = append(issues, dateIssues...)
	for _, issue := range issues {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "skipped malformed session record", errors.SlogError(issue))
	}
	for _, issue := range s.catalog.CheckHistory(history) {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "ignoring inconsistent history entry", errors.SlogError(issue))
	}
	return history, nil
}

// NextSession decides what to train next and whether to rest first.
func (s *Service) NextSession(ctx context.Context) (Schedule, error) {
	history, err := s.History(ctx)
	if err != nil {
		return Schedule{}, err
	}
	return s.schedule(ctx, history)
}

func (s *Service) schedule(ctx context.Context, history History) (Schedule, error) {
	declined, issues, err := s.repo.declinedAnchors(ctx)
	if err != nil {
		return Schedule{}, fmt.Errorf("list offer decisions: %w", err)
	}
	for _, issue := range issues {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "skipped malformed offer decision", errors.SlogError(issue))
	}

	decision, err := NextSession(s.catalog.Cycle(), history, s.catalog.BonusPolicy(declined))
	if err != nil {
		return Schedule{}, fmt.Errorf("next session: %w", err)
	}
	advice := ShouldRecommendRest(history, s.catalog.Settings().RestRecommendAfterConsecutiveSessions)

	name := ""
	if tmpl, ok := s.catalog.Template(decision.TemplateID); ok {
		name = tmpl.Name
	}
	s.logger.LogAttrs(ctx, slog.LevelDebug, "scheduled next session", nextSessionAttrs(decision, advice)...)
	return Schedule{Decision: decision, RestAdvice: advice, TemplateName: name}, nil
}

// SlotTarget computes the progression target of one exercise slot.
func (s *Service) SlotTarget(ctx context.Context, id ExerciseID) (Target, error) {
	slot, _, ok := s.catalog.Slot(id)
	if !ok {
		return Target{}, errors.Wrap(ErrNotFound, "unknown exercise", slog.String("exercise_id", string(id)))
	}
	history, err := s.History(ctx)
	if err != nil {
		return Target{}, err
	}
	return SuggestTarget(id, slot, history, s.catalog.ProgressionPolicy(slot)), nil
}

// SessionPlan returns a template with targets for every slot. Variants are filtered by environmentTag when set.
func (s *Service) SessionPlan(ctx context.Context, id TemplateID, environmentTag string) (Plan, error) {
	tmpl, ok := s.catalog.Template(id)
	if !ok {
		return Plan{}, errors.Wrap(ErrNotFound, "unknown template", slog.String("template_id", string(id)))
	}
	history, err := s.History(ctx)
	if err != nil {
		return Plan{}, err
	}
	return s.plan(tmpl, history, environmentTag)
}

func (s *Service) plan(tmpl Template, history History, environmentTag string) (Plan, error) {
	plan := Plan{
		TemplateID: tmpl.ID,
		Name:       tmpl.Name,
		Optional:   tmpl.Optional,
		Slots:      make([]PlannedSlot, 0, len(tmpl.Exercises)),
	}
	for _, slot := range tmpl.Exercises {
		variants, err := s.catalog.EligibleVariants(slot.PatternID, environmentTag)
		if err != nil {
			return Plan{}, err
		}
		pattern, _ := s.catalog.Pattern(slot.PatternID)
		plan.Slots = append(plan.Slots, PlannedSlot{
			Slot:        slot,
			PatternName: pattern.Name,
			Variants:    variants,
			Target:      SuggestTarget(slot.ExerciseID, slot, history, s.catalog.ProgressionPolicy(slot)),
		})
	}
	return plan, nil
}

// Overview is everything needed to render the home page.
type Overview struct {
	Schedule Schedule
	Plan     Plan
}

// Overview schedules the next session and plans it in one pass over the history.
func (s *Service) Overview(ctx context.Context, environmentTag string) (Overview, error) {
	history, err := s.History(ctx)
	if err != nil {
		return Overview{}, err
	}
	schedule, err := s.schedule(ctx, history)
	if err != nil {
		return Overview{}, err
	}
	tmpl, ok := s.catalog.Template(schedule.TemplateID)
	if !ok {
		return Overview{}, errors.Wrap(ErrConfiguration, "scheduled template is not configured",
			slog.String("template_id", string(schedule.TemplateID)))
	}
	plan, err := s.plan(tmpl, history, environmentTag)
	if err != nil {
		return Overview{}, err
	}
	return Overview{Schedule: schedule, Plan: plan}, nil
}

// EligibleVariants lists the variants of a pattern available in an environment.
func (s *Service) EligibleVariants(id PatternID, environmentTag string) ([]Variant, error) {
	return s.catalog.EligibleVariants(id, environmentTag)
}

// CompleteSession validates a session record, assigns an id when missing, and appends it to the history.
// The returned bytes are exactly what was stored.
func (s *Service) CompleteSession(ctx context.Context, rec SessionRecord) (json.RawMessage, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Exercises == nil {
		rec.Exercises = []ExercisePerformance{}
	}
	if rec.CreatedAt == nil {
		now := s.now().UTC()
		rec.CreatedAt = &now
	}
	if err := s.catalog.ValidateRecord(rec); err != nil {
		return nil, err
	}

	stored, err := s.repo.addSession(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("add session: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "completed session",
		slog.String("session_id", rec.ID),
		slog.String("template_id", string(rec.TemplateID)),
		slog.Bool("rest_day", rec.RestDay),
		slog.Int("exercises", len(rec.Exercises)))
	return stored, nil
}

// DeclineOffer declines the pending bonus offer so that the next call to NextSession advances the cycle.
func (s *Service) DeclineOffer(ctx context.Context) (OfferDecision, error) {
	schedule, err := s.NextSession(ctx)
	if err != nil {
		return OfferDecision{}, err
	}
	if !schedule.IsOptionalOffer {
		return OfferDecision{}, errors.Wrap(ErrNoPendingOffer, "decline offer",
			slog.String("next_template_id", string(schedule.TemplateID)))
	}

	decision := OfferDecision{
		ID:              uuid.NewString(),
		AnchorSessionID: schedule.AnchorSessionID,
		TemplateID:      schedule.TemplateID,
		Decision:        decisionDeclined,
		Date:            s.now().UTC(),
	}
	if err = s.repo.addDecision(ctx, decision); err != nil {
		return OfferDecision{}, fmt.Errorf("add offer decision: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "declined bonus offer",
		slog.String("anchor_session_id", decision.AnchorSessionID),
		slog.String("template_id", string(decision.TemplateID)))
	return decision, nil
}

// ValidateRecord checks a session record against the configuration. Problems wrap ErrInvalidRecord.
func (c *Catalog) ValidateRecord(rec SessionRecord) error {
	attrs := []slog.Attr{slog.String("session_id", rec.ID), slog.String("template_id", string(rec.TemplateID))}
	invalid := func(msg string, extra ...slog.Attr) error {
		return errors.Wrap(ErrInvalidRecord, msg, append(slices.Clone(attrs), extra...)...)
	}

	if _, err := ParseSessionDate(rec.Date); err != nil {
		return invalid("date must be YYYY-MM-DD or RFC 3339", slog.String("date", rec.Date))
	}
	if rec.RestDay {
		if rec.TemplateID != "" || len(rec.Exercises) > 0 {
			return invalid("rest day must not have a template or exercises")
		}
		return nil
	}
	tmpl, ok := c.templates[rec.TemplateID]
	if !ok {
		return invalid("unknown template")
	}

	seen := make(map[ExerciseID]bool, len(rec.Exercises))
	for _, perf := range rec.Exercises {
		exerciseAttr := slog.String("exercise_id", string(perf.ExerciseID))
		i := slices.IndexFunc(tmpl.Exercises, func(slot Slot) bool { return slot.ExerciseID == perf.ExerciseID })
		if i < 0 {
			return invalid("exercise is not part of the template", exerciseAttr)
		}
		if seen[perf.ExerciseID] {
			return invalid("exercise logged twice", exerciseAttr)
		}
		seen[perf.ExerciseID] = true

		if perf.VariantName != "" && len(c.variants[tmpl.Exercises[i].PatternID]) > 0 &&
			!slices.ContainsFunc(c.variants[tmpl.Exercises[i].PatternID], func(v Variant) bool {
				return v.Name == perf.VariantName
			}) {
			return invalid("unknown variant", exerciseAttr, slog.String("variant_name", perf.VariantName))
		}
		for _, set := range perf.SetsPerformed {
			if set.Reps < 0 || set.Weight < 0 || math.IsNaN(set.Weight) || math.IsInf(set.Weight, 0) {
				return invalid("set must have non-negative weight and reps", exerciseAttr)
			}
		}
	}
	return nil
}
