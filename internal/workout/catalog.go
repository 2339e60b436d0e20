package workout

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/myrjola/lifelog/internal/errors"
)

// Catalog is the validated, read-only view of a Config.
type Catalog struct {
	settings  Settings
	cycle     []TemplateID
	patterns  []Pattern
	patternIx map[PatternID]int
	variants  map[PatternID][]Variant
	templates map[TemplateID]Template
	slots     map[ExerciseID]slotRef
}

type slotRef struct {
	template TemplateID
	index    int
}

// NewCatalog validates cfg and builds a Catalog. All problems are reported at once, each wrapping either
// ErrConfiguration or ErrInvalidTarget.
func NewCatalog(cfg Config) (*Catalog, error) {
	c := &Catalog{
		settings:  cfg.Settings,
		cycle:     slices.Clone(cfg.Cycle),
		patterns:  slices.Clone(cfg.Patterns),
		patternIx: make(map[PatternID]int, len(cfg.Patterns)),
		variants:  make(map[PatternID][]Variant, len(cfg.VariantsByPattern)),
		templates: make(map[TemplateID]Template, len(cfg.Templates)),
		slots:     make(map[ExerciseID]slotRef),
	}

	var errs []error
	errs = append(errs, c.addPatterns(cfg.Patterns)...)
	errs = append(errs, c.addVariants(cfg.VariantsByPattern)...)
	errs = append(errs, c.addTemplates(cfg.Templates)...)
	errs = append(errs, c.validateCycle()...)
	errs = append(errs, c.validateSettings()...)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

func configError(msg string, attrs ...slog.Attr) error {
	return errors.Wrap(ErrConfiguration, msg, attrs...)
}

func (c *Catalog) addPatterns(patterns []Pattern) []error {
	var errs []error
	for i, p := range patterns {
		switch {
		case p.ID == "":
			errs = append(errs, configError("pattern id is empty", slog.Int("index", i)))
			continue
		case p.Name == "":
			errs = append(errs, configError("pattern name is empty", slog.String("pattern_id", string(p.ID))))
		case p.WeightIncrement != nil && *p.WeightIncrement <= 0:
			errs = append(errs, configError("pattern weight increment must be positive",
				slog.String("pattern_id", string(p.ID))))
		}
		if _, ok := c.patternIx[p.ID]; ok {
			errs = append(errs, configError("duplicate pattern id", slog.String("pattern_id", string(p.ID))))
			continue
		}
		c.patternIx[p.ID] = i
	}
	return errs
}

func (c *Catalog) addVariants(byPattern map[PatternID][]Variant) []error {
	var errs []error
	for _, patternID := range slices.Sorted(maps.Keys(byPattern)) {
		if _, ok := c.patternIx[patternID]; !ok {
			errs = append(errs, configError("variants reference unknown pattern",
				slog.String("pattern_id", string(patternID))))
			continue
		}
		variants := make([]Variant, 0, len(byPattern[patternID]))
		for _, v := range byPattern[patternID] {
			if v.Name == "" {
				errs = append(errs, configError("variant name is empty", slog.String("pattern_id", string(patternID))))
				continue
			}
			variants = append(variants, Variant{Name: v.Name, Tags: slices.Clone(v.Tags)})
		}
		c.variants[patternID] = variants
	}
	return errs
}

func (c *Catalog) addTemplates(templates map[TemplateID]Template) []error {
	var errs []error
	// Sorted so that duplicate exercise ids are reported deterministically.
	for _, key := range slices.Sorted(maps.Keys(templates)) {
		tmpl := templates[key]
		if tmpl.ID != key {
			errs = append(errs, configError("template id does not match its key",
				slog.String("key", string(key)), slog.String("template_id", string(tmpl.ID))))
			continue
		}
		if len(tmpl.Exercises) == 0 {
			errs = append(errs, configError("template has no exercises", slog.String("template_id", string(key))))
		}
		for i, slot := range tmpl.Exercises {
			if err := c.validateSlot(key, slot); err != nil {
				errs = append(errs, err)
				continue
			}
			if prev, ok := c.slots[slot.ExerciseID]; ok {
				errs = append(errs, configError("exercise id is used by more than one slot",
					slog.String("exercise_id", string(slot.ExerciseID)),
					slog.String("template_id", string(key)),
					slog.String("other_template_id", string(prev.template))))
				continue
			}
			c.slots[slot.ExerciseID] = slotRef{template: key, index: i}
		}
		tmpl.Exercises = slices.Clone(tmpl.Exercises)
		c.templates[key] = tmpl
	}
	return errs
}

func (c *Catalog) validateSlot(templateID TemplateID, slot Slot) error {
	attrs := []slog.Attr{
		slog.String("template_id", string(templateID)),
		slog.String("exercise_id", string(slot.ExerciseID)),
	}
	switch {
	case slot.ExerciseID == "":
		return configError("slot exercise id is empty", attrs...)
	case slot.PatternID == "":
		return configError("slot pattern id is empty", attrs...)
	}
	if _, ok := c.patternIx[slot.PatternID]; !ok {
		return configError("slot references unknown pattern", append(attrs, slog.String("pattern_id", string(slot.PatternID)))...)
	}
	attrs = append(attrs, slog.Int("sets", slot.Sets), slog.Int("rep_min", slot.RepMin), slog.Int("rep_max", slot.RepMax))
	switch {
	case slot.Sets < 1:
		return errors.Wrap(ErrInvalidTarget, "sets must be positive", attrs...)
	case slot.RepMin < 1:
		return errors.Wrap(ErrInvalidTarget, "repMin must be positive", attrs...)
	case slot.RepMin > slot.RepMax:
		return errors.Wrap(ErrInvalidTarget, "repMin exceeds repMax", attrs...)
	case slot.WeightIncrement != nil && *slot.WeightIncrement <= 0:
		return errors.Wrap(ErrInvalidTarget, "weight increment must be positive", attrs...)
	}
	return nil
}

func (c *Catalog) validateCycle() []error {
	if len(c.cycle) == 0 {
		return []error{configError("cycle is empty")}
	}
	var errs []error
	seen := make(map[TemplateID]int, len(c.cycle))
	for i, id := range c.cycle {
		// The scheduler locates the last session by template id, so each id may appear once.
		if first, dup := seen[id]; dup {
			errs = append(errs, configError("template appears more than once in cycle",
				slog.String("template_id", string(id)), slog.Int("first_index", first), slog.Int("index", i)))
			continue
		}
		seen[id] = i
		tmpl, ok := c.templates[id]
		switch {
		case !ok:
			errs = append(errs, configError("cycle references unknown template", slog.String("template_id", string(id))))
		case tmpl.Optional:
			errs = append(errs, configError("optional template in cycle", slog.String("template_id", string(id))))
		}
	}
	return errs
}

func (c *Catalog) validateSettings() []error {
	s := c.settings
	var errs []error
	if s.RestRecommendAfterConsecutiveSessions < 1 {
		errs = append(errs, configError("restRecommendAfterConsecutiveSessions must be at least 1",
			slog.Int("threshold", s.RestRecommendAfterConsecutiveSessions)))
	}
	if s.WeightIncrement <= 0 {
		errs = append(errs, configError("weightIncrement must be positive"))
	}
	if s.DeloadFraction < 0 || s.DeloadFraction >= 1 {
		errs = append(errs, configError("deloadFraction must be in [0, 1)",
			slog.Float64("deload_fraction", s.DeloadFraction)))
	}
	if s.DeloadAfterFailedSessions < 1 {
		errs = append(errs, configError("deloadAfterFailedSessions must be at least 1"))
	}
	if !s.OfferUpperC {
		return errs
	}
	if !slices.Contains(c.cycle, s.BonusAnchor) {
		errs = append(errs, configError("bonus anchor is not in the cycle", slog.String("template_id", string(s.BonusAnchor))))
	}
	if bonus, ok := c.templates[s.BonusTemplate]; !ok || !bonus.Optional {
		errs = append(errs, configError("bonus template must be an optional template",
			slog.String("template_id", string(s.BonusTemplate))))
	}
	return errs
}

// Settings returns the configured settings.
func (c *Catalog) Settings() Settings {
	return c.settings
}

// Cycle returns the rotation of template ids.
func (c *Catalog) Cycle() []TemplateID {
	return slices.Clone(c.cycle)
}

// Template looks up a template by id.
func (c *Catalog) Template(id TemplateID) (Template, bool) {
	tmpl, ok := c.templates[id]
	return tmpl, ok
}

// Pattern looks up a pattern by id.
func (c *Catalog) Pattern(id PatternID) (Pattern, bool) {
	i, ok := c.patternIx[id]
	if !ok {
		return Pattern{}, false //nolint:exhaustruct // zero value.
	}
	return c.patterns[i], true
}

// Slot looks up the slot and its template by exercise id.
func (c *Catalog) Slot(id ExerciseID) (Slot, TemplateID, bool) {
	ref, ok := c.slots[id]
	if !ok {
		return Slot{}, "", false //nolint:exhaustruct // zero value.
	}
	return c.templates[ref.template].Exercises[ref.index], ref.template, true
}

// EligibleVariants returns the variants of a pattern that carry environmentTag, or all of them when the tag is
// empty.
func (c *Catalog) EligibleVariants(patternID PatternID, environmentTag string) ([]Variant, error) {
	if _, ok := c.patternIx[patternID]; !ok {
		return nil, configError("unknown pattern", slog.String("pattern_id", string(patternID)))
	}
	eligible := []Variant{}
	for _, v := range c.variants[patternID] {
		if environmentTag == "" || slices.Contains(v.Tags, environmentTag) {
			eligible = append(eligible, v)
		}
	}
	return eligible, nil
}

// Environments lists the distinct variant tags in sorted order.
func (c *Catalog) Environments() []string {
	seen := make(map[string]struct{})
	for _, variants := range c.variants {
		for _, v := range variants {
			for _, tag := range v.Tags {
				seen[tag] = struct{}{}
			}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// BonusPolicy returns the bonus offer policy with the given declined anchor sessions.
func (c *Catalog) BonusPolicy(declinedAnchors []string) BonusPolicy {
	return BonusPolicy{
		Enabled:         c.settings.OfferUpperC,
		Anchor:          c.settings.BonusAnchor,
		Template:        c.settings.BonusTemplate,
		DeclinedAnchors: declinedAnchors,
	}
}

// ProgressionPolicy resolves the progression parameters of a slot. The weight increment is taken from the slot,
// then its pattern, then the settings.
func (c *Catalog) ProgressionPolicy(slot Slot) ProgressionPolicy {
	increment := c.settings.WeightIncrement
	if p, ok := c.Pattern(slot.PatternID); ok && p.WeightIncrement != nil {
		increment = *p.WeightIncrement
	}
	if slot.WeightIncrement != nil {
		increment = *slot.WeightIncrement
	}
	return ProgressionPolicy{
		WeightIncrement:           increment,
		DeloadFraction:            c.settings.DeloadFraction,
		DeloadAfterFailedSessions: c.settings.DeloadAfterFailedSessions,
	}
}

// CheckHistory reports history entries that don't match the configuration. Each problem wraps
// ErrHistoryInconsistency.
func (c *Catalog) CheckHistory(history History) []error {
	var errs []error
	for _, rec := range history.records {
		if rec.RestDay {
			continue
		}
		if _, ok := c.templates[rec.TemplateID]; !ok {
			errs = append(errs, errors.Wrap(ErrHistoryInconsistency, "session references unknown template",
				slog.String("session_id", rec.ID), slog.String("template_id", string(rec.TemplateID))))
		}
		for _, perf := range rec.Exercises {
			if _, ok := c.slots[perf.ExerciseID]; !ok {
				errs = append(errs, errors.Wrap(ErrHistoryInconsistency, "session references unknown exercise",
					slog.String("session_id", rec.ID), slog.String("exercise_id", string(perf.ExerciseID))))
			}
		}
	}
	return errs
}

// String implements fmt.Stringer for log output.
func (c *Catalog) String() string {
	return fmt.Sprintf("Catalog{cycle: %v, patterns: %d, templates: %d, slots: %d}",
		c.cycle, len(c.patterns), len(c.templates), len(c.slots))
}
