package workout

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/myrjola/lifelog/internal/errors"
	"gopkg.in/yaml.v3"
)

// ExerciseID is the stable identity of a template slot. History is keyed by it and it never changes when the
// user picks a different variant for the slot.
type ExerciseID string

// PatternID identifies a movement pattern such as "incline_press".
type PatternID string

// TemplateID identifies a session template such as "upper_a".
type TemplateID string

// Pattern is a movement category grouping interchangeable exercises.
type Pattern struct {
	ID                  PatternID `json:"id"                            yaml:"id"`
	Name                string    `json:"name"                          yaml:"name"`
	DescriptionMarkdown string    `json:"descriptionMarkdown,omitempty" yaml:"descriptionMarkdown,omitempty"`
	// WeightIncrement overrides Settings.WeightIncrement for every slot of this pattern.
	WeightIncrement *float64 `json:"weightIncrement,omitempty" yaml:"weightIncrement,omitempty"`
}

// Variant is a concrete exercise implementing a pattern, tagged by the environments where it can be performed.
type Variant struct {
	Name string   `json:"name" yaml:"name"`
	Tags []string `json:"tags" yaml:"tags"`
}

// Slot is one exercise position within a template.
type Slot struct {
	ExerciseID ExerciseID `json:"exerciseId" yaml:"exerciseId"`
	PatternID  PatternID  `json:"patternId"  yaml:"patternId"`
	Sets       int        `json:"sets"       yaml:"sets"`
	RepMin     int        `json:"repMin"     yaml:"repMin"`
	RepMax     int        `json:"repMax"     yaml:"repMax"`
	// Core marks the priority lifts of a template as opposed to accessories. It is shown on the overview and
	// does not change the rest or progression policies.
	Core            bool     `json:"core"                      yaml:"core"`
	WeightIncrement *float64 `json:"weightIncrement,omitempty" yaml:"weightIncrement,omitempty"`
}

// Template is a named, ordered collection of slots.
type Template struct {
	ID        TemplateID `json:"id"        yaml:"id"`
	Name      string     `json:"name"      yaml:"name"`
	Optional  bool       `json:"optional"  yaml:"optional"`
	Exercises []Slot     `json:"exercises" yaml:"exercises"`
}

// Settings tune the scheduling and progression policies.
type Settings struct {
	RestRecommendAfterConsecutiveSessions int  `json:"restRecommendAfterConsecutiveSessions" yaml:"restRecommendAfterConsecutiveSessions"`
	OfferUpperC                           bool `json:"offerUpperC"                           yaml:"offerUpperC"`
	// BonusAnchor is the template after which the bonus template is offered.
	BonusAnchor   TemplateID `json:"bonusAnchor"   yaml:"bonusAnchor"`
	BonusTemplate TemplateID `json:"bonusTemplate" yaml:"bonusTemplate"`
	// WeightIncrement is the default load added when every working set reached the top of the rep range.
	WeightIncrement float64 `json:"weightIncrement" yaml:"weightIncrement"`
	// DeloadFraction is the share of the working weight removed on a deload.
	DeloadFraction            float64 `json:"deloadFraction"            yaml:"deloadFraction"`
	DeloadAfterFailedSessions int     `json:"deloadAfterFailedSessions" yaml:"deloadAfterFailedSessions"`
}

// Config mirrors the WORKOUT_CONFIG data structure.
type Config struct {
	Settings          Settings                `json:"settings"          yaml:"settings"`
	Cycle             []TemplateID            `json:"cycle"             yaml:"cycle"`
	Patterns          []Pattern               `json:"patterns"          yaml:"patterns"`
	VariantsByPattern map[PatternID][]Variant `json:"variantsByPattern" yaml:"variantsByPattern"`
	Templates         map[TemplateID]Template `json:"templates"         yaml:"templates"`
}

// DefaultSettings returns the settings used for fields missing from a configuration file.
func DefaultSettings() Settings {
	return Settings{
		RestRecommendAfterConsecutiveSessions: 3, //nolint:mnd // three sessions in a row.
		OfferUpperC:                           false,
		BonusAnchor:                           "lower_b",
		BonusTemplate:                         "upper_c",
		WeightIncrement:                       2.5,  //nolint:mnd // smallest common plate pair.
		DeloadFraction:                        0.10, //nolint:mnd // 10% deload.
		DeloadAfterFailedSessions:             2,    //nolint:mnd // two failed sessions in a row.
	}
}

//go:embed default-config.yaml
var defaultConfig []byte

// LoadConfig reads a workout configuration from a YAML or JSON file. An empty path loads the built-in
// configuration.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return ParseConfig(bytes.NewReader(defaultConfig))
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: open workout config: %w", ErrConfiguration, err)
	}
	defer f.Close()

	cfg, err := ParseConfig(f)
	if err != nil {
		return Config{}, errors.Wrap(err, "parse workout config", slog.String("path", path))
	}
	return cfg, nil
}

// ParseConfig decodes a YAML document. JSON is accepted as well since it is a subset of YAML.
// Unknown fields are rejected so that typos in the configuration surface at boot.
func ParseConfig(r io.Reader) (Config, error) {
	cfg := Config{
		Settings:          DefaultSettings(),
		Cycle:             nil,
		Patterns:          nil,
		VariantsByPattern: nil,
		Templates:         nil,
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: decode workout config: %w", ErrConfiguration, err)
	}

	// Templates may omit the id and rely on the map key.
	for key, tmpl := range cfg.Templates {
		if tmpl.ID == "" {
			tmpl.ID = key
			cfg.Templates[key] = tmpl
		}
	}
	return cfg, nil
}
