package workout

import (
	"log/slog"
	"slices"

	"github.com/myrjola/lifelog/internal/errors"
)

// BonusPolicy controls when the optional bonus template is offered.
type BonusPolicy struct {
	Enabled bool
	// Anchor is the template after which the bonus is offered.
	Anchor   TemplateID
	Template TemplateID
	// DeclinedAnchors lists anchor session ids whose offer was declined.
	DeclinedAnchors []string
}

// Decision is the outcome of the cycle scheduler.
type Decision struct {
	TemplateID      TemplateID `json:"templateId"`
	IsOptionalOffer bool       `json:"isOptionalOffer"`
	// AnchorSessionID is the session that triggered the bonus offer. Empty unless IsOptionalOffer is set.
	AnchorSessionID string `json:"anchorSessionId,omitempty"`
}

// NextSession picks the template that follows the last non-rest session in the cycle.
//
// Rest days never advance the cycle. When the last session was the bonus anchor and its offer hasn't been
// declined, the bonus template is offered first without consuming a cycle position. A last template that is
// not in the cycle, such as the bonus template itself, restarts the cycle.
func NextSession(cycle []TemplateID, history History, policy BonusPolicy) (Decision, error) {
	if len(cycle) == 0 {
		return Decision{}, errors.Wrap(ErrConfiguration, "cycle is empty") //nolint:exhaustruct // zero value.
	}

	last, ok := history.lastSession()
	if !ok {
		return Decision{TemplateID: cycle[0], IsOptionalOffer: false, AnchorSessionID: ""}, nil
	}

	if policy.Enabled && last.TemplateID == policy.Anchor && !slices.Contains(policy.DeclinedAnchors, last.ID) {
		return Decision{TemplateID: policy.Template, IsOptionalOffer: true, AnchorSessionID: last.ID}, nil
	}

	i := slices.Index(cycle, last.TemplateID)
	if i < 0 {
		return Decision{TemplateID: cycle[0], IsOptionalOffer: false, AnchorSessionID: ""}, nil
	}
	return Decision{TemplateID: cycle[(i+1)%len(cycle)], IsOptionalOffer: false, AnchorSessionID: ""}, nil
}

// nextSessionAttrs are logged with every scheduling decision.
func nextSessionAttrs(d Decision, advice RestAdvice) []slog.Attr {
	return []slog.Attr{
		slog.String("template_id", string(d.TemplateID)),
		slog.Bool("optional_offer", d.IsOptionalOffer),
		slog.Bool("rest_recommended", advice.Recommend),
		slog.Int("consecutive_count", advice.ConsecutiveCount),
	}
}
