package churn

import "fmt"

// Outcome is everything the page shows for one prediction.
type Outcome struct {
	Label        int      `json:"label"`
	Probability  float64  `json:"probability"`
	Headline     string   `json:"headline"`
	Churning     bool     `json:"churning"`
	InsightTitle string   `json:"insight_title"`
	Insights     []string `json:"insights"`
}

const (
	churnHeadline = "This customer is likely to churn!"
	stayHeadline  = "This customer is likely to stay!"
)

var (
	preventionTitle = "Recommendations to prevent churn:"
	prevention      = []string{
		"Consider offering a loyalty discount",
		"Review the customer's service package",
		"Reach out to understand their concerns",
		"Consider upgrading their service",
	}

	retentionTitle = "Customer retention is strong!"
	retention      = []string{
		"Continue providing excellent service",
		"Consider upselling opportunities",
		"Maintain regular communication",
	}
)

// NewOutcome selects the display text for a binary label. probability is
// the model's class-1 probability.
func NewOutcome(label int, probability float64) (Outcome, error) {
	switch label {
	case 1:
		return Outcome{
			Label:        label,
			Probability:  probability,
			Headline:     churnHeadline,
			Churning:     true,
			InsightTitle: preventionTitle,
			Insights:     append([]string(nil), prevention...),
		}, nil
	case 0:
		return Outcome{
			Label:        label,
			Probability:  probability,
			Headline:     stayHeadline,
			InsightTitle: retentionTitle,
			Insights:     append([]string(nil), retention...),
		}, nil
	default:
		return Outcome{}, fmt.Errorf("unexpected class label %d", label)
	}
}

// ProbabilityText is the line shown beneath the headline.
func (o Outcome) ProbabilityText() string {
	return "Probability of churn: " + FormatPercent(o.Probability)
}

// FormatPercent renders a probability as a percentage with two decimals.
func FormatPercent(p float64) string {
	return printer.Sprintf("%.2f%%", p*100)
}
