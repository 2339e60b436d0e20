package workout

// RestAdvice is the non-blocking outcome of the rest advisor.
type RestAdvice struct {
	Recommend        bool `json:"restRecommended"`
	ConsecutiveCount int  `json:"consecutiveCount"`
}

// ShouldRecommendRest counts the sessions logged since the last rest day and recommends resting once the count
// reaches threshold.
func ShouldRecommendRest(history History, threshold int) RestAdvice {
	count := 0
	for i := len(history.records) - 1; i >= 0 && !history.records[i].RestDay; i-- {
		count++
	}
	return RestAdvice{
		Recommend:        count >= threshold,
		ConsecutiveCount: count,
	}
}
