package ml

// Record is one row of tabular input keyed by column name. Values are
// either strings (categorical columns) or numbers (float64 or int).
type Record map[string]any

// Classifier is the contract every loaded artifact satisfies. Both calls
// take a batch of rows and return one result per row.
type Classifier interface {
	Predict(rows []Record) ([]int, error)
	PredictProba(rows []Record) ([][]float64, error)
}

// Classes returns the fixed label set of a binary churn model.
func Classes() []int {
	return []int{0, 1}
}
