package request

// NextBatchQuery is the query string of the preference-filtered batch
type NextBatchQuery struct {
	Page int `form:"page"`
}

// RandomBatchQuery is the query string of the randomized batch
type RandomBatchQuery struct {
	Limit int `form:"limit"`
}
