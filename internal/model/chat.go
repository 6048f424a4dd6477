package model

const (
	RatingPositive = "positive"
	RatingNegative = "negative"
)

type ChatRecord struct {
	UserID            string `json:"user_id"`
	Timestamp         int64  `json:"timestamp"`
	SessionID         string `json:"session_id"`
	Question          string `json:"question"`
	SQL               string `json:"sql"`
	VisualizationType string `json:"visualization_type"`
	Explanation       string `json:"explanation"`
	RowCount          int    `json:"row_count"`
	Insights          string `json:"insights"`
	// ExecutionError holds the failure message for any record that did not
	// produce data: engine errors, validator rejections, and generation
	// failures. The evaluation harness buckets these.
	ExecutionError string    `json:"execution_error,omitempty"`
	Feedback       *Feedback `json:"feedback,omitempty"`
}

type Feedback struct {
	Rating  string `json:"rating"`
	Comment string `json:"comment,omitempty"`
	RatedAt int64  `json:"rated_at"`
}
