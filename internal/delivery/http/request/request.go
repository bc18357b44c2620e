package request

type SubmitIngestionRequest struct {
	SchoolID int64 `json:"school_id"`
	Force    bool  `json:"force"`
}
