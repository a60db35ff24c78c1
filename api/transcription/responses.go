package transcription

// AcceptedResponse is returned once an upload is queued
type AcceptedResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// PendingResponse reports a job that has not finished
type PendingResponse struct {
	Status string `json:"status"`
}

// DoneResponse carries a finished transcription
type DoneResponse struct {
	Status          string   `json:"status"`
	Transcript      string   `json:"transcript"`
	Summary         []string `json:"summary"`
	BibleReferences []string `json:"bible_references"`
}

// FailedResponse reports why a job failed
type FailedResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}
