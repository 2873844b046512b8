package domain

import "time"

// DispatchRecord is the persisted outcome of one analyze request.
type DispatchRecord struct {
	ID           string
	Hash         string
	AnalysisType AnalysisType
	Target       string
	StatusCode   int
	Error        *string
	Duration     time.Duration
	CreatedAt    time.Time
}

// Failed reports whether the request ended in error.
func (r DispatchRecord) Failed() bool {
	return r.Error != nil
}
