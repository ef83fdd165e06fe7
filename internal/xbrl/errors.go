package xbrl

import "fmt"

// ExtractionError reports a failed fetch or parse of one filing document.
type ExtractionError struct {
	Stage string
	URL   string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("xbrl: %s %s: %v", e.Stage, e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
