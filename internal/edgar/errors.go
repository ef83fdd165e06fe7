package edgar

import "fmt"

// UnknownTickerError reports a ticker absent from the company directory.
// This is a user-input problem, not a transient failure.
type UnknownTickerError struct {
	Ticker string
}

func (e *UnknownTickerError) Error() string {
	return fmt.Sprintf("edgar: unknown ticker %q", e.Ticker)
}
