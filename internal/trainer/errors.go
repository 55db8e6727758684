package trainer

import "fmt"

// InsufficientDataError reports a training request whose series has fewer
// distinct dates than the configured minimum. Raised to the caller with
// the offending key attached, never silently defaulted.
type InsufficientDataError struct {
	Company  string
	Product  string
	Observed int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s/%s: %d distinct dates, need at least %d",
		e.Company, e.Product, e.Observed, e.Required)
}
