package backtest

import "fmt"

// Policy decides what the engine does with a snapshot that fails validation
// or arrives out of order.
type Policy string

// Policy constants.
const (
	PolicySkip  Policy = "skip"  // count it and move on; the strategy never sees it
	PolicyAbort Policy = "abort" // stop the run with an error
)

// ParsePolicy parses a policy name. Empty means PolicySkip.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicySkip:
		return PolicySkip, nil
	case PolicyAbort:
		return PolicyAbort, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}
