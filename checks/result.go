package checks

import (
	"github.com/pkg/errors"
)

// Result is the outcome of a check.
type Result int

const (
	// Indeterminate means an error prevented a definitive answer.
	Indeterminate Result = iota
	// Pass means the record meets the criterion.
	Pass
	// Fail means the check completed and the record does not meet the
	// criterion.
	Fail
)

func (r Result) String() string {
	switch r {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	default:
		return "indeterminate"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Result) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Result) UnmarshalText(text []byte) error {
	switch string(text) {
	case "pass":
		*r = Pass
	case "fail":
		*r = Fail
	case "indeterminate":
		*r = Indeterminate
	default:
		return errors.Errorf("unknown result %q", text)
	}
	return nil
}
