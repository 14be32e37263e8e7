package domain

import "fmt"

// DecisionKind is the outcome of a duplicate lookup.
type DecisionKind int

const (
	// DecisionInsert means no record exists; a new one is created.
	DecisionInsert DecisionKind = iota

	// DecisionUpdate means an older record exists and is rewritten.
	DecisionUpdate

	// DecisionSkip means an equal or newer record exists.
	DecisionSkip
)

// String returns the decision name.
func (k DecisionKind) String() string {
	switch k {
	case DecisionInsert:
		return "insert"
	case DecisionUpdate:
		return "update"
	case DecisionSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// DuplicateDecision is returned by a duplicate resolver.
// RecordID is only set for DecisionUpdate.
type DuplicateDecision struct {
	Kind     DecisionKind
	RecordID int64
}

// SkipDecision returns a Skip decision.
func SkipDecision() DuplicateDecision {
	return DuplicateDecision{Kind: DecisionSkip}
}

// InsertDecision returns an Insert decision.
func InsertDecision() DuplicateDecision {
	return DuplicateDecision{Kind: DecisionInsert}
}

// UpdateDecision returns an UpdateExisting decision for id.
func UpdateDecision(id int64) DuplicateDecision {
	return DuplicateDecision{Kind: DecisionUpdate, RecordID: id}
}

// DecisionFromCode maps the integer form used by storage lookups:
// negative is Skip, zero is Insert, positive is the id to update.
func DecisionFromCode(code int64) DuplicateDecision {
	switch {
	case code < 0:
		return SkipDecision()
	case code == 0:
		return InsertDecision()
	default:
		return UpdateDecision(code)
	}
}

// Code is the inverse of DecisionFromCode.
func (d DuplicateDecision) Code() int64 {
	switch d.Kind {
	case DecisionSkip:
		return -1
	case DecisionUpdate:
		return d.RecordID
	default:
		return 0
	}
}

func (d DuplicateDecision) String() string {
	if d.Kind == DecisionUpdate {
		return fmt.Sprintf("update(%d)", d.RecordID)
	}
	return d.Kind.String()
}
