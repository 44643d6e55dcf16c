package tracking

import "fmt"

// OutcomeKind tags how a step finished.
type OutcomeKind int

const (
	// KindMiss means the expected value was not present. This is the zero value.
	KindMiss OutcomeKind = iota
	KindResolved
	// KindFailed means the step could not run, e.g. navigation timed out.
	KindFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case KindResolved:
		return "resolved"
	case KindFailed:
		return "failed"
	default:
		return "miss"
	}
}

// Outcome is the result of one engine step: a value, or the reason there
// is none. The zero Outcome is an unexplained miss.
type Outcome[T any] struct {
	kind   OutcomeKind
	value  T
	reason string
}

// Resolved wraps a found value.
func Resolved[T any](v T) Outcome[T] {
	return Outcome[T]{kind: KindResolved, value: v}
}

// Missed records that the value was absent.
func Missed[T any](format string, args ...any) Outcome[T] {
	return Outcome[T]{kind: KindMiss, reason: fmt.Sprintf(format, args...)}
}

// Failed records that the step itself failed.
func Failed[T any](err error) Outcome[T] {
	return Outcome[T]{kind: KindFailed, reason: err.Error()}
}

func (o Outcome[T]) Kind() OutcomeKind { return o.kind }

func (o Outcome[T]) IsResolved() bool { return o.kind == KindResolved }

// Value returns the value and whether it was resolved.
func (o Outcome[T]) Value() (T, bool) {
	return o.value, o.kind == KindResolved
}

// Reason explains a miss or failure; empty when resolved.
func (o Outcome[T]) Reason() string { return o.reason }

func (o Outcome[T]) String() string {
	if o.kind == KindResolved {
		return fmt.Sprintf("resolved(%v)", o.value)
	}
	return fmt.Sprintf("%s(%s)", o.kind, o.reason)
}
