package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the full trace to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  #%d %s %s\n", event.Seq, event.Reason, event.Subject)
		}
	}
	return buf.String()
}

// assertTraceContains checks that a change with the reason was recorded
// on the target.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Reason == assertion.Reason && event.Subject == assertion.Target {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("%s %s", assertion.Reason, assertion.Target),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the "reason label" events appear in order.
// Events don't need to be consecutive.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	pos := 0
	for _, want := range assertion.Events {
		reason, subject, ok := strings.Cut(strings.TrimSpace(want), " ")
		if !ok {
			return fmt.Errorf("trace_order event %q: want \"reason label\"", want)
		}
		subject = strings.TrimSpace(subject)

		found := false
		for pos < len(trace) {
			event := trace[pos]
			pos++
			if event.Reason == reason && event.Subject == subject {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("events in order: %v", assertion.Events),
				Actual:   fmt.Sprintf("%q missing or out of order", want),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that the reason was recorded exactly Count times,
// on Target when it is set.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Reason != assertion.Reason {
			continue
		}
		if assertion.Target != "" && event.Subject != assertion.Target {
			continue
		}
		count++
	}

	if count != assertion.Count {
		what := assertion.Reason
		if assertion.Target != "" {
			what += " " + assertion.Target
		}
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, what),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState checks a folder's children names, in order.
func assertFinalState(state map[string][]string, assertion Assertion) error {
	names, ok := state[assertion.Folder]
	if !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("folder %s attached", assertion.Folder),
			Actual:   "not attached",
		}
	}
	if !slices.Equal(names, assertion.Names) && (len(names) != 0 || len(assertion.Names) != 0) {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s children %q", assertion.Folder, assertion.Names),
			Actual:   fmt.Sprintf("%q", names),
		}
	}
	return nil
}

// assertDelivered checks how many flow changes a subscriber received for a
// folder.
func assertDelivered(delivered map[string]int, assertion Assertion) error {
	if got := delivered[assertion.Folder]; got != assertion.Count {
		return &AssertionError{
			Type:     AssertDelivered,
			Expected: fmt.Sprintf("%d change(s) delivered for %s", assertion.Count, assertion.Folder),
			Actual:   fmt.Sprintf("%d", got),
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			err = assertFinalState(result.State, assertion)
		case AssertDelivered:
			err = assertDelivered(result.Delivered, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
