// Package extract pulls raw job fields out of a rendered detail page.
//
// Each field is resolved by an ordered list of strategies; the first one
// that produces a value wins and a failing field never blocks the others.
package extract

// Strategy extracts a value from in, reporting false when it found nothing.
type Strategy[In, Out any] func(in In) (Out, bool)

// First runs strategies in order and returns the first successful value.
func First[In, Out any](in In, strategies ...Strategy[In, Out]) (Out, bool) {
	for _, s := range strategies {
		if v, ok := s(in); ok {
			return v, true
		}
	}
	var zero Out
	return zero, false
}
