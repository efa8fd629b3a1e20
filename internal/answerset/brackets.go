package answerset

// Range is a half-open index interval [Start, End).
type Range struct {
	Start, End int
}

func (r Range) contains(i int) bool { return r.Start <= i && i < r.End }

func inAnyRange(i int, ranges []Range) bool {
	for _, r := range ranges {
		if r.contains(i) {
			return true
		}
	}
	return false
}

var closers = map[string]string{"(": ")", "[": "]"}

// FindBracketRanges returns the index ranges of matched "()" and "[]"
// pairs, outermost only unless nested is set. A closer of the wrong type
// aborts the scan. Unless lenient, so does a closer with nothing open or an
// opener left unclosed.
func FindBracketRanges(seq []string, lenient, nested bool) []Range {
	type open struct {
		start  int
		closer string
	}
	var (
		found []Range
		stack []open
	)
	for i, u := range seq {
		if c, ok := closers[u]; ok {
			stack = append(stack, open{start: i, closer: c})
			continue
		}
		if u != ")" && u != "]" {
			continue
		}
		if len(stack) == 0 {
			if !lenient {
				return nil
			}
			continue
		}
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.closer != u {
			return nil
		}
		if nested || len(stack) == 0 {
			found = append(found, Range{Start: top.start, End: i + 1})
		}
	}
	if len(stack) > 0 && !lenient {
		return nil
	}
	return found
}

// separatorIndices returns the positions of sep outside ranges.
func separatorIndices(seq []string, sep string, ranges []Range) []int {
	var idx []int
	for i, u := range seq {
		if u == sep && !inAnyRange(i, ranges) {
			idx = append(idx, i)
		}
	}
	return idx
}

// HasSeparator reports whether sep occurs in seq outside ranges.
func HasSeparator(seq []string, sep string, ranges []Range) bool {
	return len(separatorIndices(seq, sep, ranges)) > 0
}

// SplitExceptForRanges splits seq on each sep not covered by ranges. With no
// such separator the whole sequence comes back as a single part.
func SplitExceptForRanges(seq []string, sep string, ranges []Range) [][]string {
	idx := separatorIndices(seq, sep, ranges)
	if len(idx) == 0 {
		return [][]string{seq}
	}
	parts := make([][]string, 0, len(idx)+1)
	last := 0
	for _, i := range idx {
		parts = append(parts, seq[last:i])
		last = i + 1
	}
	return append(parts, seq[last:])
}
