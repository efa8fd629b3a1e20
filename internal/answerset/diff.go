package answerset

import (
	"math"
	"slices"
	"sort"
)

// Kind tags an ErrorRange.
type Kind uint8

const (
	// Regular is a plain mismatch, or a lenient skip when not reported.
	Regular Kind = iota
	// Minor is a number within the accepted tolerance.
	Minor
	// Skip is a "?factor" annotation the learner never has to type.
	Skip
)

func (k Kind) String() string {
	switch k {
	case Minor:
		return "minor"
	case Skip:
		return "skip"
	default:
		return "regular"
	}
}

// ErrorRange pairs a span of the correct answer with a span of the given one.
type ErrorRange struct {
	Correct Range
	Given   Range
	Report  bool
	Kind    Kind
}

const (
	exactMatched = math.MaxInt32
	noError      = math.MaxInt
)

// rangeNode is a persistent list of closed ranges, newest first. Diffs in
// the DP table share their history through it.
type rangeNode struct {
	r    ErrorRange
	prev *rangeNode
}

// Diff is one alignment of a given answer against a correct one. It is an
// immutable value; the add methods return extended copies.
type Diff struct {
	matched  int
	reported int
	closed   *rangeNode
	nclosed  int
	open     ErrorRange
	hasOpen  bool
	prefix   int // offset of the first error, noError if none
	exact    bool
}

var exactDiff = Diff{matched: exactMatched, prefix: noError, exact: true}

func emptyDiff() Diff { return Diff{prefix: noError} }

// Exact reports whether the two sides were identical unit for unit.
func (d Diff) Exact() bool { return d.exact }

// Matched is the number of matched units. Exact diffs report a sentinel
// larger than any real count.
func (d Diff) Matched() int { return d.matched }

// ReportedErrors counts ranges the learner should be told about.
func (d Diff) ReportedErrors() int {
	if d.hasOpen && d.open.Report {
		return d.reported + 1
	}
	return d.reported
}

func (d Diff) rangeCount() int {
	if d.hasOpen {
		return d.nclosed + 1
	}
	return d.nclosed
}

// Ranges returns the error ranges in order of their correct-span start.
func (d Diff) Ranges() []ErrorRange {
	out := make([]ErrorRange, 0, d.rangeCount())
	if d.hasOpen {
		out = append(out, d.open)
	}
	for n := d.closed; n != nil; n = n.prev {
		out = append(out, n.r)
	}
	slices.Reverse(out)
	return out
}

func (d Diff) addMatched(n int) Diff { return d.replaceOpen(nil, n) }

// addError extends the open range when e continues it with the same kind,
// otherwise closes it and opens e.
func (d Diff) addError(e ErrorRange, matches int) Diff {
	if d.hasOpen && d.open.Kind == e.Kind &&
		d.open.Correct.End == e.Correct.Start && d.open.Given.End == e.Given.Start {
		d.open = ErrorRange{
			Correct: Range{Start: d.open.Correct.Start, End: e.Correct.End},
			Given:   Range{Start: d.open.Given.Start, End: e.Given.End},
			Report:  d.open.Report || e.Report,
			Kind:    e.Kind,
		}
		d.matched += matches
		return d
	}
	return d.replaceOpen(&e, matches)
}

func (d Diff) replaceOpen(e *ErrorRange, matches int) Diff {
	if d.hasOpen {
		if d.open.Report {
			d.reported++
		}
		d.closed = &rangeNode{r: d.open, prev: d.closed}
		d.nclosed++
	}
	d.open, d.hasOpen = ErrorRange{}, false
	if e != nil {
		if d.prefix == noError {
			d.prefix = min(e.Correct.Start, e.Given.Start)
		}
		d.open, d.hasOpen = *e, true
	}
	d.matched += matches
	return d
}

func (d Diff) finish() Diff { return d.replaceOpen(nil, 0) }

// BetterThan is the strict ordering used for every tie-break: more matches,
// fewer reported errors, fewer ranges, an open range over none, an open
// reported range over an open silent one, then the later first error.
func (d Diff) BetterThan(o Diff) bool {
	if d.matched != o.matched {
		return d.matched > o.matched
	}
	if a, b := d.ReportedErrors(), o.ReportedErrors(); a != b {
		return a < b
	}
	if a, b := d.rangeCount(), o.rangeCount(); a != b {
		return a < b
	}
	if d.hasOpen != o.hasOpen {
		return d.hasOpen
	}
	if d.hasOpen && d.open.Report != o.open.Report {
		return d.open.Report
	}
	return d.prefix > o.prefix
}

// candidate keeps the first best Diff offered to it.
type candidate struct {
	best Diff
	ok   bool
}

func (c *candidate) offer(d Diff) {
	if !c.ok || d.BetterThan(c.best) {
		c.best, c.ok = d, true
	}
}

// DiffUnits aligns given against correct and returns the best alignment.
// Both sides must already be grouped and folded the same way.
func DiffUnits(o *Options, given, correct []string) Diff {
	if slices.Equal(given, correct) {
		return exactDiff
	}
	// nothing given needs no alignment, whatever the length
	if o.maxUnits > 0 && len(given) > 0 && (len(given) > o.maxUnits || len(correct) > o.maxUnits) {
		return coarseDiff(given, correct)
	}

	var cnum, gnum map[int]NumericRange
	if o.numericEnabled() {
		cnum = numericRangesByEnd(correct, true)
		gnum = numericRangesByEnd(given, false)
	}
	skips := map[int]NumericRange{}
	for _, r := range cnum {
		if r.HasFactor && r.End != r.DigitEnd {
			skips[r.End] = r
		}
	}

	if len(given) == 0 {
		return diffEmptyGiven(correct, skips)
	}

	var jumps map[int][]int
	if o.lenient {
		jumps = diffJumps(correct)
	}

	// rows reached back to: one for plain edits, more for equivalents and numbers
	window := 1
	for _, r := range gnum {
		window = max(window, r.Width())
	}
	for _, group := range o.equivalences {
		for _, a := range group {
			window = max(window, len(a))
		}
	}
	window++

	rows := make([][]Diff, window)
	for i := range rows {
		rows[i] = make([]Diff, len(correct)+1)
	}
	row := func(g int) []Diff { return rows[g%window] }

	for g := 0; g <= len(given); g++ {
		cur := row(g)
		for c := 0; c <= len(correct); c++ {
			if g == 0 && c == 0 {
				cur[0] = emptyDiff()
				continue
			}
			var cand candidate

			if g > 0 && c > 0 && given[g-1] == correct[c-1] {
				cand.offer(row(g - 1)[c-1].addMatched(1))
			}

			if c > 0 {
				report := !o.lenient || !o.isJunk(correct[c-1])
				cand.offer(cur[c-1].addError(ErrorRange{
					Correct: Range{c - 1, c}, Given: Range{g, g}, Report: report,
				}, 0))

				if r, ok := skips[c]; ok {
					cand.offer(cur[r.DigitEnd].addError(ErrorRange{
						Correct: Range{r.DigitEnd, c}, Given: Range{g, g}, Kind: Skip,
					}, c-r.DigitEnd))
				}

				for _, j := range jumps[c] {
					cand.offer(cur[j].addError(ErrorRange{
						Correct: Range{j, c}, Given: Range{g, g},
					}, 0))
				}
			}

			if g > 0 {
				cand.offer(row(g - 1)[c].addError(ErrorRange{
					Correct: Range{c, c}, Given: Range{g - 1, g}, Report: true,
				}, 0))
			}

			for _, group := range o.equivalences {
				for _, a := range group {
					if !hasSuffixUnits(given, g, a) {
						continue
					}
					for _, b := range group {
						if slices.Equal(a, b) || !hasSuffixUnits(correct, c, b) {
							continue
						}
						cand.offer(row(g - len(a))[c-len(b)].addMatched(min(len(a), len(b))))
					}
				}
			}

			gr, gok := gnum[g]
			cr, cok := cnum[c]
			if gok && cok {
				from := row(gr.Start)[cr.Start]
				w := min(gr.Width(), cr.Width())
				numErr := ErrorRange{
					Correct: Range{cr.Start, c}, Given: Range{gr.Start, g},
				}
				switch {
				case gr.Value.Cmp(cr.Value) == 0:
					cand.offer(from.addMatched(w + 1))
				case cr.Accepts(gr, o.settings.NumericFactor):
					numErr.Kind = Minor
					cand.offer(from.addError(numErr, w))
				default:
					numErr.Report = true
					cand.offer(from.addError(numErr, w))
				}
			}

			cur[c] = cand.best
		}
	}
	return row(len(given))[len(correct)].finish()
}

// diffEmptyGiven marks all of correct as silently missing, except factor
// annotations which count as matched.
func diffEmptyGiven(correct []string, skips map[int]NumericRange) Diff {
	ordered := make([]NumericRange, 0, len(skips))
	for _, r := range skips {
		ordered = append(ordered, r)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].DigitEnd < ordered[j].DigitEnd })

	d := emptyDiff()
	pos := 0
	for _, r := range ordered {
		if r.DigitEnd > pos {
			d = d.addError(ErrorRange{Correct: Range{pos, r.DigitEnd}}, 0)
		}
		d = d.addError(ErrorRange{Correct: Range{r.DigitEnd, r.End}, Kind: Skip}, r.End-r.DigitEnd)
		pos = r.End
	}
	if pos < len(correct) {
		d = d.addError(ErrorRange{Correct: Range{pos, len(correct)}}, 0)
	}
	return d.finish()
}

// factorSkips returns the "?factor" annotations of correct as Skip ranges,
// in order.
func factorSkips(correct []string) []ErrorRange {
	var out []ErrorRange
	for _, r := range FindNumericRanges(correct, true) {
		if r.HasFactor && r.End != r.DigitEnd {
			out = append(out, ErrorRange{Correct: Range{r.DigitEnd, r.End}, Kind: Skip})
		}
	}
	return out
}

// coarseDiff is used for inputs too long to align: everything given is
// wrong and everything correct is missing.
func coarseDiff(given, correct []string) Diff {
	return emptyDiff().addError(ErrorRange{
		Correct: Range{0, len(correct)},
		Given:   Range{0, len(given)},
		Report:  len(given) > 0,
	}, 0).finish()
}
