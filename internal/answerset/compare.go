// Package answerset compares a typed answer with the expected one and
// renders an annotated html diff for the review screen.
package answerset

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var spaceRun = regexp.MustCompile(` +`)

// Report is the outcome of one comparison.
type Report struct {
	HTML string
	// Wrong is set when at least one reported error was found.
	Wrong bool
	// Minor is set when a number was accepted within tolerance.
	Minor bool
}

// Correct reports whether the answer is shown without the given line.
func (r Report) Correct() bool { return !r.Wrong && !r.Minor }

// Compare grades given against correct and returns the annotated html.
func Compare(o *Options, correct, given string) string {
	return Check(o, correct, given).HTML
}

// Check is Compare with the grading flags kept.
func Check(o *Options, correct, given string) Report {
	s := o.settings

	correct = norm.NFC.String(spaceRun.ReplaceAllString(correct, " "))
	given = norm.NFC.String(spaceRun.ReplaceAllString(given, " "))

	var givenComment, correctComment string
	correct, correctComment = SplitComment(correct, "(", ")", s.AnswerComments)
	if correctComment != "" {
		given, givenComment = SplitComment(given, "(", ")", s.AnswerComments)
	}

	cseq, gseq := runeUnits(correct), runeUnits(given)
	var cranges, granges []Range
	if s.IgnoreSeparatorsInBrackets {
		cranges = FindBracketRanges(cseq, false, false)
		granges = FindBracketRanges(gseq, false, false)
	}

	sep := ""
	for _, r := range s.Separators {
		if HasSeparator(cseq, string(r), cranges) {
			sep = string(r)
			break
		}
	}

	cchoices := splitChoices(o, cseq, sep, cranges)
	gchoices := splitChoices(o, gseq, sep, granges)
	if o.maxChoices > 0 && (len(cchoices) > o.maxChoices || len(gchoices) > o.maxChoices) {
		sep = ""
		cchoices = splitChoices(o, cseq, sep, nil)
		gchoices = splitChoices(o, gseq, sep, nil)
	}

	list := renderList(o, Arrange(o, gchoices, cchoices), givenComment, correctComment)

	// A missing separator in the given answer can make a split comparison
	// look worse than comparing the whole lines.
	if sep != "" && list.hasError() && len(list.given) < len(list.correct) {
		whole := []Arranged{{pair: newChoicePair(o,
			Choice{Text: strings.TrimSpace(given)},
			Choice{Text: strings.TrimSpace(correct)})}}
		wl := renderList(o, whole, givenComment, correctComment)

		total := 0
		for _, c := range cchoices {
			total += len(prepareUnits(o, c.Text).units)
		}
		penalty := len(prepareUnits(o, strings.TrimSpace(correct)).units) - total
		if penalty < 0 {
			penalty = -penalty
		}
		if wl.score-penalty > list.score {
			list = wl
		}
	}

	join := sep
	if join == "" {
		join = ","
		if s.Separators != "" {
			join = string([]rune(s.Separators)[0])
		}
	}
	sepHTML := notCode(escape(join) + " ")

	var b strings.Builder
	b.WriteString("<div id=typeans><code>")
	if list.hasError() {
		b.WriteString(strings.Join(list.given, sepHTML))
		b.WriteString(arrowHTML)
	}
	b.WriteString(strings.Join(list.correct, sepHTML))
	if correctComment != "" && givenComment == "" {
		b.WriteString(notCode(escape(correctComment)))
	}
	b.WriteString("</code></div>")

	return Report{
		HTML:  strings.ReplaceAll(b.String(), "</code><code>", ""),
		Wrong: list.wrong,
		Minor: list.minor,
	}
}

// runeUnits splits s into single-rune strings, the granularity used for
// choice splitting and comment extraction.
func runeUnits(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func splitChoices(o *Options, seq []string, sep string, ranges []Range) []Choice {
	parts := [][]string{seq}
	if sep != "" {
		parts = SplitExceptForRanges(seq, sep, ranges)
	}
	var out []Choice
	for _, p := range parts {
		text := strings.TrimSpace(strings.Join(p, ""))
		if text == "" {
			continue
		}
		text, comment := SplitComment(text, "[", "]", o.settings.ChoiceComments)
		out = append(out, Choice{Text: text, Comment: comment})
	}
	return out
}

// SplitComment separates a trailing comment delimited by start and end from
// s. The comment must follow a space, leave some text before it, and that
// text must not contain either delimiter. Otherwise s comes back unchanged.
// The returned comment includes its leading space.
func SplitComment(s, start, end string, enabled bool) (text, comment string) {
	if !enabled {
		return s, ""
	}
	rs := []rune(s)
	n := len(rs)
	if n < 3 || string(rs[n-1]) != end {
		return s, ""
	}
	depth := 1
	for i := 2; i < n; i++ {
		switch string(rs[n-i]) {
		case start:
			depth--
			if depth != 0 {
				continue
			}
			stripped := strings.TrimSpace(string(rs[:n-i]))
			if stripped == "" || strings.Contains(stripped, start) || strings.Contains(stripped, end) {
				return s, ""
			}
			if rs[n-i-1] != ' ' {
				return s, ""
			}
			return stripped, " " + string(rs[n-i:])
		case end:
			depth++
		}
	}
	return s, ""
}
