package answerset

import (
	"strings"
	"unicode"
)

// CSS classes understood by the review screen.
const (
	classGood   = "typeGood"
	classBad    = "typeBad"
	classMissed = "typeMissed"
	classPass   = "typePass"
)

const arrowHTML = "<br><span id=typearrow>&darr;</span><br>"

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

func escape(s string) string { return escaper.Replace(s) }

func span(class, text string) string {
	return "<span class=" + class + ">" + escape(text) + "</span>"
}

// notCode places already escaped html outside the surrounding <code>.
func notCode(html string) string { return "</code>" + html + "<code>" }

type segment struct {
	class string
	text  string
}

func segmentsHTML(segs []segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(span(s.class, s.text))
	}
	return b.String()
}

// joinMissed folds a whitespace-only good segment lying between two missed
// ones into a single missed segment.
func joinMissed(segs []segment) []segment {
	out := make([]segment, 0, len(segs))
	for _, s := range segs {
		n := len(out)
		if s.class == classMissed && n >= 2 && out[n-1].class == classGood &&
			strings.TrimFunc(out[n-1].text, unicode.IsSpace) == "" && out[n-2].class == classMissed {
			out[n-2].text += out[n-1].text + s.text
			out = out[:n-1]
			continue
		}
		out = append(out, s)
	}
	return out
}

// rendered is the html for one side-by-side entry.
type rendered struct {
	given   string
	correct string
	wrong   bool // a reported error
	minor   bool // a number within tolerance
	score   int
}

func renderPair(p *choicePair) rendered {
	d := p.result()
	gText, cText := p.g.text, p.c.text
	gLen, cLen := len(p.g.units), len(p.c.units)
	var (
		out    rendered
		gs, cs []segment
		gp, cp int
	)
	ranges := d.Ranges()
	if d.Exact() && p.opts.numericEnabled() {
		// annotations are never shown, even when typed verbatim
		ranges = factorSkips(p.c.units)
	}
	for _, r := range ranges {
		if r.Given.Start > gp {
			gs = append(gs, segment{classGood, gText(gp, r.Given.Start)})
		}
		if r.Correct.Start > cp {
			cs = append(cs, segment{classGood, cText(cp, r.Correct.Start)})
		}
		switch r.Kind {
		case Minor:
			out.minor = true
			if r.Given.End > r.Given.Start {
				gs = append(gs, segment{classPass, gText(r.Given.Start, r.Given.End)})
			}
			if r.Correct.End > r.Correct.Start {
				cs = append(cs, segment{classPass, cText(r.Correct.Start, r.Correct.End)})
			}
		case Regular:
			if r.Correct.End > r.Correct.Start {
				cs = append(cs, segment{classMissed, cText(r.Correct.Start, r.Correct.End)})
			}
			if r.Report {
				out.wrong = true
				t := gText(r.Given.Start, r.Given.End)
				if t == "" {
					t = "-"
				}
				gs = append(gs, segment{classBad, t})
			}
		}
		gp, cp = r.Given.End, r.Correct.End
	}
	if gp < gLen {
		gs = append(gs, segment{classGood, gText(gp, gLen)})
	}
	if cp < cLen {
		cs = append(cs, segment{classGood, cText(cp, cLen)})
	}

	out.given = segmentsHTML(gs)
	out.correct = segmentsHTML(joinMissed(cs))
	if p.correct.Comment != "" && p.given.Comment == "" {
		out.correct += notCode(escape(p.correct.Comment))
	}
	out.score = d.Matched()
	if d.Exact() {
		out.score = cLen
	}
	return out
}

// renderedList holds the fragments for all entries of one arrangement.
type renderedList struct {
	given   []string
	correct []string
	wrong   bool
	minor   bool
	score   int
}

func (l renderedList) hasError() bool { return l.wrong || l.minor }

func renderList(o *Options, items []Arranged, givenComment, correctComment string) renderedList {
	var l renderedList
	for _, it := range items {
		switch {
		case it.pair != nil:
			r := renderPair(it.pair)
			l.given = append(l.given, r.given)
			l.correct = append(l.correct, r.correct)
			l.wrong = l.wrong || r.wrong
			l.minor = l.minor || r.minor
			l.score += r.score
		case it.Given == nil && o.numericEnabled():
			// diffed against nothing so factor annotations drop out
			r := renderPair(newChoicePair(o, Choice{}, *it.Correct))
			l.correct = append(l.correct, r.correct)
		case it.Given == nil:
			h := span(classMissed, it.Correct.Text)
			if it.Correct.Comment != "" {
				h += notCode(escape(it.Correct.Comment))
			}
			l.correct = append(l.correct, h)
		default:
			l.wrong = true
			l.given = append(l.given, span(classBad, it.Given.Text+it.Given.Comment))
		}
	}
	if givenComment != "" {
		p := newChoicePair(o,
			Choice{Text: strings.TrimSpace(givenComment)},
			Choice{Text: strings.TrimSpace(correctComment)})
		r := renderPair(p)
		l.given = append(l.given, r.given)
		l.correct = append(l.correct, r.correct)
		l.wrong = l.wrong || r.wrong
		l.minor = l.minor || r.minor
	}
	return l
}
