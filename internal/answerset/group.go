package answerset

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// placeholderBase carries combining marks that have no base character.
const placeholderBase = "\u00a0"

func isCombining(r rune) bool { return unicode.Is(unicode.M, r) }

// GroupCombining splits s into units. A unit is one rune plus any combining
// marks that follow it, so a diff never separates a base from its accents.
func GroupCombining(s string) []string {
	var (
		parts []string
		cur   strings.Builder
	)
	for _, r := range s {
		if isCombining(r) {
			if cur.Len() == 0 {
				cur.WriteString(placeholderBase)
			}
			cur.WriteRune(r)
			continue
		}
		if cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

// fold applies full Unicode case folding when ignoreCase is set.
func fold(s string, ignoreCase bool) string {
	if !ignoreCase {
		return s
	}
	return cases.Fold().String(s)
}

// prepared is a unit sequence ready for diffing along with what to show for
// each unit. Folding can expand a unit ("ß" -> "ss"); the first folded unit
// displays the original and the rest display nothing.
type prepared struct {
	units   []string
	display []string
}

func prepareUnits(o *Options, s string) prepared {
	orig := GroupCombining(s)
	p := prepared{
		units:   make([]string, 0, len(orig)),
		display: make([]string, 0, len(orig)),
	}
	if !o.ignoreCase {
		p.units = append(p.units, orig...)
		p.display = append(p.display, orig...)
		return p
	}
	caser := cases.Fold()
	for _, u := range orig {
		for k, f := range GroupCombining(caser.String(u)) {
			p.units = append(p.units, f)
			if k == 0 {
				p.display = append(p.display, u)
			} else {
				p.display = append(p.display, "")
			}
		}
	}
	return p
}

func (p prepared) text(from, to int) string {
	return strings.Join(p.display[from:to], "")
}

// hasSuffixUnits reports whether seq[:end] ends with suffix.
func hasSuffixUnits(seq []string, end int, suffix []string) bool {
	if len(suffix) > end {
		return false
	}
	return slices.Equal(seq[end-len(suffix):end], suffix)
}
