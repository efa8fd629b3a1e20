package answerset

import "strings"

// Choice is one separated part of an answer and its optional comment. The
// comment keeps its leading space, e.g. " [formal]".
type Choice struct {
	Text    string
	Comment string
}

// choicePair is a given choice bound to a correct one. Its diff is computed
// on first use.
type choicePair struct {
	opts    *Options
	given   Choice
	correct Choice
	exact   bool

	done bool
	diff Diff
	g, c prepared
}

func newChoicePair(o *Options, given, correct Choice) *choicePair {
	gk, ck := exactKey(o, given.Text), exactKey(o, correct.Text)
	return &choicePair{
		opts:    o,
		given:   given,
		correct: correct,
		exact:   gk != "" && gk == ck,
	}
}

// exactKey is the text with case folded and, when lenient, junk removed.
func exactKey(o *Options, s string) string {
	s = fold(s, o.ignoreCase)
	if !o.lenient {
		return s
	}
	return strings.Map(func(r rune) rune {
		if _, ok := o.junkRunes[r]; ok {
			return -1
		}
		return r
	}, s)
}

func (p *choicePair) texts() (given, correct string) {
	given, correct = p.given.Text, p.correct.Text
	if p.given.Comment != "" {
		given += p.given.Comment
		correct += p.correct.Comment
	}
	return given, correct
}

func (p *choicePair) result() Diff {
	if !p.done {
		g, c := p.texts()
		p.g = prepareUnits(p.opts, g)
		p.c = prepareUnits(p.opts, c)
		p.diff = DiffUnits(p.opts, p.g.units, p.c.units)
		p.done = true
	}
	return p.diff
}

func (p *choicePair) betterThan(o *choicePair) bool {
	return o == nil || p.result().BetterThan(o.result())
}

// Arranged is one entry of an arrangement. Given is nil for a correct choice
// nobody gave, Correct is nil for a given choice that matched nothing.
type Arranged struct {
	Given   *Choice
	Correct *Choice

	pair *choicePair
}

// Arrange pairs given choices with correct ones. Exact matches are bound
// first, then the best remaining pair is taken repeatedly. Entries come in
// given order, followed by unused correct choices.
func Arrange(o *Options, given, correct []Choice) []Arranged {
	cache := make(map[[2]int]*choicePair)
	pairAt := func(i, j int) *choicePair {
		k := [2]int{i, j}
		p, ok := cache[k]
		if !ok {
			p = newChoicePair(o, given[i], correct[j])
			cache[k] = p
		}
		return p
	}

	assigned := make(map[int]int, len(given))
	used := make(map[int]bool, len(correct))

	for i := range given {
		for j := range correct {
			if !used[j] && pairAt(i, j).exact {
				assigned[i] = j
				used[j] = true
				break
			}
		}
	}

	closest := make(map[int]int, len(given))
	for len(assigned) < len(given) && len(used) < len(correct) {
		bestI := -1
		var best *choicePair
		for i := range given {
			if _, ok := assigned[i]; ok {
				continue
			}
			if j, ok := closest[i]; !ok || used[j] {
				bestJ := -1
				var bp *choicePair
				for j := range correct {
					if used[j] {
						continue
					}
					if p := pairAt(i, j); p.betterThan(bp) {
						bestJ, bp = j, p
					}
				}
				closest[i] = bestJ
			}
			if p := pairAt(i, closest[i]); p.betterThan(best) {
				bestI, best = i, p
			}
		}
		assigned[bestI] = closest[bestI]
		used[closest[bestI]] = true
	}

	out := make([]Arranged, 0, len(given)+len(correct))
	for i := range given {
		if j, ok := assigned[i]; ok {
			p := pairAt(i, j)
			out = append(out, Arranged{Given: &given[i], Correct: &correct[j], pair: p})
			continue
		}
		out = append(out, Arranged{Given: &given[i]})
	}
	for j := range correct {
		if !used[j] {
			out = append(out, Arranged{Correct: &correct[j]})
		}
	}
	return out
}
