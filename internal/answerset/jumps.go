package answerset

import (
	"slices"
	"unicode"
	"unicode/utf8"
)

const none = -1

// isWordUnit reports whether u can be part of an alternative: a letter or
// number (with any marks) or one of ' - _.
func isWordUnit(u string) bool {
	switch u {
	case "'", "-", "_":
		return true
	}
	r, size := utf8.DecodeRuneInString(u)
	if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
		return false
	}
	for _, m := range u[size:] {
		if !isCombining(m) {
			return false
		}
	}
	return true
}

func isBracketUnit(u string) bool {
	return u == "(" || u == ")" || u == "[" || u == "]"
}

// FindAlternativeJumps finds the parts of correct that may be left out
// because they are branches of a word1/word2/... alternative. The result
// maps an end index to the start indices it may jump back to.
func FindAlternativeJumps(correct []string, bracketRanges []Range) map[int][]int {
	if !slices.Contains(correct, "/") {
		return nil
	}

	// a bracket group closing at index end-1 can be carried through a word
	bracketJumps := make(map[int]int, len(bracketRanges))
	bracketStarts := make(map[int]bool, len(bracketRanges))
	for _, r := range bracketRanges {
		bracketJumps[r.End-1] = r.Start
		bracketStarts[r.Start] = true
	}

	jumps := map[int][]int{}
	addJump := func(end, start int) {
		if !slices.Contains(jumps[end], start) {
			jumps[end] = append(jumps[end], start)
		}
	}

	pass := func(spacesInBrackets bool) (slashInBrackets bool) {
		stop := func(i int) bool {
			u := correct[i]
			if isWordUnit(u) {
				return false
			}
			return !spacesInBrackets || u == "/" || isBracketUnit(u) || !inAnyRange(i, bracketRanges)
		}

		// firstAlpha[i]: start of the word ending at i.
		// firstSlash[i]: slash in front of the alternative ending at i.
		firstAlpha := make([]int, len(correct))
		firstSlash := make([]int, len(correct))
		for i := range correct {
			firstAlpha[i], firstSlash[i] = none, none
		}
		prev := func(s []int, i int) int {
			if i == 0 {
				return none
			}
			return s[i-1]
		}

		for i, u := range correct {
			if u == "/" && i > 0 && firstAlpha[i-1] != none {
				firstSlash[i] = i
				slashInBrackets = slashInBrackets || inAnyRange(i, bracketRanges)
				continue
			}

			if jump, ok := bracketJumps[i]; ok {
				if jump > 0 {
					firstAlpha[i] = firstAlpha[jump-1]
					firstSlash[i] = firstSlash[jump-1]
					firstAlpha[jump-1] = none
					firstSlash[jump-1] = none
				}
				if firstAlpha[i] == none {
					firstAlpha[i] = jump
				}
			}

			if stop(i) {
				continue
			}

			prevAlpha, prevSlash := prev(firstAlpha, i), prev(firstSlash, i)
			if prevAlpha == none {
				firstAlpha[i] = i
			} else {
				firstAlpha[i-1] = none
				firstAlpha[i] = prevAlpha
			}
			if prevSlash != none {
				firstSlash[i-1] = none
				firstSlash[i] = prevSlash
			}
		}

		for i := 0; i <= len(correct); i++ {
			atEnd := i == len(correct)

			if ps := prev(firstSlash, i); ps != none && ps != i-1 && (atEnd || stop(i)) {
				addJump(i, ps)
			}

			if !atEnd && correct[i] == "/" && i < len(correct)-1 && (bracketStarts[i+1] || !stop(i+1)) {
				if pa := prev(firstAlpha, i); pa != none {
					addJump(i+1, pa)
				}
			}
		}
		return slashInBrackets
	}

	if pass(false) && len(bracketRanges) > 0 {
		pass(true)
	}
	return jumps
}

// diffJumps combines alternative jumps with one jump across every bracket
// group, sorted and de-duplicated per end index.
func diffJumps(correct []string) map[int][]int {
	brackets := FindBracketRanges(correct, true, true)
	jumps := FindAlternativeJumps(correct, brackets)
	if jumps == nil {
		jumps = map[int][]int{}
	}
	for _, r := range brackets {
		jumps[r.End] = append(jumps[r.End], r.Start)
	}
	for end, starts := range jumps {
		slices.Sort(starts)
		jumps[end] = slices.Compact(starts)
	}
	return jumps
}
