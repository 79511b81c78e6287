// Package threedigit implements the three-digit lottery variant: three
// parallel draws A/B/C over "000"-"999", 10 points per unit, seven play
// types with fixed multipliers.
package threedigit

import (
	"numbers-lottery/internal/model"
)

// Play type payout multipliers.
const (
	MultiplierStraight int64 = 900
	MultiplierBox3Way  int64 = 300
	MultiplierBox6Way  int64 = 150
	MultiplierPair     int64 = 90
	MultiplierAnyPair  int64 = 30 // per matching pair position
)

// Wildcard is the placeholder digit in pair patterns.
const Wildcard = 'X'

// Multiplier returns the base payout multiplier for a play type.
func Multiplier(pt model.PlayType) int64 {
	switch pt {
	case model.PlayStraight:
		return MultiplierStraight
	case model.PlayBox3Way:
		return MultiplierBox3Way
	case model.PlayBox6Way:
		return MultiplierBox6Way
	case model.PlayFrontPair, model.PlayBackPair, model.PlaySplitPair:
		return MultiplierPair
	case model.PlayAnyPair:
		return MultiplierAnyPair
	default:
		return 0
	}
}

// MatchMultiplier returns the effective multiplier for a bet pattern against
// a drawn outcome: 0 for a loss, the play type's multiplier for a win, and
// for any-pair the multiplier times the matching pair-position count.
func MatchMultiplier(pattern string, pt model.PlayType, outcome string) int64 {
	if len(outcome) != 3 || !allDigits(outcome) {
		return 0
	}
	switch pt {
	case model.PlayStraight:
		if pattern == outcome {
			return MultiplierStraight
		}
	case model.PlayBox3Way:
		if sameDigitMultiset(pattern, outcome) {
			return MultiplierBox3Way
		}
	case model.PlayBox6Way:
		if sameDigitMultiset(pattern, outcome) {
			return MultiplierBox6Way
		}
	case model.PlayFrontPair:
		if pattern[0] == outcome[0] && pattern[1] == outcome[1] {
			return MultiplierPair
		}
	case model.PlayBackPair:
		if pattern[1] == outcome[1] && pattern[2] == outcome[2] {
			return MultiplierPair
		}
	case model.PlaySplitPair:
		if pattern[0] == outcome[0] && pattern[2] == outcome[2] {
			return MultiplierPair
		}
	case model.PlayAnyPair:
		if n := AnyPairCount(pattern, outcome); n > 0 {
			return MultiplierAnyPair * int64(n)
		}
	}
	return 0
}

// AnyPairCount returns how many of the outcome's three pair positions
// (front 0-1, back 1-2, split 0-2) contain the pattern's two concrete
// digits in either order. Range 0-3.
func AnyPairCount(pattern, outcome string) int {
	d1, d2, ok := pairDigits(pattern)
	if !ok {
		return 0
	}
	count := 0
	positions := [3][2]int{{0, 1}, {1, 2}, {0, 2}}
	for _, p := range positions {
		a, b := outcome[p[0]], outcome[p[1]]
		if (a == d1 && b == d2) || (a == d2 && b == d1) {
			count++
		}
	}
	return count
}

// pairDigits extracts the two concrete digits of a one-wildcard pattern.
func pairDigits(pattern string) (byte, byte, bool) {
	if len(pattern) != 3 {
		return 0, 0, false
	}
	var digits []byte
	wildcards := 0
	for i := 0; i < 3; i++ {
		c := pattern[i]
		switch {
		case c >= '0' && c <= '9':
			digits = append(digits, c)
		case c == Wildcard:
			wildcards++
		default:
			return 0, 0, false
		}
	}
	if wildcards != 1 || len(digits) != 2 {
		return 0, 0, false
	}
	return digits[0], digits[1], true
}

// sameDigitMultiset reports whether two 3-digit strings are anagrams.
func sameDigitMultiset(a, b string) bool {
	if len(a) != 3 || len(b) != 3 {
		return false
	}
	var counts [10]int
	for i := 0; i < 3; i++ {
		if a[i] < '0' || a[i] > '9' || b[i] < '0' || b[i] > '9' {
			return false
		}
		counts[a[i]-'0']++
		counts[b[i]-'0']--
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return true
}

// distinctDigits returns the number of distinct digits in a 3-digit string.
func distinctDigits(s string) int {
	seen := map[byte]struct{}{}
	for i := 0; i < len(s); i++ {
		seen[s[i]] = struct{}{}
	}
	return len(seen)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// permutations returns the distinct orderings of a 3-digit string.
func permutations(s string) []string {
	if len(s) != 3 {
		return nil
	}
	seen := map[string]struct{}{}
	order := [][3]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}
	out := make([]string, 0, 6)
	for _, o := range order {
		p := string([]byte{s[o[0]], s[o[1]], s[o[2]]})
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
