package quiz

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// The generator is asked for {"questions": [...]} but real model output
// drifts: stray quotes in keys, odd casing, misspellings ("qusetions").
// Validate is deliberately lossy-tolerant: it normalizes what it can,
// drops entries that miss the minimum structural bar, and fails only when
// nothing usable remains.

const questionsKey = "questions"

// maxKeyDistance is the edit-distance budget for the fuzzy scan that
// locates the question list under a misspelled key.
const maxKeyDistance = 3

// Validate normalizes raw generator output into a QuestionSet.
// payload is the decoded generic JSON value (map or list). Entries that
// fail the minimum bar (non-empty prompt, >=2 options) are dropped; the
// only hard failure is zero surviving questions.
func Validate(payload any) (QuestionSet, error) {
	entries, err := locateQuestions(payload)
	if err != nil {
		return nil, err
	}

	var qs QuestionSet
	for _, e := range entries {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		spec, ok := parseQuestion(normalizeKeys(m))
		if !ok {
			continue
		}
		qs = append(qs, spec)
	}
	if len(qs) == 0 {
		return nil, &ValidationError{Reason: "no usable questions"}
	}
	return qs, nil
}

// locateQuestions finds the question list. Canonical key first, then a
// fuzzy scan over normalized keys for a sequence value whose key is close
// enough to "questions". A bare top-level list is accepted as-is.
func locateQuestions(payload any) ([]any, error) {
	switch v := payload.(type) {
	case []any:
		return v, nil
	case map[string]any:
		m := normalizeKeys(v)
		if list, ok := m[questionsKey].([]any); ok {
			return list, nil
		}
		// Deterministic fallback order: sorted keys.
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			list, ok := m[k].([]any)
			if !ok {
				continue
			}
			if strings.Contains(k, "question") || levenshtein(k, questionsKey) <= maxKeyDistance {
				return list, nil
			}
		}
		return nil, &ValidationError{Reason: "no question list in payload"}
	default:
		return nil, &ValidationError{Reason: "payload is not an object or list"}
	}
}

// parseQuestion coerces one raw entry into a QuestionSpec.
// Returns ok=false when the entry misses the minimum structural bar.
func parseQuestion(m map[string]any) (QuestionSpec, bool) {
	prompt, _ := firstValue(m, "question", "prompt", "text").(string)
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return QuestionSpec{}, false
	}

	var spec QuestionSpec
	spec.Prompt = prompt

	switch opts := firstValue(m, "options", "choices", "answers").(type) {
	case []any:
		if len(opts) < 2 {
			return QuestionSpec{}, false
		}
		// Exactly four options: truncate the excess, right-pad if short.
		for i := 0; i < 4 && i < len(opts); i++ {
			spec.Options[i] = coerceString(opts[i])
		}
		spec.CorrectIndex = coerceIndex(firstValue(m, "answer_index", "correct_index", "answer"))
	case map[string]any:
		filled, ok := roleTaggedOptions(opts)
		if !ok {
			return QuestionSpec{}, false
		}
		spec.Options = filled
		spec.CorrectIndex = 0 // correct role always lands at slot 0
	default:
		return QuestionSpec{}, false
	}

	spec.Explanation, _ = firstValue(m, "explanation", "rationale").(string)
	return spec, true
}

// roleSlots maps canonicalized role names to their slot in Options.
// The correct-tagged option always occupies slot 0.
var roleSlots = map[string]int{
	"correct":     0,
	"semicorrect": 1,
	"incorrect1":  2,
	"incorrect2":  3,
}

// roleTaggedOptions fills the four option slots from a role-keyed map
// ({"correct": ..., "semi-correct": ..., "incorrect1": ..., "incorrect2": ...}).
// Unknown roles fill leftover slots in sorted-key order.
func roleTaggedOptions(m map[string]any) ([4]string, bool) {
	var out [4]string
	if len(m) < 2 {
		return out, false
	}
	taken := [4]bool{}
	var extra []string
	for k := range m {
		if slot, ok := roleSlots[canonicalRole(k)]; ok && !taken[slot] {
			out[slot] = coerceString(m[k])
			taken[slot] = true
		} else {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		for slot := 0; slot < 4; slot++ {
			if !taken[slot] {
				out[slot] = coerceString(m[k])
				taken[slot] = true
				break
			}
		}
	}
	return out, true
}

// canonicalRole lowercases and strips everything but letters and digits,
// so "Semi-Correct" and "semi_correct" both become "semicorrect".
func canonicalRole(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// normalizeKeys trims whitespace and stray quote characters from every key
// and lowercases them. Values are untouched.
func normalizeKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		nk := strings.TrimSpace(k)
		nk = strings.Trim(nk, `"'`)
		nk = strings.ToLower(strings.TrimSpace(nk))
		out[nk] = v
	}
	return out
}

func firstValue(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// coerceIndex parses an answer index, defaulting to 0 on any failure or
// out-of-range value.
func coerceIndex(v any) int {
	var idx int
	switch t := v.(type) {
	case float64:
		idx = int(t)
	case int:
		idx = t
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		idx = n
	default:
		return 0
	}
	if idx < 0 || idx > 3 {
		return 0
	}
	return idx
}

// levenshtein computes edit distance (insertion, deletion, substitution cost 1).
func levenshtein(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	n, m := len(ar), len(br)
	if n == 0 {
		return m
	}
	if m == 0 {
		return n
	}
	dp := make([]int, m+1)
	for j := 0; j <= m; j++ {
		dp[j] = j
	}
	for i := 1; i <= n; i++ {
		prev := dp[0]
		dp[0] = i
		for j := 1; j <= m; j++ {
			tmp := dp[j]
			cost := 0
			if ar[i-1] != br[j-1] {
				cost = 1
			}
			ins := dp[j] + 1
			del := dp[j-1] + 1
			sub := prev + cost
			dp[j] = min3(ins, del, sub)
			prev = tmp
		}
	}
	return dp[m]
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
