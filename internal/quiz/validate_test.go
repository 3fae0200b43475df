package quiz

import (
	"encoding/json"
	"errors"
	"testing"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("test payload does not parse: %v", err)
	}
	return v
}

func TestValidateRoleTaggedOptions(t *testing.T) {
	payload := decode(t, `{
		"questions": [{
			"question": "What is the capital of France?",
			"options": {
				"correct": "Paris",
				"semi-correct": "Lyon",
				"incorrect1": "Berlin",
				"incorrect2": "Madrid"
			},
			"explanation": "Paris has been the capital since 987."
		}]
	}`)
	qs, err := Validate(payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(qs) != 1 {
		t.Fatalf("got %d questions, want 1", len(qs))
	}
	q := qs[0]
	if q.CorrectIndex != 0 || q.Options[0] != "Paris" {
		t.Errorf("correct option not at slot 0: idx=%d options=%v", q.CorrectIndex, q.Options)
	}
	if q.Options[1] != "Lyon" || q.Options[2] != "Berlin" || q.Options[3] != "Madrid" {
		t.Errorf("role slots misassigned: %v", q.Options)
	}
	if q.Explanation == "" {
		t.Error("explanation dropped")
	}
}

func TestValidateListOptionsWithAnswerIndex(t *testing.T) {
	payload := decode(t, `{
		"questions": [{
			"question": "2+2?",
			"options": ["3", "4", "5", "22"],
			"answer_index": 1
		}]
	}`)
	qs, err := Validate(payload)
	if err != nil {
		t.Fatal(err)
	}
	if qs[0].CorrectIndex != 1 || qs[0].Options[1] != "4" {
		t.Errorf("got idx=%d options=%v", qs[0].CorrectIndex, qs[0].Options)
	}
}

func TestValidateMisspelledQuestionsKey(t *testing.T) {
	payload := decode(t, `{
		"qusetions": [{
			"question": "Only question",
			"options": ["a", "b", "c", "d"],
			"answer_index": 2
		}]
	}`)
	qs, err := Validate(payload)
	if err != nil {
		t.Fatalf("misspelled key not recovered: %v", err)
	}
	if len(qs) != 1 || qs[0].CorrectIndex != 2 {
		t.Errorf("got %+v", qs)
	}
}

func TestValidateQuotedAndCasedKeys(t *testing.T) {
	payload := decode(t, `{
		"\"Questions\"": [{
			" QUESTION ": "Padded keys?",
			"'options'": ["yes", "no"],
			"Answer_Index": 0
		}]
	}`)
	qs, err := Validate(payload)
	if err != nil {
		t.Fatal(err)
	}
	if qs[0].Prompt != "Padded keys?" {
		t.Errorf("prompt = %q", qs[0].Prompt)
	}
}

func TestValidateTopLevelList(t *testing.T) {
	payload := decode(t, `[{"question": "bare list", "options": ["x", "y"]}]`)
	qs, err := Validate(payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(qs) != 1 {
		t.Fatalf("got %d questions", len(qs))
	}
}

func TestValidateOptionPadAndTruncate(t *testing.T) {
	payload := decode(t, `{"questions": [
		{"question": "short", "options": ["a", "b"], "answer_index": 0},
		{"question": "long", "options": ["a", "b", "c", "d", "e", "f"], "answer_index": 3}
	]}`)
	qs, err := Validate(payload)
	if err != nil {
		t.Fatal(err)
	}
	if qs[0].Options != [4]string{"a", "b", "", ""} {
		t.Errorf("short options = %v", qs[0].Options)
	}
	if qs[1].Options != [4]string{"a", "b", "c", "d"} {
		t.Errorf("long options = %v", qs[1].Options)
	}
}

func TestValidateAnswerIndexCoercion(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int
	}{
		{"string digit", `"2"`, 2},
		{"out of range high", `7`, 0},
		{"negative", `-1`, 0},
		{"garbage string", `"nope"`, 0},
		{"missing", `null`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := decode(t, `{"questions": [{
				"question": "q", "options": ["a", "b", "c", "d"],
				"answer_index": `+tc.raw+`
			}]}`)
			qs, err := Validate(payload)
			if err != nil {
				t.Fatal(err)
			}
			if qs[0].CorrectIndex != tc.want {
				t.Errorf("CorrectIndex = %d, want %d", qs[0].CorrectIndex, tc.want)
			}
		})
	}
}

func TestValidateDropsUnusableEntries(t *testing.T) {
	payload := decode(t, `{"questions": [
		{"question": "", "options": ["a", "b"]},
		{"options": ["a", "b"]},
		{"question": "one option", "options": ["a"]},
		{"question": "not options", "options": "a,b,c"},
		"not an object",
		{"question": "survivor", "options": ["a", "b", "c", "d"], "answer_index": 1}
	]}`)
	qs, err := Validate(payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(qs) != 1 || qs[0].Prompt != "survivor" {
		t.Errorf("got %+v", qs)
	}
}

func TestValidateFailures(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"scalar payload", `42`},
		{"no question list", `{"title": "t", "count": 3}`},
		{"all entries unusable", `{"questions": [{"question": ""}]}`},
		{"unrelated key too far", `{"items": [{"question": "q", "options": ["a", "b"]}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Validate(decode(t, tc.raw))
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
		})
	}
}

func TestRoleTaggedUnknownRolesFillLeftoverSlots(t *testing.T) {
	payload := decode(t, `{"questions": [{
		"question": "q",
		"options": {"correct": "right", "wrong_a": "w1", "wrong_b": "w2", "wrong_c": "w3"}
	}]}`)
	qs, err := Validate(payload)
	if err != nil {
		t.Fatal(err)
	}
	q := qs[0]
	if q.Options[0] != "right" {
		t.Fatalf("correct not at slot 0: %v", q.Options)
	}
	// Unknown roles land deterministically, sorted by key.
	if q.Options[1] != "w1" || q.Options[2] != "w2" || q.Options[3] != "w3" {
		t.Errorf("leftover slots = %v", q.Options)
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"questions", "questions", 0},
		{"qusetions", "questions", 2},
		{"question", "questions", 1},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
	}
	for _, tc := range cases {
		if got := levenshtein(tc.a, tc.b); got != tc.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
