package main

import "testing"

func TestParseFmisidsSkipsBlanksAndTrimsWhitespace(t *testing.T) {
	ids, err := parseFmisids(" 100971, 101004 ,,100908")
	if err != nil {
		t.Fatalf("parseFmisids: %v", err)
	}
	want := []int{100971, 101004, 100908}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %v", len(want), ids)
	}
	for i, w := range want {
		if ids[i] != w {
			t.Fatalf("index %d: expected %d, got %d", i, w, ids[i])
		}
	}
}

func TestParseFmisidsRejectsNonNumeric(t *testing.T) {
	if _, err := parseFmisids("100971,abc"); err == nil {
		t.Fatalf("expected an error for a non-numeric fmisid")
	}
}
