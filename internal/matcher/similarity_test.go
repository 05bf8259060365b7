package matcher

import "testing"

func TestSimilarityExact(t *testing.T) {
	if got := Similarity("John Smith", "John Smith"); got != 100 {
		t.Errorf("identical names should score 100, got %f", got)
	}
}

func TestSimilarityCaseAndWhitespaceInsensitive(t *testing.T) {
	if got := Similarity("  john   SMITH ", "John Smith"); got != 100 {
		t.Errorf("normalization should make these identical, got %f", got)
	}
}

func TestSimilarityOneEditAway(t *testing.T) {
	// "JON SMITH" is one deletion from "JOHN SMITH" (length 10): 90.
	got := Similarity("John Smith", "Jon Smith")
	if got != 90 {
		t.Errorf("expected 90, got %f", got)
	}
}

func TestSimilarityEmptyNames(t *testing.T) {
	if got := Similarity("", ""); got != 100 {
		t.Errorf("two empty names should score 100, got %f", got)
	}
	if got := Similarity("", "John Smith"); got != 0 {
		t.Errorf("one empty name should score 0, got %f", got)
	}
	if got := Similarity("John Smith", "   "); got != 0 {
		t.Errorf("whitespace-only name should score 0, got %f", got)
	}
}

func TestSimilarityBounds(t *testing.T) {
	cases := [][2]string{
		{"A", "ZZZZZZZZZZZZZZZZ"},
		{"Ravi Patel", "Priya Sharma"},
		{"X Y Z", "ABCDEF"},
	}
	for _, c := range cases {
		got := Similarity(c[0], c[1])
		if got < 0 || got > 100 {
			t.Errorf("Similarity(%q, %q) = %f out of [0,100]", c[0], c[1], got)
		}
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	a, b := "Priya Sharma", "Prya Sharma"
	if Similarity(a, b) != Similarity(b, a) {
		t.Error("similarity should be symmetric")
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"John Smith", "JOHN SMITH"},
		{"  john   smith  ", "JOHN SMITH"},
		{"JOHN\tSMITH", "JOHN SMITH"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.input); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
