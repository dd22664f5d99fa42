package match

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  Hello   World  ", "hello world"},
		{"ALL CAPS", "all caps"},
		{"tabs\tand\nnewlines", "tabs and newlines"},
		{"already normal", "already normal"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSimilarityIdentity(t *testing.T) {
	for _, s := range []string{"", "a", "walmart", "Whole Foods Market", "ümlaut"} {
		if got := Similarity(s, s); got != 1.0 {
			t.Errorf("Similarity(%q, %q) = %v, want 1.0", s, s, got)
		}
	}
}

func TestSimilaritySymmetry(t *testing.T) {
	pairs := [][2]string{
		{"walmart", "wallmart"},
		{"netflix", "netflix.com"},
		{"", "abc"},
		{"kitten", "sitting"},
	}
	for _, p := range pairs {
		ab := Similarity(p[0], p[1])
		ba := Similarity(p[1], p[0])
		if ab != ba {
			t.Errorf("Similarity(%q, %q) = %v but reversed = %v", p[0], p[1], ab, ba)
		}
	}
}

func TestSimilarityBounds(t *testing.T) {
	pairs := [][2]string{
		{"", ""},
		{"", "something"},
		{"abc", "xyz"},
		{"Starbucks", "starbucks"},
		{"completely different", "unrelated strings here"},
	}
	for _, p := range pairs {
		got := Similarity(p[0], p[1])
		if got < 0 || got > 1 {
			t.Errorf("Similarity(%q, %q) = %v, outside [0,1]", p[0], p[1], got)
		}
	}
}

func TestSimilarityEmpty(t *testing.T) {
	if got := Similarity("", ""); got != 1.0 {
		t.Errorf("both empty = %v, want 1.0", got)
	}
	if got := Similarity("abc", ""); got != 0.0 {
		t.Errorf("one empty = %v, want 0.0", got)
	}
	if got := Similarity("", "abc"); got != 0.0 {
		t.Errorf("one empty = %v, want 0.0", got)
	}
}

func TestSimilarityCaseInsensitive(t *testing.T) {
	if got := Similarity("WALMART", "walmart"); got != 1.0 {
		t.Errorf("case-folded identical strings = %v, want 1.0", got)
	}
}

func TestSimilarityKnownDistance(t *testing.T) {
	// kitten -> sitting is the classic distance-3 pair: (7-3)/7.
	want := 4.0 / 7.0
	if got := Similarity("kitten", "sitting"); got != want {
		t.Errorf("Similarity(kitten, sitting) = %v, want %v", got, want)
	}
}
