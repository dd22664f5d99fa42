package ingest

import (
	"testing"
	"time"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int64
		wantErr bool
	}{
		{"plain", "4.35", 435, false},
		{"integer", "120", 12000, false},
		{"negative", "-15.99", -1599, false},
		{"currency symbol", "$1,234.56", 123456, false},
		{"euro", "€99.00", 9900, false},
		{"parenthesized negative", "(42.50)", -4250, false},
		{"leading and trailing space", "  7.25  ", 725, false},
		{"single decimal place", "3.5", 350, false},
		{"zero", "0.00", 0, false},
		{"empty", "", 0, true},
		{"garbage", "abc", 0, true},
		{"sub-cent precision", "1.005", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAmount(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseAmount(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseAmountExactness(t *testing.T) {
	// 4.35 is not representable in binary floating point; the decimal
	// path must still land on exactly 435 cents.
	got, err := ParseAmount("4.35")
	if err != nil {
		t.Fatal(err)
	}
	if got != 435 {
		t.Errorf("got %d cents, want 435", got)
	}
}

func TestAmountToFloat(t *testing.T) {
	if got := AmountToFloat(1599); got != 15.99 {
		t.Errorf("AmountToFloat(1599) = %v, want 15.99", got)
	}
	if got := AmountToFloat(-435); got != -4.35 {
		t.Errorf("AmountToFloat(-435) = %v, want -4.35", got)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"iso", "2026-03-04", time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"ambiguous slash reads month first", "03/04/2026", time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"unpadded slash", "3/4/2026", time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"two digit year", "03/04/26", time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"dash", "03-04-2026", time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"day first when month impossible", "25/12/2026", time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)},
		{"month name", "Mar 4, 2026", time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"day month name year", "4 Mar 2026", time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.raw)
			if err != nil {
				t.Fatalf("ParseDate(%q): %v", tt.raw, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseDateErrors(t *testing.T) {
	for _, raw := range []string{"", "not a date", "13/13/2026"} {
		if _, err := ParseDate(raw); err == nil {
			t.Errorf("ParseDate(%q): expected error", raw)
		}
	}
}
