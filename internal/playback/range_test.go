package playback

import "testing"

// takeSize stands in for a short recorded take; small enough that the
// expected offsets stay readable.
const takeSize = int64(4096)

func TestParseRange_Scrubbing(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   Range
	}{
		{"player opens the take", "bytes=0-4095", Range{0, 4095}},
		{"seek to the tail", "bytes=4000-", Range{4000, takeSize - 1}},
		{"probe the moov atom at the end", "bytes=-512", Range{takeSize - 512, takeSize - 1}},
		{"single byte poke", "bytes=0-0", Range{0, 0}},
		{"mid-take window", "bytes=1024-2047", Range{1024, 2047}},
		{"end clamped to file size", "bytes=1024-999999", Range{1024, takeSize - 1}},
		{"suffix longer than the take", "bytes=-999999", Range{0, takeSize - 1}},
		{"multi-range collapses to the first", "bytes=0-99, 2000-2999", Range{0, 99}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.header, takeSize)
			if err != nil {
				t.Fatalf("ParseRange(%q) error = %v", tt.header, err)
			}
			if got == nil {
				t.Fatalf("ParseRange(%q) = nil, want %+v", tt.header, tt.want)
			}
			if *got != tt.want {
				t.Errorf("ParseRange(%q) = %+v, want %+v", tt.header, *got, tt.want)
			}
		})
	}
}

func TestParseRange_NoHeader(t *testing.T) {
	got, err := ParseRange("", takeSize)
	if err != nil || got != nil {
		t.Errorf("ParseRange(\"\") = %v, %v; want nil, nil", got, err)
	}
}

func TestParseRange_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"start at end of file", "bytes=4096-", ErrUnsatisfiable},
		{"window entirely past the end", "bytes=5000-6000", ErrUnsatisfiable},
		{"inverted bounds", "bytes=100-50", ErrUnsatisfiable},
		{"no unit", "0-100", ErrInvalidRange},
		{"wrong unit", "frames=0-100", ErrInvalidRange},
		{"missing dash", "bytes=100", ErrInvalidRange},
		{"garbage start", "bytes=x-100", ErrInvalidRange},
		{"garbage end", "bytes=0-x", ErrInvalidRange},
		{"negative start", "bytes=-5-10", ErrInvalidRange},
		{"zero-length suffix", "bytes=-0", ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseRange(tt.header, takeSize); err != tt.wantErr {
				t.Errorf("ParseRange(%q) error = %v, want %v", tt.header, err, tt.wantErr)
			}
		})
	}
}

func TestRange_ResponseHeaders(t *testing.T) {
	r := Range{Start: 1024, End: 2047}
	if got := r.ContentLength(); got != 1024 {
		t.Errorf("ContentLength() = %d, want 1024", got)
	}
	if got := r.ContentRange(takeSize); got != "bytes 1024-2047/4096" {
		t.Errorf("ContentRange() = %q", got)
	}

	single := Range{Start: 0, End: 0}
	if got := single.ContentLength(); got != 1 {
		t.Errorf("ContentLength() = %d, want 1 for a single byte", got)
	}
}
