package playback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidRange  = errors.New("invalid range format")
	ErrUnsatisfiable = errors.New("range not satisfiable")
)

// Range is one satisfiable byte range, both bounds inclusive.
type Range struct {
	Start int64
	End   int64
}

func (r Range) ContentLength() int64 {
	return r.End - r.Start + 1
}

func (r Range) ContentRange(total int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, total)
}

// ParseRange parses a Range header against a file of the given size.
// A nil result with nil error means no range was requested. Multi-range
// requests collapse to their first range; video players only ever send
// one.
func ParseRange(header string, size int64) (*Range, error) {
	if header == "" {
		return nil, nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, ErrInvalidRange
	}

	if idx := strings.Index(spec, ","); idx != -1 {
		spec = strings.TrimSpace(spec[:idx])
	}

	first, last, found := strings.Cut(spec, "-")
	if !found {
		return nil, ErrInvalidRange
	}

	start, end, err := resolveBounds(first, last, size)
	if err != nil {
		return nil, err
	}

	if start > end || start >= size {
		return nil, ErrUnsatisfiable
	}
	if end >= size {
		end = size - 1
	}

	return &Range{Start: start, End: end}, nil
}

func resolveBounds(first, last string, size int64) (int64, int64, error) {
	// suffix form: bytes=-N means the final N bytes
	if first == "" {
		suffixLen, err := strconv.ParseInt(last, 10, 64)
		if err != nil || suffixLen <= 0 {
			return 0, 0, ErrInvalidRange
		}
		start := size - suffixLen
		if start < 0 {
			start = 0
		}
		return start, size - 1, nil
	}

	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil || start < 0 {
		return 0, 0, ErrInvalidRange
	}

	if last == "" {
		return start, size - 1, nil
	}

	end, err := strconv.ParseInt(last, 10, 64)
	if err != nil {
		return 0, 0, ErrInvalidRange
	}
	return start, end, nil
}
