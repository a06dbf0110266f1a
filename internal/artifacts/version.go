package artifacts

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// VersionLayout formats version ids. Lexical order of ids equals
// chronological order.
const VersionLayout = "2006-01-02_15-04-05"

func NewVersionID(t time.Time) string {
	return t.UTC().Format(VersionLayout)
}

// withSequence disambiguates versions created within the same second. The
// suffixed id sorts after the plain one and before the next second.
func withSequence(base string, seq int) string {
	if seq == 0 {
		return base
	}
	return fmt.Sprintf("%s-%03d", base, seq)
}

// ParseVersionID returns the creation time and sequence number encoded in id.
func ParseVersionID(id string) (time.Time, int, error) {
	if len(id) < len(VersionLayout) {
		return time.Time{}, 0, fmt.Errorf("invalid version id '%s'", id)
	}

	t, err := time.Parse(VersionLayout, id[:len(VersionLayout)])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid version id '%s': %w", id, err)
	}

	rest := id[len(VersionLayout):]
	if rest == "" {
		return t, 0, nil
	}

	digits, ok := strings.CutPrefix(rest, "-")
	seq, err := strconv.Atoi(digits)
	if !ok || len(digits) != 3 || err != nil || seq <= 0 {
		return time.Time{}, 0, fmt.Errorf("invalid version id '%s': bad sequence suffix", id)
	}
	return t, seq, nil
}
