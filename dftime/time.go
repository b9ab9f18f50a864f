// Package dftime holds timestamps as they appear in forensic XML: either
// epoch seconds or ISO 8601 text, converted on demand.
package dftime

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// isoPattern is the accepted ISO 8601 shape: date, time, optional fraction,
// optional Z or numeric offset with or without a colon.
var isoPattern = regexp.MustCompile(`^(\d{4}-\d\d-\d\d)[T ](\d\d:\d\d:\d\d)(\.\d+)?(Z|[-+]\d\d:?\d\d)?$`)

// Time is an instant that remembers the text it was parsed from.
//
// The zero Time is null: a timestamp that was absent. Null sorts before
// every other Time and is never Equal to anything, including another null.
// Copies share the cached ISO text and are safe for concurrent use.
type Time struct {
	v *value
}

type value struct {
	instant time.Time

	isoOnce sync.Once
	iso     string
}

// FromEpoch returns the Time sec seconds after the Unix epoch.
func FromEpoch(sec int64) Time {
	return Time{v: &value{instant: time.Unix(sec, 0).UTC()}}
}

// FromTime wraps t.
func FromTime(t time.Time) Time {
	return Time{v: &value{instant: t}}
}

// FromISO8601 parses s. Input without a zone is UTC. It fails with
// *ParseError when s does not have the accepted shape or names an impossible
// date.
func FromISO8601(s string) (Time, error) {
	m := isoPattern.FindStringSubmatch(s)
	if m == nil {
		return Time{}, &ParseError{Value: s}
	}
	zone := m[4]
	switch {
	case zone == "":
		zone = "Z"
	case len(zone) == 5:
		zone = zone[:3] + ":" + zone[3:]
	}
	t, err := time.Parse(time.RFC3339Nano, m[1]+"T"+m[2]+m[3]+zone)
	if err != nil {
		return Time{}, &ParseError{Value: s, Err: err}
	}
	v := &value{instant: t, iso: s}
	v.isoOnce.Do(func() {})
	return Time{v: v}, nil
}

// Parse accepts either form found in documents: ISO 8601 text or a
// decimal count of epoch seconds, possibly fractional. Surrounding
// whitespace is ignored. Empty text yields a null Time and no error.
func Parse(s string) (Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Time{}, nil
	}
	if len(s) > 5 && s[4] == '-' {
		return FromISO8601(s)
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return FromEpoch(sec), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Time{}, &ParseError{Value: s, Err: err}
	}
	sec, frac := math.Modf(f)
	return FromTime(time.Unix(int64(sec), int64(frac*1e9)).UTC()), nil
}

// IsNull reports whether t is the null Time.
func (t Time) IsNull() bool { return t.v == nil }

// Time returns the instant. The null Time yields the zero time.Time.
func (t Time) Time() time.Time {
	if t.v == nil {
		return time.Time{}
	}
	return t.v.instant
}

// Epoch returns seconds since the Unix epoch, including any fraction.
func (t Time) Epoch() float64 {
	if t.v == nil {
		return 0
	}
	return float64(t.v.instant.Unix()) + float64(t.v.instant.Nanosecond())/1e9
}

// Unix returns whole seconds since the Unix epoch.
func (t Time) Unix() int64 { return t.Time().Unix() }

// ISO8601 returns the text t was parsed from, or for other Times the UTC
// instant with a Z suffix and a fraction only when one is present. The
// result is computed once. The null Time yields "".
func (t Time) ISO8601() string {
	if t.v == nil {
		return ""
	}
	t.v.isoOnce.Do(func() {
		t.v.iso = t.v.instant.UTC().Format(time.RFC3339Nano)
	})
	return t.v.iso
}

func (t Time) String() string { return t.ISO8601() }

// Compare orders Times by instant, with null first. It returns -1, 0 or +1.
func (t Time) Compare(o Time) int {
	switch {
	case t.v == nil && o.v == nil:
		return 0
	case t.v == nil:
		return -1
	case o.v == nil:
		return 1
	}
	return t.v.instant.Compare(o.v.instant)
}

// Equal reports whether t and o are the same instant. A null Time is
// never equal to anything.
func (t Time) Equal(o Time) bool {
	if t.v == nil || o.v == nil {
		return false
	}
	return t.v.instant.Equal(o.v.instant)
}

// Before reports whether t is earlier than o.
func (t Time) Before(o Time) bool { return t.Compare(o) < 0 }

// After reports whether t is later than o.
func (t Time) After(o Time) bool { return t.Compare(o) > 0 }

// MarshalText encodes t as ISO 8601; null encodes as empty text.
func (t Time) MarshalText() ([]byte, error) {
	return []byte(t.ISO8601()), nil
}

// UnmarshalText decodes either form accepted by Parse.
func (t *Time) UnmarshalText(b []byte) error {
	p, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = p
	return nil
}
