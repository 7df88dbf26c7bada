package storage

import (
	"fmt"
	"regexp"
	"time"
)

// Capture objects are keyed YYYY/MM/DD/HH-MM<suffix>, e.g.
// "2020/12/20/05-30_a1b2c3.pcap". The day portion is the listing prefix and
// the minute portion is the capture timestamp.
const keyTimeLayout = "2006/01/02/15-04"

var keyTimeRe = regexp.MustCompile(`^(\d{4})/(\d{2})/(\d{2})/(\d{2})-(\d{2})`)

// DayPrefix returns the key prefix shared by every object captured on t's
// UTC calendar day, and by no object of any other day.
func DayPrefix(t time.Time) string {
	return t.UTC().Format("2006/01/02") + "/"
}

// ObjectKey builds the canonical key for a capture taken at t. name is the
// uploader-chosen suffix (file name, random token).
func ObjectKey(t time.Time, name string) string {
	return t.UTC().Format(keyTimeLayout) + "_" + name
}

// ParseObjectTime extracts the capture timestamp embedded in an object key,
// at minute granularity, in UTC. Anything after the minute field is ignored,
// so uploader suffixes never influence the result; the same rule applies to
// every backend.
func ParseObjectTime(key string) (time.Time, error) {
	m := keyTimeRe.FindString(key)
	if m == "" {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedKey, key)
	}
	t, err := time.ParseInLocation(keyTimeLayout, m, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrMalformedKey, key, err)
	}
	return t, nil
}
