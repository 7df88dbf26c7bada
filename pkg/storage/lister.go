package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/traceops/capfetch/internal"
)

var logger = internal.GetLogger("capfetch")

// ListRange enumerates every object whose embedded capture time lies
// strictly between from and to, walking one UTC calendar day at a time.
// Exactly one listing call is issued per day the range touches; an inverted
// or empty range returns nil without touching the backend. Within a day,
// objects keep the backend's listing order.
func ListRange(ctx context.Context, b Backend, from, to time.Time) ([]Object, error) {
	if !from.Before(to) {
		return nil, nil
	}
	from, to = from.UTC(), to.UTC()

	var out []Object
	for day := startOfDay(from); day.Before(to); day = day.AddDate(0, 0, 1) {
		prefix := DayPrefix(day)
		objs, err := b.ListDay(ctx, prefix)
		if err != nil {
			return nil, fmt.Errorf("listing %s%s: %w", b.Name(), prefix, err)
		}
		for _, o := range objs {
			t, err := ParseObjectTime(o.Key)
			if err != nil {
				// Foreign objects in the bucket must not kill the run.
				logger.Warnf("skipping object with unrecognized key %q: %v", o.Key, err)
				continue
			}
			if t.After(from) && t.Before(to) {
				o.Time = t
				out = append(out, o)
			}
		}
	}
	return out, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
