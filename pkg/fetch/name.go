package fetch

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// At most this many filter terms are woven into the output name; more (or
// none) fall back to the range-only form so names stay bounded.
const maxNameTerms = 3

const nameTimeLayout = "20060102T1504Z"

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9.-]+`)

// OutputName derives the deliverable file name from the time range and the
// leading filter terms. It is a pure function of its inputs, so re-running
// the same request overwrites the same file.
func OutputName(from, to time.Time, terms []string) string {
	base := fmt.Sprintf("capture_%s-%s",
		from.UTC().Format(nameTimeLayout), to.UTC().Format(nameTimeLayout))
	if n := len(terms); n > 0 && n <= maxNameTerms {
		sanitized := make([]string, n)
		for i, term := range terms {
			sanitized[i] = unsafeNameChars.ReplaceAllString(term, "-")
		}
		base += "_" + strings.Join(sanitized, "_")
	}
	return base + ".pcap"
}
