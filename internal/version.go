package internal

import "fmt"

var (
	version   = "1.2.0"
	gitCommit = "" // set via -ldflags at build time
)

func Version() string {
	if gitCommit != "" {
		return fmt.Sprintf("%s+%s", version, gitCommit)
	}
	return version
}
