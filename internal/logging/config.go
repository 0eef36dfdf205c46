package logging

import (
	"fmt"
	"os"
	"strings"
)

const envVar = "LOGLEVEL"

type tagLevel struct {
	tag   string
	level Level
}

var tagLevels []tagLevel

func init() {
	level, tags, errs := parseDirectives(os.Getenv(envVar), defaultLevel)
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "Invalid %s directive %s\n", envVar, err)
	}
	defaultLevel = level
	tagLevels = tags

	DefaultLogger.Level = defaultLevel
}

// Parse comma-separated "tag=level" directives. A directive without "tag=" sets
// the default level.
func parseDirectives(s string, fallback Level) (Level, []tagLevel, []error) {
	var tags []tagLevel
	var errs []error
	for _, d := range strings.Split(s, ",") {
		if d == "" {
			continue
		}
		v := strings.SplitN(d, "=", 2)
		level, err := parseLevel(v[len(v)-1])
		if err != nil {
			errs = append(errs, fmt.Errorf("'%s': %s", d, err))
			continue
		}
		if len(v) == 1 {
			fallback = level
		} else {
			tags = append(tags, tagLevel{v[0], level})
		}
	}
	return fallback, tags, errs
}

func determineLevel(tag string, fallback Level) Level {
	for _, e := range tagLevels {
		if e.tag == tag {
			return e.level
		}
	}
	return fallback
}
