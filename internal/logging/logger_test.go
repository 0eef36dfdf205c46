package logging

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestParseDirectives(t *testing.T) {
	level, tags, errs := parseDirectives("debug,media=5,http=w,bogus=loud", Info)
	assert.Equal(t, Debug, level)
	assert.Equal(t, []tagLevel{{"media", Level(5)}, {"http", Warn}}, tags)
	assert.Len(t, errs, 1)

	level, tags, errs = parseDirectives("", Warn)
	assert.Equal(t, Warn, level)
	assert.Empty(t, tags)
	assert.Empty(t, errs)
}

func TestParseLevel(t *testing.T) {
	for s, want := range map[string]Level{"E": Error, "warn": Warn, "Info": Info, "T": MaxLevel, "7": 7} {
		got, err := parseLevel(s)
		assert.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}
	_, err := parseLevel("10")
	assert.Error(t, err)
	_, err = parseLevel("loud")
	assert.Error(t, err)
}

func TestLoggerFiltersByLevel(t *testing.T) {
	color.NoColor = true

	var out bytes.Buffer
	log := NewLogger("test", &out).WithDefaultLevel(Info)
	log.Level = Info

	log.Debug("hidden %d", 1)
	assert.Zero(t, out.Len())

	log.Info("client %d connected", 7)
	line := out.String()
	assert.Contains(t, line, " I/test[logger_test.go:")
	assert.Contains(t, line, "] client 7 connected\n")

	out.Reset()
	log.Trace(5, "noise")
	assert.Zero(t, out.Len())
	assert.False(t, log.Enabled(Level(5)))
	assert.True(t, log.Enabled(Warn))
}

func TestWithTagSharesDestination(t *testing.T) {
	color.NoColor = true

	var out bytes.Buffer
	root := NewLogger("", &out)
	root.Level = Info
	child := root.WithTag("media")

	child.Warn("queue full")
	assert.Contains(t, out.String(), " W/media[")
}
