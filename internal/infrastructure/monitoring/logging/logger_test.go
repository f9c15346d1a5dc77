package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewLoggerFromCore(core), logs
}

func TestFieldsReachZap(t *testing.T) {
	log, logs := newObserved(zapcore.DebugLevel)

	log.Info("classified",
		String("plot_id", "PLOT_001"),
		Int("datasets", 3),
		Float64("area_ha", 1.25),
		Bool("compliant", true),
	)

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "classified", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "PLOT_001", fields["plot_id"])
	assert.Equal(t, int64(3), fields["datasets"])
	assert.Equal(t, 1.25, fields["area_ha"])
	assert.Equal(t, true, fields["compliant"])
}

func TestErrFieldNil(t *testing.T) {
	log, logs := newObserved(zapcore.DebugLevel)

	log.Warn("oracle degraded", Err(nil))
	log.Warn("oracle degraded", Err(errors.New("boom")))

	entries := logs.All()
	assert.Equal(t, "<nil>", entries[0].ContextMap()["error"])
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestWithDoesNotMutateParent(t *testing.T) {
	parent, logs := newObserved(zapcore.DebugLevel)
	child := parent.With(String("layer", "wdpa"))

	parent.Info("parent entry")
	child.Info("child entry")

	entries := logs.All()
	_, parentHas := entries[0].ContextMap()["layer"]
	assert.False(t, parentHas)
	assert.Equal(t, "wdpa", entries[1].ContextMap()["layer"])
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("ERROR"))
}

func TestNopLoggerIsSilentAndChainable(t *testing.T) {
	log := NewNopLogger()
	assert.NotPanics(t, func() {
		log.With(String("k", "v")).Named("sub").Info("ignored")
	})
}
