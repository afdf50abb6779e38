package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduction(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, true, "")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())

	log.Debug("hidden")
	log.WithField("step", "build-template").Info("step done")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "step done", entry["msg"])
	assert.Equal(t, "build-template", entry["step"])
}

func TestNewLevelOverride(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, New(nil, false, "").GetLevel())
	assert.Equal(t, logrus.WarnLevel, New(nil, false, "warn").GetLevel())
	assert.Equal(t, logrus.InfoLevel, New(nil, true, "loud").GetLevel())
}
