package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/brandmonitor/internal/config"
)

func TestInitWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bm.log")
	closer, err := Init(config.Logging{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)
	t.Cleanup(func() {
		closer.Close()
		logrus.SetOutput(os.Stderr)
		logrus.SetFormatter(&logrus.TextFormatter{})
		logrus.SetLevel(logrus.InfoLevel)
	})

	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	logrus.WithField("run", "abc").Info("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"run":"abc"`)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestInitFallsBackOnBadLevel(t *testing.T) {
	closer, err := Init(config.Logging{Level: "loud", Format: "text", Output: "stderr"})
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}
