package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogFileWriter_KeepsTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "teamdash.log")
	w, err := newLogFileWriter(path, 60)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	for _, line := range []string{"first line of the log\n", "second line of the log\n", "third line of the log\n"} {
		_, err := w.Write([]byte(line))
		require.NoError(t, err)
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.LessOrEqual(t, len(data), 60)
	require.True(t, strings.HasSuffix(string(data), "third line of the log\n"))
	require.NotContains(t, string(data), "first line")
}

func TestLogFileWriter_Unbounded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teamdash.log")
	w, err := newLogFileWriter(path, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	_, err = w.Write([]byte(strings.Repeat("x", 1000)))
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.EqualValues(t, 1000, info.Size())
}
