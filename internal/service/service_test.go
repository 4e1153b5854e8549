package service

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/eye-triage-server/internal/matrix"
)

// loadTestMatrix loads the shipped symptom matrix so tests exercise the
// real clinical configuration.
func loadTestMatrix(t *testing.T) *matrix.Matrix {
	t.Helper()

	m, err := matrix.Load(filepath.Join("..", "..", "configs", "symptom_matrix.yaml"))
	require.NoError(t, err)
	return m
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
