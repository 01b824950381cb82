package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecSpawner_Spawn(t *testing.T) {
	spawner := NewExecSpawner("true", testLogger())

	err := spawner.Spawn("job-123")
	require.NoError(t, err)
}

func TestExecSpawner_BinaryMissing(t *testing.T) {
	spawner := NewExecSpawner("/nonexistent/creative-worker", testLogger())

	err := spawner.Spawn("job-123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job-123")
}
