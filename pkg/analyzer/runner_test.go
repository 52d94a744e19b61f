package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policy-advisor/pkg/model"
)

func testBatch() []NormalizedFlow {
	return []NormalizedFlow{Normalize(model.Flow{
		FlowID:               "f1",
		Timestamp:            time.Now(),
		SourceNamespace:      "frontend",
		DestinationNamespace: "backend",
		Protocol:             "TCP",
		DestinationPort:      8080,
	})}
}

func TestGenerateSuccess(t *testing.T) {
	r := NewRunner([]string{"sh", "-c", `cat >/dev/null; printf '  apiVersion: cilium.io/v2\n\n'`})
	out, err := r.Generate(context.Background(), testBatch())
	require.NoError(t, err)
	assert.Equal(t, "apiVersion: cilium.io/v2", out)
}

func TestGenerateStdinCarriesBatch(t *testing.T) {
	// the engine reads the batch back and echoes it, proving the stdin
	// contract end to end
	r := NewRunner([]string{"sh", "-c", "cat"})
	out, err := r.Generate(context.Background(), testBatch())
	require.NoError(t, err)
	assert.Contains(t, out, `"flow_id":"f1"`)
	assert.Contains(t, out, `"destination_port":8080`)
	assert.Contains(t, out, `"l7":{}`)
}

func TestGenerateExitFailure(t *testing.T) {
	r := NewRunner([]string{"sh", "-c", "echo boom >&2; exit 3"})
	_, err := r.Generate(context.Background(), testBatch())
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, "boom", exitErr.Detail)
}

func TestGenerateExitFailureEmptyStderr(t *testing.T) {
	r := NewRunner([]string{"sh", "-c", "exit 2"})
	_, err := r.Generate(context.Background(), testBatch())
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, "Unknown error", exitErr.Detail)
}

func TestGenerateSpawnFailure(t *testing.T) {
	r := NewRunner([]string{"/nonexistent/analysis-engine"})
	_, err := r.Generate(context.Background(), testBatch())
	var spawnErr *SpawnError
	require.ErrorAs(t, err, &spawnErr)
}

func TestGenerateTimeoutKillsProcess(t *testing.T) {
	r := &Runner{Command: []string{"sh", "-c", "sleep 30"}, Timeout: 200 * time.Millisecond}
	start := time.Now()
	_, err := r.Generate(context.Background(), testBatch())
	elapsed := time.Since(start)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Less(t, elapsed, 5*time.Second, "timeout did not fire promptly")
}

func TestGenerateCallerCancellation(t *testing.T) {
	r := NewRunner([]string{"sh", "-c", "sleep 30"})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := r.Generate(ctx, testBatch())
	elapsed := time.Since(start)

	require.ErrorIs(t, err, context.Canceled)
	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr), "cancellation must not look like an engine failure")
	var timeoutErr *TimeoutError
	assert.False(t, errors.As(err, &timeoutErr))
	assert.Less(t, elapsed, 5*time.Second, "cancellation did not stop the engine promptly")
}

func TestGenerateEmptyBatch(t *testing.T) {
	r := NewRunner([]string{"sh", "-c", "cat"})
	_, err := r.Generate(context.Background(), nil)
	require.Error(t, err)
}
