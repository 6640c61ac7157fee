package supervisor

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain guards against leaking the per-worker readStatusLines/wait
// goroutines started in startWorker, matching the teacher's TestMain
// convention for packages that manage subprocess lifecycles.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptSpawner builds a Spawner that runs a shell script per kind,
// standing in for the self-exec-into-worker-subcommand strategy used in
// production.
func scriptSpawner(script string) Spawner {
	return func(ctx context.Context, kind Kind) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", script)
	}
}

func TestStartReportsSuccessOnStartedLine(t *testing.T) {
	s := New(scriptSpawner(`echo '{"status":"Started"}'; sleep 5`))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ok := s.Start(ctx, ScriptPointer)
	assert.True(t, ok)
	assert.Equal(t, StatusRunning, s.Status()[ScriptPointer])

	require.True(t, s.Stop(ScriptPointer))
	assert.Equal(t, StatusStopped, s.Status()[ScriptPointer])
}

func TestStartReportsFailureOnFailedLine(t *testing.T) {
	s := New(scriptSpawner(`echo '{"status":"Failed","reason":"boom"}'`))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ok := s.Start(ctx, PerformerTracker)
	assert.False(t, ok)
}

func TestStartFailsWhenAlreadyRunning(t *testing.T) {
	s := New(scriptSpawner(`echo '{"status":"Started"}'; sleep 5`))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.True(t, s.Start(ctx, ScriptPointer))
	assert.False(t, s.Start(ctx, ScriptPointer))

	s.Stop(ScriptPointer)
}

func TestStopOnUnknownKindReturnsFalse(t *testing.T) {
	s := New(scriptSpawner(`true`))
	assert.False(t, s.Stop(ScriptPointer))
}

func TestStatusReportsStoppedForNeverStartedKinds(t *testing.T) {
	s := New(scriptSpawner(`true`))
	status := s.Status()
	assert.Equal(t, StatusStopped, status[ScriptPointer])
	assert.Equal(t, StatusStopped, status[PerformerTracker])
}

func TestStopForceKillsAfterTimeout(t *testing.T) {
	s := New(scriptSpawner(`echo '{"status":"Started"}'; trap '' TERM; sleep 30`))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.True(t, s.Start(ctx, ScriptPointer))

	start := time.Now()
	require.True(t, s.Stop(ScriptPointer))
	assert.Less(t, time.Since(start), 10*time.Second)
}
