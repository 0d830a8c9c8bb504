package emergency_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openimpair/controlplane/pkg/emergency"
)

func TestController_Trigger_RunsCallbacksOnce(t *testing.T) {
	ctrl := emergency.New(emergency.Config{})

	var calls int
	ctrl.OnStop(func(ctx context.Context) error {
		calls++
		return nil
	})

	ctrl.Trigger(context.Background(), "operator request")
	ctrl.Trigger(context.Background(), "operator request again")

	require.Equal(t, 1, calls)
	require.True(t, ctrl.Stopped())
}

func TestController_Trigger_CollectsCallbackErrors(t *testing.T) {
	ctrl := emergency.New(emergency.Config{})
	ctrl.OnStop(func(ctx context.Context) error { return require.AnError })
	ctrl.OnStop(func(ctx context.Context) error { return nil })

	errs := ctrl.Trigger(context.Background(), "test")
	require.Len(t, errs, 1)
}

func TestController_WatchStopFile_Triggers(t *testing.T) {
	stopFile := filepath.Join(t.TempDir(), "stop")
	ctrl := emergency.New(emergency.Config{
		StopFile:     stopFile,
		PollInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctrl.Watch(ctx)

	require.NoError(t, ctrl.CreateStopFile())

	select {
	case <-ctrl.Done():
	case <-time.After(time.Second):
		t.Fatal("stop was not triggered")
	}
	require.True(t, ctrl.Stopped())
}

func TestController_RemoveStopFile_MissingIsNotAnError(t *testing.T) {
	ctrl := emergency.New(emergency.Config{StopFile: filepath.Join(t.TempDir(), "missing")})
	require.NoError(t, ctrl.RemoveStopFile())
	_, err := os.Stat(ctrl.StopFilePath())
	require.True(t, os.IsNotExist(err))
}
