package tools

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/taskpilot/store/teststore"
)

func TestNewTaskRegistry(t *testing.T) {
	registry, err := NewTaskRegistry(teststore.New())
	require.NoError(t, err)

	want := []string{"add_task", "update_task", "read_task", "read_all_tasks", "complete_task", "delete_task"}
	require.Equal(t, want, registry.Names())

	descriptors := registry.Descriptors()
	require.Len(t, descriptors, len(want))
	for i, descriptor := range descriptors {
		require.Equal(t, want[i], descriptor.Name)
		require.NotEmpty(t, descriptor.Description)
		require.Contains(t, descriptor.Parameters, `"user_id"`)
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	st := teststore.New()
	_, err := NewRegistry(NewAddTaskTool(st), NewAddTaskTool(st))
	require.Error(t, err)
}

func TestRegistryExecuteUnknownTool(t *testing.T) {
	registry, err := NewTaskRegistry(teststore.New())
	require.NoError(t, err)

	_, err = registry.Execute(context.Background(), "launch_rocket", map[string]any{})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnknownTool))
}

func TestRegistryExecuteWrapsToolFailureInEnvelope(t *testing.T) {
	registry, err := NewTaskRegistry(teststore.New())
	require.NoError(t, err)

	result, err := registry.Execute(context.Background(), "complete_task", map[string]any{
		"user_id": "u1",
		"task_id": "not-a-uuid",
	})
	require.NoError(t, err, "tool-level failures never surface as Go errors")
	require.True(t, result.IsError())
}
