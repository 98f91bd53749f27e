package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/taskpilot/store"
	"github.com/hrygo/taskpilot/store/teststore"
)

func TestGetTaskReturnsNilWhenAbsent(t *testing.T) {
	st := teststore.New()
	id := uuid.New()
	task, err := st.GetTask(context.Background(), &store.FindTask{ID: &id})
	require.NoError(t, err)
	require.Nil(t, task)
}

func TestConversationCaching(t *testing.T) {
	ctx := context.Background()
	st := teststore.New()

	now := time.Now().Unix()
	created, err := st.CreateConversation(ctx, &store.Conversation{
		ID:        uuid.New(),
		UserID:    "u1",
		CreatedTs: now,
		UpdatedTs: now,
	})
	require.NoError(t, err)

	found, err := st.GetConversation(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, created.ID, found.ID)

	require.NoError(t, st.DeleteConversation(ctx, &store.DeleteConversation{ID: created.ID}))

	// The cache entry must not outlive the row.
	gone, err := st.GetConversation(ctx, created.ID)
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestDeleteConversationCascadesMessages(t *testing.T) {
	ctx := context.Background()
	st := teststore.New()

	now := time.Now().Unix()
	conversation, err := st.CreateConversation(ctx, &store.Conversation{
		ID: uuid.New(), UserID: "u1", CreatedTs: now, UpdatedTs: now,
	})
	require.NoError(t, err)

	_, err = st.CreateMessage(ctx, &store.Message{
		ID:             uuid.New(),
		UserID:         "u1",
		ConversationID: conversation.ID,
		Role:           store.RoleUser,
		Content:        "hello",
		CreatedTs:      time.Now().UnixMicro(),
	})
	require.NoError(t, err)

	require.NoError(t, st.DeleteConversation(ctx, &store.DeleteConversation{ID: conversation.ID}))

	messages, err := st.ListMessages(ctx, &store.FindMessage{ConversationID: &conversation.ID})
	require.NoError(t, err)
	require.Empty(t, messages)
}
