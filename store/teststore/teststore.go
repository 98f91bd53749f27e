// Package teststore provides an in-memory store.Driver so store-backed
// components can be tested without a database. Ordering matches the SQL
// drivers: tasks and messages by creation ascending, conversations by
// update time descending.
package teststore

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/hrygo/taskpilot/internal/profile"
	"github.com/hrygo/taskpilot/store"
)

// Driver keeps all objects in process memory.
type Driver struct {
	mu            sync.Mutex
	tasks         []*store.Task
	conversations []*store.Conversation
	messages      []*store.Message
}

// New builds a store backed by a fresh in-memory driver.
func New() *store.Store {
	return store.New(NewDriver(), &profile.Profile{Mode: "dev", Driver: "sqlite"})
}

func NewDriver() *Driver {
	return &Driver{}
}

func (*Driver) GetDB() *sql.DB {
	return nil
}

func (*Driver) Close() error {
	return nil
}

func (*Driver) IsInitialized(context.Context) (bool, error) {
	return true, nil
}

func (*Driver) Migrate(context.Context) error {
	return nil
}

func (d *Driver) CreateTask(_ context.Context, create *store.Task) (*store.Task, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	task := *create
	d.tasks = append(d.tasks, &task)
	return &task, nil
}

func (d *Driver) ListTasks(_ context.Context, find *store.FindTask) ([]*store.Task, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := []*store.Task{}
	for _, task := range d.tasks {
		if find.ID != nil && task.ID != *find.ID {
			continue
		}
		if find.UserID != nil && task.UserID != *find.UserID {
			continue
		}
		if find.Completed != nil && task.Completed != *find.Completed {
			continue
		}
		if find.Priority != nil && task.Priority != *find.Priority {
			continue
		}
		list = append(list, task)
	}
	return list, nil
}

func (d *Driver) UpdateTask(_ context.Context, update *store.UpdateTask) (*store.Task, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, task := range d.tasks {
		if task.ID != update.ID {
			continue
		}
		if update.Title != nil {
			task.Title = *update.Title
		}
		if update.Description != nil {
			task.Description = update.Description
		}
		if update.Completed != nil {
			task.Completed = *update.Completed
		}
		if update.Priority != nil {
			task.Priority = *update.Priority
		}
		if update.UpdatedTs != nil {
			task.UpdatedTs = *update.UpdatedTs
		}
		return task, nil
	}
	return nil, nil
}

func (d *Driver) DeleteTask(_ context.Context, delete *store.DeleteTask) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, task := range d.tasks {
		if task.ID == delete.ID {
			d.tasks = append(d.tasks[:i], d.tasks[i+1:]...)
			return nil
		}
	}
	return errors.New("task not found")
}

func (d *Driver) CreateConversation(_ context.Context, create *store.Conversation) (*store.Conversation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	conversation := *create
	d.conversations = append(d.conversations, &conversation)
	return &conversation, nil
}

func (d *Driver) ListConversations(_ context.Context, find *store.FindConversation) ([]*store.Conversation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := []*store.Conversation{}
	for _, conversation := range d.conversations {
		if find.ID != nil && conversation.ID != *find.ID {
			continue
		}
		if find.UserID != nil && conversation.UserID != *find.UserID {
			continue
		}
		list = append(list, conversation)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].UpdatedTs > list[j].UpdatedTs
	})
	return list, nil
}

func (d *Driver) DeleteConversation(_ context.Context, delete *store.DeleteConversation) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, conversation := range d.conversations {
		if conversation.ID == delete.ID {
			d.conversations = append(d.conversations[:i], d.conversations[i+1:]...)
			remaining := d.messages[:0]
			for _, message := range d.messages {
				if message.ConversationID != delete.ID {
					remaining = append(remaining, message)
				}
			}
			d.messages = remaining
			return nil
		}
	}
	return errors.New("conversation not found")
}

func (d *Driver) CreateMessage(_ context.Context, create *store.Message) (*store.Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	message := *create
	d.messages = append(d.messages, &message)
	return &message, nil
}

func (d *Driver) ListMessages(_ context.Context, find *store.FindMessage) ([]*store.Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := []*store.Message{}
	for _, message := range d.messages {
		if find.ID != nil && message.ID != *find.ID {
			continue
		}
		if find.UserID != nil && message.UserID != *find.UserID {
			continue
		}
		if find.ConversationID != nil && message.ConversationID != *find.ConversationID {
			continue
		}
		list = append(list, message)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedTs < list[j].CreatedTs
	})
	return list, nil
}

var _ store.Driver = (*Driver)(nil)
