package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go/mock"
	"go.uber.org/mock/gomock"

	"github.com/teemow/mydos/internal/todo"
)

func newTestValkeyStore(t *testing.T) (*ValkeyStore, *mock.Client) {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := mock.NewClient(ctrl)
	return NewValkeyStore(client, ValkeyConfig{KeyPrefix: "mydos:"}), client
}

func TestValkeyStore_Lookup(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		s, client := newTestValkeyStore(t)
		client.EXPECT().Do(gomock.Any(), mock.Match("GET", "mydos:todos")).Return(mock.Result(mock.ValkeyNil()))

		tasks, found, err := s.Lookup(ctx)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, tasks)
	})

	t.Run("empty list", func(t *testing.T) {
		s, client := newTestValkeyStore(t)
		client.EXPECT().Do(gomock.Any(), mock.Match("GET", "mydos:todos")).Return(mock.Result(mock.ValkeyString("[]")))

		tasks, found, err := s.Lookup(ctx)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Empty(t, tasks)
	})

	t.Run("tasks", func(t *testing.T) {
		s, client := newTestValkeyStore(t)
		client.EXPECT().Do(gomock.Any(), mock.Match("GET", "mydos:todos")).
			Return(mock.Result(mock.ValkeyString(`[{"id":"a","name":"Call","date":"2024-06-01","isCompleted":false}]`)))

		tasks, err := s.ReadCachedTasks(ctx)
		require.NoError(t, err)
		assert.Equal(t, []todo.Task{{ID: "a", Name: "Call", Date: "2024-06-01"}}, tasks)
	})

	t.Run("corrupt value", func(t *testing.T) {
		s, client := newTestValkeyStore(t)
		client.EXPECT().Do(gomock.Any(), mock.Match("GET", "mydos:todos")).Return(mock.Result(mock.ValkeyString("{")))

		_, _, err := s.Lookup(ctx)
		assert.Error(t, err)
	})

	t.Run("connection error", func(t *testing.T) {
		s, client := newTestValkeyStore(t)
		client.EXPECT().Do(gomock.Any(), mock.Match("GET", "mydos:todos")).Return(mock.ErrorResult(errors.New("connection refused")))

		_, err := s.ReadCachedTasks(ctx)
		assert.ErrorContains(t, err, "connection refused")
	})
}

func TestValkeyStore_ReadMissingIsEmpty(t *testing.T) {
	s, client := newTestValkeyStore(t)
	client.EXPECT().Do(gomock.Any(), mock.Match("GET", "mydos:todos")).Return(mock.Result(mock.ValkeyNil()))

	tasks, err := s.ReadCachedTasks(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestValkeyStore_Persist(t *testing.T) {
	s, client := newTestValkeyStore(t)
	client.EXPECT().Do(gomock.Any(), mock.Match("SET", "mydos:todos", `[{"id":"a","name":"Call","date":"2024-06-01","isCompleted":false}]`)).
		Return(mock.Result(mock.ValkeyString("OK")))

	err := s.Persist(context.Background(), []todo.Task{{ID: "a", Name: "Call", Date: "2024-06-01"}})
	require.NoError(t, err)
}

func TestValkeyStore_PersistEmpty(t *testing.T) {
	s, client := newTestValkeyStore(t)
	client.EXPECT().Do(gomock.Any(), mock.Match("SET", "mydos:todos", "[]")).Return(mock.Result(mock.ValkeyString("OK")))

	require.NoError(t, s.Persist(context.Background(), nil))
}

func TestValkeyStore_Invalidate(t *testing.T) {
	s, client := newTestValkeyStore(t)
	client.EXPECT().Do(gomock.Any(), mock.Match("DEL", "mydos:todos")).Return(mock.Result(mock.ValkeyInt64(0))).Times(2)

	require.NoError(t, s.Invalidate(context.Background()))
	require.NoError(t, s.Invalidate(context.Background()))
}

func TestValkeyStore_Ping(t *testing.T) {
	s, client := newTestValkeyStore(t)
	client.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.Result(mock.ValkeyString("PONG")))

	assert.NoError(t, s.Ping(context.Background()))
}

func TestDialValkey_InvalidURL(t *testing.T) {
	_, err := DialValkey("redis://:invalid-port", "")
	assert.Error(t, err)
}
