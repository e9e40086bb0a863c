package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/consulting-service/internal/domain"
	"github.com/spec-kit/consulting-service/internal/events"
	"github.com/spec-kit/consulting-service/internal/repository"
)

func newChatForTest() (*ChatService, repository.MessageRepository, *recordingDispatcher) {
	orders := newFakeOrders(pendingOrder("order-1", clientActor.ID))
	messages := repository.NewMemoryMessageRepository()
	d := newRecordingDispatcher()
	return NewChatService(ChatDependencies{OrderRepo: orders, MessageRepo: messages, Dispatcher: d, Clock: fixedClock}), messages, d
}

func TestSendThenListReturnsMessageLast(t *testing.T) {
	chat, _, d := newChatForTest()
	ctx := context.Background()

	_, err := chat.Send(ctx, staffActor, "order-1", "Welcome aboard")
	require.NoError(t, err)
	sent, err := chat.Send(ctx, clientActor, "order-1", "  Thanks, when do we start?  ")
	require.NoError(t, err)

	msgs, err := chat.List(ctx, clientActor, "order-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	last := msgs[len(msgs)-1]
	assert.Equal(t, *sent, last)
	assert.Equal(t, "Thanks, when do we start?", last.Text)
	assert.Equal(t, domain.SenderRoleClient, last.SenderRole)
	assert.Equal(t, int64(2), last.Seq)
	assert.Equal(t, domain.SenderRoleEmployee, msgs[0].SenderRole)
	assert.Equal(t, []events.EventType{events.EventOrderMessageAdded, events.EventOrderMessageAdded}, d.types())
}

func TestListWithoutCursorReturnsNewestPage(t *testing.T) {
	chat, _, _ := newChatForTest()
	ctx := context.Background()
	for i := 0; i < defaultPageSize+10; i++ {
		_, err := chat.Send(ctx, clientActor, "order-1", fmt.Sprintf("m%d", i))
		require.NoError(t, err)
	}
	sent, err := chat.Send(ctx, staffActor, "order-1", "latest")
	require.NoError(t, err)

	msgs, err := chat.List(ctx, clientActor, "order-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, defaultPageSize)
	assert.Equal(t, *sent, msgs[len(msgs)-1])
	assert.Equal(t, sent.Seq-int64(defaultPageSize)+1, msgs[0].Seq)
	for i := 1; i < len(msgs); i++ {
		assert.Less(t, msgs[i-1].Seq, msgs[i].Seq)
	}

	forward, err := chat.List(ctx, clientActor, "order-1", sent.Seq-2, 0)
	require.NoError(t, err)
	require.Len(t, forward, 2)
	assert.Equal(t, "latest", forward[1].Text)
}

func TestSendValidation(t *testing.T) {
	tests := []struct {
		name     string
		actor    domain.Actor
		orderID  string
		text     string
		wantCode string
	}{
		{"blank", clientActor, "order-1", "   ", "VALIDATION_FAILED"},
		{"too long", clientActor, "order-1", strings.Repeat("a", maxMessageLength+1), "VALIDATION_FAILED"},
		{"unknown order", clientActor, "missing", "hi", "NOT_FOUND"},
		{"not owner", otherClient, "order-1", "hi", "FORBIDDEN"},
		{"max length ok", clientActor, "order-1", strings.Repeat("a", maxMessageLength), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat, _, _ := newChatForTest()
			_, err := chat.Send(context.Background(), tt.actor, tt.orderID, tt.text)
			assert.Equal(t, tt.wantCode, errCode(err))
		})
	}
}

func TestListPagingAndMarkRead(t *testing.T) {
	chat, messages, _ := newChatForTest()
	ctx := context.Background()
	for _, text := range []string{"one", "two", "three"} {
		_, err := chat.Send(ctx, clientActor, "order-1", text)
		require.NoError(t, err)
	}

	page, err := chat.List(ctx, staffActor, "order-1", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "two", page[0].Text)

	unread, err := messages.CountUnread(ctx, domain.SenderRoleClient)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)

	n, err := chat.MarkRead(ctx, clientActor, "order-1")
	require.NoError(t, err)
	assert.Zero(t, n, "own messages stay unread")

	n, err = chat.MarkRead(ctx, staffActor, "order-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = chat.MarkRead(ctx, otherClient, "order-1")
	assert.Equal(t, "FORBIDDEN", errCode(err))
}

func TestPreviewTruncates(t *testing.T) {
	assert.Equal(t, "short", preview("short"))
	long := strings.Repeat("é", previewLength+5)
	got := preview(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, previewLength+3, len([]rune(got)))
}
