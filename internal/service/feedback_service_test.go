package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedbackSubmitAndList(t *testing.T) {
	store := &fakeFeedback{}
	svc := NewFeedbackService(store, newFakeOrders(pendingOrder("order-1", clientActor.ID)), nil)
	ctx := context.Background()
	orderID := "order-1"

	fb, err := svc.Submit(ctx, clientActor, FeedbackInput{OrderID: &orderID, Rating: 5, Comment: " Great work "})
	require.NoError(t, err)
	assert.Equal(t, "Great work", fb.Comment)
	require.NotNil(t, fb.OrderID)

	_, err = svc.Submit(ctx, otherClient, FeedbackInput{OrderID: &orderID, Rating: 4})
	assert.Equal(t, "FORBIDDEN", errCode(err))

	for _, rating := range []int{0, 6} {
		_, err = svc.Submit(ctx, clientActor, FeedbackInput{Rating: rating})
		assert.Equal(t, "VALIDATION_FAILED", errCode(err), "rating %d", rating)
	}

	_, err = svc.Submit(ctx, otherClient, FeedbackInput{Rating: 3})
	require.NoError(t, err)

	own, err := svc.ListOwn(ctx, clientActor, 0, 0)
	require.NoError(t, err)
	assert.Len(t, own, 1)

	_, err = svc.ListAll(ctx, clientActor, 0, 0)
	assert.Equal(t, "FORBIDDEN", errCode(err))
	all, err := svc.ListAll(ctx, staffActor, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFeedbackDeleteAdminOnly(t *testing.T) {
	store := &fakeFeedback{}
	svc := NewFeedbackService(store, newFakeOrders(), nil)
	ctx := context.Background()
	fb, err := svc.Submit(ctx, clientActor, FeedbackInput{Rating: 2})
	require.NoError(t, err)

	assert.Equal(t, "FORBIDDEN", errCode(svc.Delete(ctx, staffActor, fb.ID)))
	require.NoError(t, svc.Delete(ctx, adminActor, fb.ID))
	assert.Equal(t, "NOT_FOUND", errCode(svc.Delete(ctx, adminActor, fb.ID)))
}
