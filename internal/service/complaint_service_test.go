package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/consulting-service/internal/domain"
	"github.com/spec-kit/consulting-service/internal/events"
	"github.com/spec-kit/consulting-service/internal/repository"
)

type complaintFixture struct {
	svc        *ComplaintService
	complaints *mockComplaints
	objects    *mockObjects
	events     *recordingDispatcher
}

func newComplaintFixture() *complaintFixture {
	f := &complaintFixture{
		complaints: &mockComplaints{},
		objects:    &mockObjects{},
		events:     newRecordingDispatcher(),
	}
	f.svc = NewComplaintService(ComplaintDependencies{
		ComplaintRepo:  f.complaints,
		OrderRepo:      newFakeOrders(pendingOrder("order-1", clientActor.ID)),
		UserRepo:       newFakeUsers(&domain.User{ID: clientActor.ID, Email: clientActor.Email, Active: true}),
		Objects:        f.objects,
		Dispatcher:     f.events,
		MaxUploadBytes: 1024,
	})
	return f
}

func TestSubmitRejectsInvalidInputBeforeAnyCall(t *testing.T) {
	body := bytes.NewReader([]byte("x"))
	tests := []struct {
		name  string
		input ComplaintInput
	}{
		{"missing type", ComplaintInput{Description: "Late delivery"}},
		{"unknown type", ComplaintInput{Type: "rudeness", Description: "Late delivery"}},
		{"missing description", ComplaintInput{Type: "delay", Description: "  "}},
		{"attachment too large", ComplaintInput{Type: "delay", Description: "Late", Attachment: &AttachmentUpload{FileName: "a.pdf", MimeType: "application/pdf", Size: 4096, Body: body}}},
		{"attachment type", ComplaintInput{Type: "delay", Description: "Late", Attachment: &AttachmentUpload{FileName: "a.exe", MimeType: "application/x-msdownload", Size: 10, Body: body}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newComplaintFixture()
			_, err := f.svc.Submit(context.Background(), clientActor, "order-1", tt.input)
			assert.Equal(t, "VALIDATION_FAILED", errCode(err))
			f.complaints.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			f.objects.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			assert.Empty(t, f.events.types())
		})
	}
}

func TestSubmitWithAttachment(t *testing.T) {
	f := newComplaintFixture()
	f.objects.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "complaints/order-1/") && strings.HasSuffix(key, "_invoice.pdf")
	}), mock.Anything, int64(3), "application/pdf").Return(nil).Once()
	f.complaints.On("Create", mock.Anything, mock.AnythingOfType("*domain.Complaint")).Return(nil).Once()

	c, err := f.svc.Submit(context.Background(), clientActor, "order-1", ComplaintInput{
		Type:        "Billing",
		Description: "Charged twice",
		Attachment:  &AttachmentUpload{FileName: "invoice.pdf", MimeType: "application/pdf", Size: 3, Body: strings.NewReader("pdf")},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintTypeBilling, c.Type)
	assert.Equal(t, domain.ComplaintStatusSubmitted, c.Status)
	require.NotNil(t, c.Attachment)
	assert.Equal(t, "invoice.pdf", c.Attachment.FileName)
	assert.Equal(t, []events.EventType{events.EventComplaintSubmitted}, f.events.types())
	f.objects.AssertExpectations(t)
	f.complaints.AssertExpectations(t)
}

func TestSubmitRemovesAttachmentWhenInsertFails(t *testing.T) {
	f := newComplaintFixture()
	f.objects.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.objects.On("Delete", mock.Anything, mock.Anything).Return(nil).Once()
	f.complaints.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	_, err := f.svc.Submit(context.Background(), clientActor, "order-1", ComplaintInput{
		Type:        "delay",
		Description: "Late",
		Attachment:  &AttachmentUpload{FileName: "a.png", MimeType: "image/png", Size: 1, Body: strings.NewReader("p")},
	})
	require.Error(t, err)
	f.objects.AssertExpectations(t)
}

func TestSubmitForeignOrder(t *testing.T) {
	f := newComplaintFixture()
	_, err := f.svc.Submit(context.Background(), otherClient, "order-1", ComplaintInput{Type: "delay", Description: "Late"})
	assert.Equal(t, "FORBIDDEN", errCode(err))
	f.complaints.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGetPresignsAttachment(t *testing.T) {
	f := newComplaintFixture()
	stored := &domain.Complaint{
		ID: "complaint-1", OrderID: "order-1", UserID: clientActor.ID, Status: domain.ComplaintStatusSubmitted,
		Attachment: &domain.Attachment{StorageKey: "complaints/order-1/k_a.png"},
	}
	f.complaints.On("GetByID", mock.Anything, "complaint-1").Return(stored, nil)
	f.objects.On("PresignGet", mock.Anything, "complaints/order-1/k_a.png", attachmentURLTTL).Return("https://signed", nil).Once()

	view, err := f.svc.Get(context.Background(), clientActor, "complaint-1")
	require.NoError(t, err)
	assert.Equal(t, "https://signed", view.AttachmentURL)

	_, err = f.svc.Get(context.Background(), otherClient, "complaint-1")
	assert.Equal(t, "FORBIDDEN", errCode(err))
}

func TestReview(t *testing.T) {
	f := newComplaintFixture()
	stored := &domain.Complaint{ID: "complaint-1", OrderID: "order-1", UserID: clientActor.ID, Status: domain.ComplaintStatusSubmitted}
	f.complaints.On("GetByID", mock.Anything, "complaint-1").Return(stored, nil)
	f.complaints.On("UpdateStatus", mock.Anything, "complaint-1", domain.ComplaintStatusSubmitted, domain.ComplaintStatusUnderReview, "Looking into it").Return(nil).Once()

	_, err := f.svc.Review(context.Background(), clientActor, "complaint-1", "under_review", "")
	assert.Equal(t, "FORBIDDEN", errCode(err))

	_, err = f.svc.Review(context.Background(), staffActor, "complaint-1", "resolved", "")
	assert.Equal(t, "INVALID_TRANSITION", errCode(err))

	c, err := f.svc.Review(context.Background(), staffActor, "complaint-1", "under-review", "Looking into it")
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusUnderReview, c.Status)
	assert.Equal(t, "Looking into it", c.ResolutionNote)

	require.Len(t, f.events.published, 1)
	payload := f.events.published[0].Payload.(events.ComplaintPayload)
	assert.Equal(t, clientActor.Email, payload.Recipient)
	assert.Equal(t, domain.ComplaintStatusSubmitted, payload.OldStatus)
}

func TestListScopesClients(t *testing.T) {
	f := newComplaintFixture()
	f.complaints.On("List", mock.Anything, mock.MatchedBy(func(filter repository.ComplaintFilter) bool {
		return filter.UserID != nil && *filter.UserID == clientActor.ID
	})).Return(nil, nil).Once()

	items, err := f.svc.List(context.Background(), clientActor, repository.ComplaintFilter{})
	require.NoError(t, err)
	assert.NotNil(t, items)
	f.complaints.AssertExpectations(t)
}
