package domain

import (
	"fmt"
	"strings"
	"time"
)

// ComplaintType classifies what a complaint is about.
type ComplaintType string

const (
	ComplaintTypeServiceQuality ComplaintType = "service_quality"
	ComplaintTypeBilling        ComplaintType = "billing"
	ComplaintTypeDelay          ComplaintType = "delay"
	ComplaintTypeCommunication  ComplaintType = "communication"
	ComplaintTypeOther          ComplaintType = "other"
)

// ParseComplaintType validates a raw complaint type.
func ParseComplaintType(raw string) (ComplaintType, error) {
	t := ComplaintType(strings.ToLower(strings.TrimSpace(raw)))
	switch t {
	case ComplaintTypeServiceQuality, ComplaintTypeBilling, ComplaintTypeDelay, ComplaintTypeCommunication, ComplaintTypeOther:
		return t, nil
	}
	return "", fmt.Errorf("unknown complaint type %q", raw)
}

// ComplaintStatus enumerates review states.
type ComplaintStatus string

const (
	ComplaintStatusSubmitted   ComplaintStatus = "submitted"
	ComplaintStatusUnderReview ComplaintStatus = "under_review"
	ComplaintStatusResolved    ComplaintStatus = "resolved"
	ComplaintStatusRejected    ComplaintStatus = "rejected"
)

var complaintTransitions = map[ComplaintStatus][]ComplaintStatus{
	ComplaintStatusSubmitted:   {ComplaintStatusUnderReview, ComplaintStatusRejected},
	ComplaintStatusUnderReview: {ComplaintStatusResolved, ComplaintStatusRejected},
	ComplaintStatusResolved:    {},
	ComplaintStatusRejected:    {},
}

// ParseComplaintStatus validates a raw complaint status.
func ParseComplaintStatus(raw string) (ComplaintStatus, error) {
	s := ComplaintStatus(strings.ToLower(strings.TrimSpace(strings.ReplaceAll(raw, "-", "_"))))
	if _, ok := complaintTransitions[s]; !ok {
		return "", fmt.Errorf("unknown complaint status %q", raw)
	}
	return s, nil
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s ComplaintStatus) CanTransitionTo(next ComplaintStatus) bool {
	for _, candidate := range complaintTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Open reports whether the complaint still needs attention.
func (s ComplaintStatus) Open() bool {
	return s == ComplaintStatusSubmitted || s == ComplaintStatusUnderReview
}

// Attachment stores metadata for an uploaded file.
type Attachment struct {
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
}

// Complaint is a client-raised issue against an order.
type Complaint struct {
	ID             string
	OrderID        string
	UserID         string
	Type           ComplaintType
	Description    string
	Status         ComplaintStatus
	ResolutionNote string
	Attachment     *Attachment
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
