package repository

import (
	"context"
	"sync"

	"github.com/spec-kit/consulting-service/internal/domain"
)

// memoryMessageRepository keeps chat in process memory for deployments without MongoDB.
type memoryMessageRepository struct {
	mu      sync.RWMutex
	byOrder map[string][]domain.ChatMessage
}

// NewMemoryMessageRepository returns an in-process MessageRepository.
func NewMemoryMessageRepository() MessageRepository {
	return &memoryMessageRepository{byOrder: make(map[string][]domain.ChatMessage)}
}

func (r *memoryMessageRepository) Append(_ context.Context, msg *domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	log := r.byOrder[msg.OrderID]
	msg.Seq = int64(len(log)) + 1
	r.byOrder[msg.OrderID] = append(log, *msg)
	return nil
}

func (r *memoryMessageRepository) List(_ context.Context, orderID string, afterSeq int64, limit int) ([]domain.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	log := r.byOrder[orderID]
	if afterSeq <= 0 && limit > 0 && len(log) > limit {
		return append([]domain.ChatMessage{}, log[len(log)-limit:]...), nil
	}
	result := []domain.ChatMessage{}
	for _, m := range log {
		if m.Seq <= afterSeq {
			continue
		}
		result = append(result, m)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (r *memoryMessageRepository) MarkRead(_ context.Context, orderID, readerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	log := r.byOrder[orderID]
	for i := range log {
		if log[i].SenderID != readerID && !log[i].IsRead {
			log[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *memoryMessageRepository) CountUnread(_ context.Context, sender domain.SenderRole) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, log := range r.byOrder {
		for _, m := range log {
			if m.SenderRole == sender && !m.IsRead {
				n++
			}
		}
	}
	return n, nil
}
