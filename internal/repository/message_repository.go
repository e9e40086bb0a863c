package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spec-kit/consulting-service/internal/domain"
	"github.com/spec-kit/consulting-service/internal/persistence"
)

// MessageRepository stores the append-only per-order chat log.
type MessageRepository interface {
	// Append assigns the next per-order Seq and stores the message.
	Append(ctx context.Context, msg *domain.ChatMessage) error
	// List returns messages with Seq > afterSeq in ascending Seq order. With
	// afterSeq 0 and a positive limit it returns the newest limit messages.
	List(ctx context.Context, orderID string, afterSeq int64, limit int) ([]domain.ChatMessage, error)
	// MarkRead flags messages on the order not sent by readerID.
	MarkRead(ctx context.Context, orderID, readerID string) (int64, error)
	// CountUnread counts unread messages sent with the given role across all orders.
	CountUnread(ctx context.Context, sender domain.SenderRole) (int64, error)
}

// Sequencer hands out monotonically increasing numbers per key.
type Sequencer interface {
	Next(ctx context.Context, key string) (int64, error)
}

// SequenceSeeder is implemented by sequencers that can be moved forward to
// a known floor after they fall behind the stored data.
type SequenceSeeder interface {
	Seed(ctx context.Context, key string, floor int64) error
}

const maxAppendAttempts = 3

type messageDocument struct {
	ID         string    `bson:"_id"`
	OrderID    string    `bson:"order_id"`
	Seq        int64     `bson:"seq"`
	Text       string    `bson:"text"`
	SenderID   string    `bson:"sender_id"`
	SenderName string    `bson:"sender_name"`
	SenderRole string    `bson:"sender_role"`
	Timestamp  time.Time `bson:"timestamp"`
	IsRead     bool      `bson:"is_read"`
}

func (d messageDocument) toDomain() domain.ChatMessage {
	return domain.ChatMessage{
		ID:         d.ID,
		OrderID:    d.OrderID,
		Seq:        d.Seq,
		Text:       d.Text,
		SenderID:   d.SenderID,
		SenderName: d.SenderName,
		SenderRole: domain.SenderRole(d.SenderRole),
		Timestamp:  d.Timestamp,
		IsRead:     d.IsRead,
	}
}

type mongoMessageRepository struct {
	coll *mongo.Collection
	seq  Sequencer
}

// NewMongoMessageRepository builds a MongoDB-backed repository. seq may be nil,
// in which case the next number is derived from the stored maximum.
func NewMongoMessageRepository(db *mongo.Database, seq Sequencer) MessageRepository {
	return &mongoMessageRepository{coll: db.Collection(persistence.MessagesCollection), seq: seq}
}

func (r *mongoMessageRepository) Append(ctx context.Context, msg *domain.ChatMessage) error {
	var lastErr error
	var next int64
	for attempt := 0; attempt < maxAppendAttempts; attempt++ {
		if next == 0 {
			n, err := r.nextSeq(ctx, msg.OrderID)
			if err != nil {
				return err
			}
			next = n
		}
		doc := messageDocument{
			ID:         msg.ID,
			OrderID:    msg.OrderID,
			Seq:        next,
			Text:       msg.Text,
			SenderID:   msg.SenderID,
			SenderName: msg.SenderName,
			SenderRole: string(msg.SenderRole),
			Timestamp:  msg.Timestamp,
			IsRead:     msg.IsRead,
		}
		_, err := r.coll.InsertOne(ctx, doc)
		if err == nil {
			msg.Seq = next
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return err
		}
		lastErr = err
		// The sequencer is behind the log (restart, eviction); continue from the stored max.
		stored, err := r.storedMax(ctx, msg.OrderID)
		if err != nil {
			return err
		}
		next = stored + 1
		if seeder, ok := r.seq.(SequenceSeeder); ok {
			_ = seeder.Seed(ctx, sequenceKey(msg.OrderID), next)
		}
	}
	return fmt.Errorf("append message: %w", lastErr)
}

func sequenceKey(orderID string) string {
	return "chat:seq:" + orderID
}

func (r *mongoMessageRepository) nextSeq(ctx context.Context, orderID string) (int64, error) {
	if r.seq != nil {
		if n, err := r.seq.Next(ctx, sequenceKey(orderID)); err == nil {
			return n, nil
		}
	}
	last, err := r.storedMax(ctx, orderID)
	if err != nil {
		return 0, err
	}
	return last + 1, nil
}

func (r *mongoMessageRepository) storedMax(ctx context.Context, orderID string) (int64, error) {
	var last messageDocument
	opts := options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}}).SetProjection(bson.M{"seq": 1})
	err := r.coll.FindOne(ctx, bson.M{"order_id": orderID}, opts).Decode(&last)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return last.Seq, nil
}

func (r *mongoMessageRepository) List(ctx context.Context, orderID string, afterSeq int64, limit int) ([]domain.ChatMessage, error) {
	tail := afterSeq <= 0 && limit > 0
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	if tail {
		opts.SetSort(bson.D{{Key: "seq", Value: -1}})
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.coll.Find(ctx, bson.M{"order_id": orderID, "seq": bson.M{"$gt": afterSeq}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	result := []domain.ChatMessage{}
	for cursor.Next(ctx) {
		var doc messageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		result = append(result, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	if tail {
		slices.Reverse(result)
	}
	return result, nil
}

func (r *mongoMessageRepository) MarkRead(ctx context.Context, orderID, readerID string) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"order_id": orderID, "sender_id": bson.M{"$ne": readerID}, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *mongoMessageRepository) CountUnread(ctx context.Context, sender domain.SenderRole) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"sender_role": string(sender), "is_read": false})
}
