package domain

import "time"

// SenderRole indicates who authored a chat message.
type SenderRole string

const (
	SenderRoleClient   SenderRole = "client"
	SenderRoleEmployee SenderRole = "employee"
	SenderRoleSystem   SenderRole = "system"
)

// ChatMessage captures a message in an order's conversation.
type ChatMessage struct {
	ID         string
	OrderID    string
	Seq        int64
	Text       string
	SenderID   string
	SenderName string
	SenderRole SenderRole
	Timestamp  time.Time
	IsRead     bool
}

// SenderRoleFor maps an account role to the chat sender role.
func SenderRoleFor(role Role) SenderRole {
	if role == RoleClient {
		return SenderRoleClient
	}
	return SenderRoleEmployee
}
