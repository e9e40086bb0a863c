package domain

import "time"

// EmailCategory tags outgoing mail by purpose.
type EmailCategory string

const (
	EmailCategoryOrderPlaced    EmailCategory = "order_placed"
	EmailCategoryOrderStatus    EmailCategory = "order_status"
	EmailCategoryOrderCancelled EmailCategory = "order_cancelled"
	EmailCategoryAdminAlert     EmailCategory = "admin_alert"
	EmailCategoryComplaint      EmailCategory = "complaint"
	EmailCategoryPasswordReset  EmailCategory = "password_reset"
)

// EmailRecord is one tracked send outcome.
type EmailRecord struct {
	MessageID string
	Timestamp time.Time
	Recipient string
	Category  EmailCategory
	Subject   string
	Status    string
	Attempts  int
	Error     string
}
