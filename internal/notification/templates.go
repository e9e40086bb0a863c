package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/consulting-service/internal/domain"
)

const layout = `{{define "layout"}}<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#1f2937">
<h2>{{.Heading}}</h2>
{{template "body" .}}
{{if .Link}}<p><a href="{{.Link}}">View details</a></p>{{end}}
<p style="color:#6b7280;font-size:12px">This is an automated message.</p>
</body></html>{{end}}`

var bodies = map[string]string{
	"order_placed": `{{define "body"}}<p>Hi {{.Order.UserName}},</p>
<p>We received your payment for <strong>{{.Order.ServiceName}}</strong> ({{.Amount}}). Your order is now confirmed.</p>{{end}}`,
	"order_status": `{{define "body"}}<p>Hi {{.Order.UserName}},</p>
<p>Your order for <strong>{{.Order.ServiceName}}</strong> moved from {{.OldStatus}} to <strong>{{.NewStatus}}</strong>.</p>
{{if .Note}}<p>Note: {{.Note}}</p>{{end}}{{end}}`,
	"order_cancelled": `{{define "body"}}<p>Hi {{.Order.UserName}},</p>
<p>Your order for <strong>{{.Order.ServiceName}}</strong> has been cancelled.</p>
{{if .Note}}<p>Reason: {{.Note}}</p>{{end}}{{end}}`,
	"admin_alert": `{{define "body"}}<p>Order {{.Order.ID}} for {{.Order.UserName}} ({{.Order.UserEmail}}) is now <strong>{{.NewStatus}}</strong> (was {{.OldStatus}}).</p>
<p>Service: {{.Order.ServiceName}}, amount {{.Amount}}.</p>
{{if .Note}}<p>Note: {{.Note}}</p>{{end}}{{end}}`,
	"complaint": `{{define "body"}}<p>Your complaint about order {{.Complaint.OrderID}} is now <strong>{{.Complaint.Status}}</strong>.</p>
{{if .Complaint.ResolutionNote}}<p>{{.Complaint.ResolutionNote}}</p>{{end}}{{end}}`,
	"complaint_submitted": `{{define "body"}}<p>A {{.Complaint.Type}} complaint was filed on order {{.Complaint.OrderID}}.</p>
<p>{{.Complaint.Description}}</p>{{end}}`,
	"password_reset": `{{define "body"}}<p>Hi {{.Name}},</p>
<p>Use the link below to choose a new password. It expires in {{.Note}}.</p>
<p>If you did not ask for this, ignore this email.</p>{{end}}`,
}

// Composer renders notification emails. All interpolated values are HTML-escaped.
type Composer struct {
	templates  map[string]*template.Template
	publicURL  string
	adminEmail string
}

// NewComposer parses the built-in templates.
func NewComposer(publicURL, adminEmail string) (*Composer, error) {
	c := &Composer{
		templates:  make(map[string]*template.Template, len(bodies)),
		publicURL:  strings.TrimRight(publicURL, "/"),
		adminEmail: adminEmail,
	}
	for name, body := range bodies {
		t, err := template.New(name).Parse(layout)
		if err != nil {
			return nil, err
		}
		if _, err := t.Parse(body); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		c.templates[name] = t
	}
	return c, nil
}

// AdminEmail returns the configured alert recipient, empty when alerts are off.
func (c *Composer) AdminEmail() string {
	return c.adminEmail
}

type templateData struct {
	Heading   string
	Link      string
	Order     *domain.Order
	Complaint *domain.Complaint
	Amount    string
	OldStatus domain.OrderStatus
	NewStatus domain.OrderStatus
	Note      string
	Name      string
}

func (c *Composer) render(name, to, subject string, category domain.EmailCategory, data templateData) (Email, error) {
	var buf bytes.Buffer
	if err := c.templates[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		return Email{}, fmt.Errorf("render %s: %w", name, err)
	}
	return Email{
		ID:       uuid.NewString(),
		To:       to,
		Subject:  subject,
		HTML:     buf.String(),
		Category: category,
	}, nil
}

func (c *Composer) orderLink(orderID string) string {
	if c.publicURL == "" {
		return ""
	}
	return c.publicURL + "/orders/" + orderID
}

// OrderPlaced renders the payment confirmation sent to the client.
func (c *Composer) OrderPlaced(order *domain.Order) (Email, error) {
	return c.render("order_placed", order.UserEmail,
		fmt.Sprintf("Order confirmed: %s", order.ServiceName),
		domain.EmailCategoryOrderPlaced,
		templateData{
			Heading: "Thank you for your order",
			Link:    c.orderLink(order.ID),
			Order:   order,
			Amount:  FormatAmount(order.Amount, order.Currency),
		})
}

// OrderStatusChanged renders the client email for a status change or cancellation.
func (c *Composer) OrderStatusChanged(order *domain.Order, old domain.OrderStatus, note string) (Email, error) {
	name, category := "order_status", domain.EmailCategoryOrderStatus
	subject := fmt.Sprintf("Your order is now %s", order.Status)
	if order.Status == domain.OrderStatusCancelled {
		name, category = "order_cancelled", domain.EmailCategoryOrderCancelled
		subject = "Your order has been cancelled"
	}
	return c.render(name, order.UserEmail, subject, category, templateData{
		Heading:   "Order update",
		Link:      c.orderLink(order.ID),
		Order:     order,
		OldStatus: old,
		NewStatus: order.Status,
		Note:      note,
	})
}

// AdminAlert renders the admin copy of a status change.
func (c *Composer) AdminAlert(order *domain.Order, old domain.OrderStatus, note string) (Email, error) {
	return c.render("admin_alert", c.adminEmail,
		fmt.Sprintf("[admin] order %s %s", order.ID, order.Status),
		domain.EmailCategoryAdminAlert,
		templateData{
			Heading:   "Order status changed",
			Link:      c.orderLink(order.ID),
			Order:     order,
			Amount:    FormatAmount(order.Amount, order.Currency),
			OldStatus: old,
			NewStatus: order.Status,
			Note:      note,
		})
}

// ComplaintUpdated renders the client email for a complaint review step.
func (c *Composer) ComplaintUpdated(complaint *domain.Complaint, to string) (Email, error) {
	return c.render("complaint", to,
		fmt.Sprintf("Complaint update: %s", complaint.Status),
		domain.EmailCategoryComplaint,
		templateData{
			Heading:   "Complaint update",
			Link:      c.orderLink(complaint.OrderID),
			Complaint: complaint,
		})
}

// ComplaintSubmitted renders the admin alert for a new complaint.
func (c *Composer) ComplaintSubmitted(complaint *domain.Complaint) (Email, error) {
	return c.render("complaint_submitted", c.adminEmail,
		fmt.Sprintf("[admin] new complaint on order %s", complaint.OrderID),
		domain.EmailCategoryAdminAlert,
		templateData{
			Heading:   "New complaint",
			Link:      c.orderLink(complaint.OrderID),
			Complaint: complaint,
		})
}

// PasswordReset renders the reset link email.
func (c *Composer) PasswordReset(user *domain.User, token string, ttl time.Duration) (Email, error) {
	link := ""
	if c.publicURL != "" {
		link = c.publicURL + "/reset-password?token=" + url.QueryEscape(token)
	}
	return c.render("password_reset", user.Email, "Reset your password",
		domain.EmailCategoryPasswordReset,
		templateData{
			Heading: "Password reset",
			Link:    link,
			Name:    user.DisplayName,
			Note:    ttl.String(),
		})
}

// FormatAmount renders minor units as "INR 1499.00".
func FormatAmount(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign, minor = "-", -minor
	}
	return fmt.Sprintf("%s %s%d.%02d", currency, sign, minor/100, minor%100)
}
