package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindOrderConfirmation Kind = "order_confirmation"
	KindOrderStatus       Kind = "order_status"
	KindOTP               Kind = "otp"
)

// Message is one outbound notification. The text fields are rendered when
// the message is built so every Sender delivers the same content.
type Message struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	OrderID   int64     `json:"orderId,omitempty"`
	Amount    float64   `json:"amount,omitempty"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

func newMessage(kind Kind, to string) Message {
	return Message{
		ID:        uuid.NewString(),
		Kind:      kind,
		To:        to,
		CreatedAt: time.Now().UTC(),
	}
}

func OrderConfirmation(to string, orderID int64, amount float64) Message {
	msg := newMessage(KindOrderConfirmation, to)
	msg.OrderID = orderID
	msg.Amount = amount
	msg.Subject = fmt.Sprintf("Order Confirmation - LiveMART Order #%d", orderID)
	msg.Body = fmt.Sprintf("Dear Customer,\n\n"+
		"Thank you for shopping with LiveMART!\n"+
		"Your order #%d has been successfully placed.\n"+
		"Total Amount: ₹%.2f\n\n"+
		"We will notify you when your items are packed.\n\n"+
		"Best Regards,\nTeam LiveMART", orderID, amount)
	return msg
}

func OrderStatusUpdate(to string, orderID int64, status string) Message {
	msg := newMessage(KindOrderStatus, to)
	msg.OrderID = orderID
	msg.Status = status
	msg.Subject = fmt.Sprintf("LiveMART Order #%d is now %s", orderID, status)
	msg.Body = fmt.Sprintf("Dear Customer,\n\n"+
		"The status of your order #%d has changed to: %s.\n\n"+
		"Best Regards,\nTeam LiveMART", orderID, status)
	return msg
}

func OTP(to, code string) Message {
	msg := newMessage(KindOTP, to)
	msg.Subject = "Your LiveMART login code"
	msg.Body = fmt.Sprintf("Your one-time login code is %s.\n\nIf you did not request it, ignore this email.", code)
	return msg
}
