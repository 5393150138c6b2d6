package queue

import "time"

// Channel is a notification delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// NotificationPayload asks the notification processor to deliver a message.
type NotificationPayload struct {
	NotificationType string            `json:"notification_type"`
	BookingID        string            `json:"booking_id,omitempty"`
	RecipientEmail   string            `json:"recipient_email,omitempty"`
	RecipientPhone   string            `json:"recipient_phone,omitempty"`
	Subject          string            `json:"subject,omitempty"`
	Message          string            `json:"message,omitempty"`
	Channels         []Channel         `json:"channels,omitempty"`
	TemplateData     map[string]string `json:"template_data,omitempty"`
}

func (NotificationPayload) JobType() Type { return TypeNotification }
func (NotificationPayload) isPayload()    {}

// BookingAction is the operation a booking-processing job performs.
type BookingAction string

const (
	BookingConfirm    BookingAction = "confirm"
	BookingCancel     BookingAction = "cancel"
	BookingReschedule BookingAction = "reschedule"
	BookingReminder   BookingAction = "reminder"
	BookingFollowUp   BookingAction = "follow-up"
	BookingCheck      BookingAction = "payment-check"
)

// BookingMetadata carries action-specific arguments.
type BookingMetadata struct {
	Reason           string     `json:"reason,omitempty"`
	CancelledByStaff bool       `json:"cancelled_by_staff,omitempty"`
	Actor            string     `json:"actor,omitempty"`
	NewDateTime      *time.Time `json:"new_date_time,omitempty"`
	AssignedAgentID  string     `json:"assigned_agent_id,omitempty"`
}

// BookingPayload asks the booking processor to run Action on BookingID.
type BookingPayload struct {
	BookingID string          `json:"booking_id"`
	Action    BookingAction   `json:"action"`
	Metadata  BookingMetadata `json:"metadata,omitzero"`
}

func (BookingPayload) JobType() Type { return TypeBookingProcessing }
func (BookingPayload) isPayload()    {}

// PaymentAction is the operation a payment-processing job performs.
type PaymentAction string

const (
	PaymentCreate      PaymentAction = "create"
	PaymentCapture     PaymentAction = "capture"
	PaymentRefund      PaymentAction = "refund"
	PaymentCheckStatus PaymentAction = "check-status"
)

// PaymentPayload asks the payment processor to run Action.
// Amount is in minor currency units.
type PaymentPayload struct {
	Action    PaymentAction `json:"action"`
	PaymentID string        `json:"payment_id,omitempty"`
	BookingID string        `json:"booking_id,omitempty"`
	Amount    int64         `json:"amount,omitempty"`
	Currency  string        `json:"currency,omitempty"`
	Reason    string        `json:"reason,omitempty"`
}

func (PaymentPayload) JobType() Type { return TypePaymentProcessing }
func (PaymentPayload) isPayload()    {}
