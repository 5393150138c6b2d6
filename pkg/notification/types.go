package notification

// Type names a notification and selects its templates.
type Type string

const (
	TypeBookingConfirmation Type = "BOOKING_CONFIRMATION"
	TypeBookingCancelled    Type = "BOOKING_CANCELLED"
	TypeBookingRescheduled  Type = "BOOKING_RESCHEDULED"
	TypeAppointmentReminder Type = "APPOINTMENT_REMINDER"
	TypePostServiceFollowUp Type = "POST_SERVICE_FOLLOWUP"
	TypePaymentRequest      Type = "PAYMENT_REQUEST"
	TypePaymentConfirmation Type = "PAYMENT_CONFIRMATION"
	TypePaymentExpired      Type = "PAYMENT_EXPIRED"
	TypeRefundIssued        Type = "REFUND_ISSUED"
	TypeOperatorAlert       Type = "OPERATOR_ALERT"

	// TypeCustom renders an explicit subject and message in the shared layout.
	TypeCustom Type = "CUSTOM"
)

// Channel is a delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Message is one notification to one recipient.
// Subject and Body, when set, replace the rendered template text.
type Message struct {
	Type      Type
	BookingID string
	Email     string
	Phone     string
	FirstName string
	Subject   string
	Body      string
	Channels  []Channel
	Data      map[string]string
}

// HasRecipient reports whether at least one address is set.
func (m Message) HasRecipient() bool {
	return m.Email != "" || m.Phone != ""
}

func (m Message) channels() []Channel {
	if len(m.Channels) == 0 {
		return []Channel{ChannelEmail}
	}
	return m.Channels
}

// Delivery reports per-channel outcomes of Send.
type Delivery struct {
	Sent    []Channel          `json:"sent,omitempty"`
	Skipped []Channel          `json:"skipped,omitempty"`
	Failed  map[Channel]string `json:"failed,omitempty"`
}
