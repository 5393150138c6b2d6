package crm

import (
	"context"
	"net/http"
)

type sendMessageRequest struct {
	Type      string `json:"type"`
	ContactID string `json:"contactId"`
	Message   string `json:"message"`
}

type sendMessageResponse struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
}

// SendSMS sends a text message to a contact through the CRM conversations API
// and returns the message ID.
func (c *Client) SendSMS(ctx context.Context, contactID, message string) (string, error) {
	if contactID == "" {
		return "", ErrMissingContact
	}
	if message == "" {
		return "", ErrEmptyMessage
	}

	res := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/conversations/messages",
		Body:   sendMessageRequest{Type: "SMS", ContactID: contactID, Message: message},
	})

	var out sendMessageResponse
	if err := res.Decode(&out); err != nil {
		return "", err
	}
	return out.MessageID, nil
}
