package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrymomot/jobkit/pkg/cache"
	"github.com/dmitrymomot/jobkit/pkg/crm"
)

// ContactMessenger is the part of the CRM client used for SMS.
type ContactMessenger interface {
	UpsertContact(ctx context.Context, c crm.Contact) (string, error)
	SendSMS(ctx context.Context, contactID, message string) (string, error)
}

const (
	contactCacheSize = 1024
	contactCacheTTL  = time.Hour
)

// CRMSMSSender sends SMS through the CRM conversations API. The CRM addresses
// messages by contact, so the recipient is upserted first; resolved contact
// IDs are cached per phone number.
type CRMSMSSender struct {
	crm      ContactMessenger
	contacts *cache.LRU[string, string]
}

// NewCRMSMSSender wraps a CRM client.
func NewCRMSMSSender(c ContactMessenger) *CRMSMSSender {
	return &CRMSMSSender{
		crm:      c,
		contacts: cache.NewLRU[string, string](contactCacheSize, cache.WithTTL(contactCacheTTL)),
	}
}

func (s *CRMSMSSender) SendSMS(ctx context.Context, m Message, body string) error {
	contactID, ok := s.contacts.Get(m.Phone)
	if !ok {
		var err error
		contactID, err = s.crm.UpsertContact(ctx, crm.Contact{
			FirstName: m.FirstName,
			Email:     m.Email,
			Phone:     m.Phone,
		})
		if err != nil {
			return fmt.Errorf("upsert sms contact: %w", err)
		}
		s.contacts.Put(m.Phone, contactID)
	}

	if _, err := s.crm.SendSMS(ctx, contactID, body); err != nil {
		// The contact may have been merged or deleted in the CRM.
		s.contacts.Remove(m.Phone)
		return fmt.Errorf("send sms: %w", err)
	}
	return nil
}
