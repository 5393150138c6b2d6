package crm

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Contact is the subset of CRM contact fields this service writes.
type Contact struct {
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	Name      string   `json:"name,omitempty"`
	Email     string   `json:"email,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Source    string   `json:"source,omitempty"`
}

type upsertContactRequest struct {
	LocationID string `json:"locationId"`
	Contact
}

type upsertContactResponse struct {
	Contact struct {
		ID string `json:"id"`
	} `json:"contact"`
	New bool `json:"new"`
}

// UpsertContact creates or updates a contact matched by email or phone and
// returns its ID.
func (c *Client) UpsertContact(ctx context.Context, contact Contact) (string, error) {
	if c.locationID == "" {
		return "", ErrMissingLocation
	}
	if contact.Name == "" {
		contact.Name = strings.TrimSpace(contact.FirstName + " " + contact.LastName)
	}

	res := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/contacts/upsert",
		Body:   upsertContactRequest{LocationID: c.locationID, Contact: contact},
	})

	var out upsertContactResponse
	if err := res.Decode(&out); err != nil {
		return "", err
	}
	return out.Contact.ID, nil
}

// AddContactTags attaches tags to a contact.
func (c *Client) AddContactTags(ctx context.Context, contactID string, tags ...string) error {
	if contactID == "" {
		return ErrMissingContact
	}
	if len(tags) == 0 {
		return nil
	}

	res := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/contacts/" + url.PathEscape(contactID) + "/tags",
		Body:   map[string][]string{"tags": tags},
	})
	return res.Err
}
