package contact

import "context"

// Contact is a read/write view onto a person record owned by the external
// directory. The bridge never persists it locally.
type Contact struct {
	ID    string
	Email string
	Phone string
	Tags  []string
}

// HasTag reports whether the directory already lists tagID on the contact.
func (c *Contact) HasTag(tagID string) bool {
	for _, t := range c.Tags {
		if t == tagID {
			return true
		}
	}
	return false
}

// CreateAttrs are the attributes for an explicit contact creation.
type CreateAttrs struct {
	Email string
	Phone string
}

// UpdateAttrs carries a partial update of directory-owned properties.
type UpdateAttrs struct {
	Properties map[string]string
}

// Directory defines the contact directory operations required by the domain
// layer. AddTag must be safe to repeat: applying the same (contact, tag) pair
// twice leaves the same end state as applying it once.
type Directory interface {
	SearchByAttribute(ctx context.Context, field, value string) ([]Contact, error)
	CreateContact(ctx context.Context, attrs CreateAttrs) (*Contact, error)
	UpdateContact(ctx context.Context, id string, attrs UpdateAttrs) (*Contact, error)
	AddTag(ctx context.Context, contactID, tagID string) error
}
