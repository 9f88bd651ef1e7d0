package audit

import "time"

// Metadata records who created and last modified a record.
type Metadata struct {
	CreatedBy      string
	CreatedAt      time.Time
	LastModifiedBy string
	LastModifiedAt *time.Time
}

func New(actor string, now time.Time) Metadata {
	return Metadata{CreatedBy: actor, CreatedAt: now}
}

// Touch stamps a modification. Creation fields are left alone.
func (m *Metadata) Touch(actor string, now time.Time) {
	m.LastModifiedBy = actor
	m.LastModifiedAt = &now
}
