package pass

import "time"

// DefaultDownloadType is recorded when the generator page does not say how
// the badge was delivered.
const DefaultDownloadType = "download"

// Record is the canonical press pass.
type Record struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Title        *string   `json:"title"`
	Organization *string   `json:"organization"`
	DownloadType string    `json:"download_type"`
	CreatedAt    time.Time `json:"created_at"`

	Paid           bool       `json:"paid"`
	PaymentPending bool       `json:"payment_pending"`
	PaymentID      *string    `json:"payment_id,omitempty"`
	PaymentAmount  *int64     `json:"payment_amount,omitempty"`
	PaymentDate    *time.Time `json:"payment_date,omitempty"`

	// LegacyID is the pass_number of entries written before ids were unified.
	LegacyID string `json:"pass_number,omitempty"`
}

// Matches reports whether id names this record, either directly or through
// its legacy pass number.
func (r Record) Matches(id string) bool {
	if id == "" {
		return false
	}
	return r.ID == id || r.LegacyID == id
}

// SameDetails reports whether o carries the same holder details as r.
// Identity, timestamps and payment state are not compared.
func (r Record) SameDetails(o Record) bool {
	return r.Name == o.Name && r.Email == o.Email && r.DownloadType == o.DownloadType &&
		optional(r.Title) == optional(o.Title) && optional(r.Organization) == optional(o.Organization)
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// EmailDomain returns the part of the email after '@', or "".
func (r Record) EmailDomain() string {
	for i := len(r.Email) - 1; i >= 0; i-- {
		if r.Email[i] == '@' {
			return r.Email[i+1:]
		}
	}
	return ""
}

// Input is a raw, heterogeneous field map as received from a client or read
// back from storage.
type Input map[string]any

// Patch holds the fields of a partial update. Nil fields are left alone.
type Patch struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty"`
	Title        *string `json:"title,omitempty"`
	Organization *string `json:"organization,omitempty"`
	DownloadType *string `json:"download_type,omitempty"`

	Paid           *bool      `json:"paid,omitempty"`
	PaymentPending *bool      `json:"payment_pending,omitempty"`
	PaymentID      *string    `json:"payment_id,omitempty"`
	PaymentAmount  *int64     `json:"payment_amount,omitempty"`
	PaymentDate    *time.Time `json:"payment_date,omitempty"`
}

// IsEmpty reports whether the patch names no field at all.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Title == nil && p.Organization == nil &&
		p.DownloadType == nil && p.Paid == nil && p.PaymentPending == nil &&
		p.PaymentID == nil && p.PaymentAmount == nil && p.PaymentDate == nil
}

// Apply shallow-merges the patch over r. ID and CreatedAt never change.
func (p Patch) Apply(r Record) Record {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Email != nil {
		r.Email = *p.Email
	}
	if p.Title != nil {
		r.Title = nilIfEmpty(p.Title)
	}
	if p.Organization != nil {
		r.Organization = nilIfEmpty(p.Organization)
	}
	if p.DownloadType != nil {
		r.DownloadType = *p.DownloadType
	}
	if p.Paid != nil {
		r.Paid = *p.Paid
	}
	if p.PaymentPending != nil {
		r.PaymentPending = *p.PaymentPending
	}
	if p.PaymentID != nil {
		r.PaymentID = p.PaymentID
	}
	if p.PaymentAmount != nil {
		r.PaymentAmount = p.PaymentAmount
	}
	if p.PaymentDate != nil {
		r.PaymentDate = p.PaymentDate
	}
	return r
}

// Columns maps the patch onto press_passes column names.
func (p Patch) Columns() map[string]any {
	cols := make(map[string]any)
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Email != nil {
		cols["email"] = *p.Email
	}
	if p.Title != nil {
		cols["title"] = nilIfEmpty(p.Title)
	}
	if p.Organization != nil {
		cols["organization"] = nilIfEmpty(p.Organization)
	}
	if p.DownloadType != nil {
		cols["download_type"] = *p.DownloadType
	}
	if p.Paid != nil {
		cols["paid"] = *p.Paid
	}
	if p.PaymentPending != nil {
		cols["payment_pending"] = *p.PaymentPending
	}
	if p.PaymentID != nil {
		cols["payment_id"] = *p.PaymentID
	}
	if p.PaymentAmount != nil {
		cols["payment_amount"] = *p.PaymentAmount
	}
	if p.PaymentDate != nil {
		cols["payment_date"] = p.PaymentDate.UTC()
	}
	return cols
}

// MarkPaid is the patch applied once a payment is confirmed.
func MarkPaid(paymentID string, amount int64, at time.Time) Patch {
	paid, pending := true, false
	p := Patch{Paid: &paid, PaymentPending: &pending, PaymentDate: &at}
	if paymentID != "" {
		p.PaymentID = &paymentID
	}
	if amount > 0 {
		p.PaymentAmount = &amount
	}
	return p
}

func nilIfEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
