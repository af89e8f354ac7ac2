package sqlstore

import (
	"time"

	"press-pass/core/pass"
)

// TableName is the primary collection.
const TableName = "press_passes"

// Row is a press_passes row.
type Row struct {
	PassNumber     string     `gorm:"column:pass_number;primaryKey;size:32"`
	Name           string     `gorm:"column:name;not null"`
	Email          string     `gorm:"column:email;index"`
	Title          *string    `gorm:"column:title"`
	Organization   *string    `gorm:"column:organization;index"`
	DownloadType   string     `gorm:"column:download_type;size:32;default:download"`
	CreatedAt      time.Time  `gorm:"column:created_at;index;autoCreateTime:false"`
	Paid           bool       `gorm:"column:paid;not null;default:false"`
	PaymentPending bool       `gorm:"column:payment_pending;not null;default:false"`
	PaymentID      *string    `gorm:"column:payment_id;index"`
	PaymentAmount  *int64     `gorm:"column:payment_amount"`
	PaymentDate    *time.Time `gorm:"column:payment_date"`
}

// TableName implements gorm's Tabler.
func (Row) TableName() string {
	return TableName
}

// Columns lists the columns the store reads and writes.
var Columns = []string{
	"pass_number", "name", "email", "title", "organization", "download_type",
	"created_at", "paid", "payment_pending", "payment_id", "payment_amount", "payment_date",
}

func fromRecord(r pass.Record) Row {
	return Row{
		PassNumber:     r.ID,
		Name:           r.Name,
		Email:          r.Email,
		Title:          r.Title,
		Organization:   r.Organization,
		DownloadType:   r.DownloadType,
		CreatedAt:      r.CreatedAt.UTC(),
		Paid:           r.Paid,
		PaymentPending: r.PaymentPending,
		PaymentID:      r.PaymentID,
		PaymentAmount:  r.PaymentAmount,
		PaymentDate:    r.PaymentDate,
	}
}

func (row Row) record() pass.Record {
	rec := pass.Record{
		ID:             row.PassNumber,
		Name:           row.Name,
		Email:          row.Email,
		Title:          row.Title,
		Organization:   row.Organization,
		DownloadType:   row.DownloadType,
		CreatedAt:      row.CreatedAt.UTC(),
		Paid:           row.Paid,
		PaymentPending: row.PaymentPending,
		PaymentID:      row.PaymentID,
		PaymentAmount:  row.PaymentAmount,
	}
	if rec.DownloadType == "" {
		rec.DownloadType = pass.DefaultDownloadType
	}
	if row.PaymentDate != nil {
		at := row.PaymentDate.UTC()
		rec.PaymentDate = &at
	}
	return rec
}
