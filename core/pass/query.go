package pass

// Column names of the press_passes collection.
const (
	ColumnID        = "pass_number"
	ColumnCreatedAt = "created_at"
)

// sortColumns whitelists the keys a listing may be ordered by.
var sortColumns = map[string]string{
	"id":              ColumnID,
	"pass_number":     ColumnID,
	"name":            "name",
	"email":           "email",
	"title":           "title",
	"organization":    "organization",
	"created_at":      ColumnCreatedAt,
	"createdAt":       ColumnCreatedAt,
	"issued_at":       ColumnCreatedAt,
	"paid":            "paid",
	"payment_pending": "payment_pending",
}

// Query describes a listing: equality filters, one sort key and an
// offset/limit window. A zero Limit means no limit.
type Query struct {
	Email        string
	Organization string
	SortBy       string
	Ascending    bool
	Offset       int
	Limit        int
}

// SortColumn resolves SortBy to a column, defaulting to the creation time.
func (q Query) SortColumn() string {
	if col, ok := sortColumns[q.SortBy]; ok {
		return col
	}
	return ColumnCreatedAt
}

// IsSortable reports whether key is an accepted sort key.
func IsSortable(key string) bool {
	_, ok := sortColumns[key]
	return ok
}
