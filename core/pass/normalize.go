package pass

import (
	"errors"
	"regexp"
	"time"

	"press-pass/core/utils"

	"github.com/go-playground/validator/v10"
)

// Mode selects how strictly Normalize treats the email address.
type Mode int

const (
	// ModeTracking is used for passes created by the generator page: the
	// email is required.
	ModeTracking Mode = iota
	// ModeOptionalEmail accepts a missing email but still checks its shape
	// when one is given. The checkout path uses it.
	ModeOptionalEmail
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Field spellings, in precedence order.
var (
	nameKeys      = []string{"name", "full_name"}
	idKeys        = []string{"pass_number", "id"}
	createdAtKeys = []string{"created_at", "issued_on", "issued_at"}
)

type trackedFields struct {
	Name  string `validate:"required"`
	Email string `validate:"required,pass_email"`
}

type openFields struct {
	Name  string `validate:"required"`
	Email string `validate:"omitempty,pass_email"`
}

// Normalizer maps heterogeneous input onto Record.
type Normalizer struct {
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClock overrides the clock used for default creation times.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// WithIDGenerator overrides GenerateID.
func WithIDGenerator(gen func() string) Option {
	return func(n *Normalizer) { n.newID = gen }
}

// NewNormalizer creates a Normalizer with the pass_email validation registered.
func NewNormalizer(opts ...Option) *Normalizer {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("pass_email", validateEmail)

	n := &Normalizer{
		validate: v,
		now:      time.Now,
		newID:    GenerateID,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func validateEmail(fl validator.FieldLevel) bool {
	return emailPattern.MatchString(fl.Field().String())
}

// NewID returns a fresh id from the configured generator.
func (n *Normalizer) NewID() string {
	return n.newID()
}

// Normalize validates in and returns the canonical record it describes.
// Payment flags always start unpaid; they are not accepted from input.
func (n *Normalizer) Normalize(in Input, mode Mode) (Record, error) {
	name := firstString(in, nameKeys...)
	email := utils.ToString(in["email"])

	var err error
	if mode == ModeTracking {
		err = n.validate.Struct(trackedFields{Name: name, Email: email})
	} else {
		err = n.validate.Struct(openFields{Name: name, Email: email})
	}
	if err != nil {
		return Record{}, toValidationError(err)
	}

	rec := Record{
		ID:           ExplicitID(in),
		Name:         name,
		Email:        email,
		Title:        optionalString(in["title"]),
		Organization: optionalString(in["organization"]),
		DownloadType: utils.ToString(in["download_type"]),
	}
	if rec.ID == "" {
		rec.ID = n.newID()
	}
	if rec.DownloadType == "" {
		rec.DownloadType = DefaultDownloadType
	}
	if created, ok := firstTime(in, createdAtKeys...); ok {
		rec.CreatedAt = created
	} else {
		rec.CreatedAt = n.now().UTC()
	}
	return rec, nil
}

// NormalizePatch extracts the updatable fields of in. Identity and creation
// time are ignored.
func (n *Normalizer) NormalizePatch(in Input) (Patch, error) {
	var p Patch
	for _, key := range nameKeys {
		if v, ok := in[key]; ok {
			s := utils.ToString(v)
			p.Name = &s
			break
		}
	}
	if v, ok := in["email"]; ok {
		s := utils.ToString(v)
		p.Email = &s
	}
	if v, ok := in["title"]; ok {
		s := utils.ToString(v)
		p.Title = &s
	}
	if v, ok := in["organization"]; ok {
		s := utils.ToString(v)
		p.Organization = &s
	}
	if v, ok := in["download_type"]; ok {
		s := utils.ToString(v)
		p.DownloadType = &s
	}

	if err := n.ValidatePatch(p); err != nil {
		return Patch{}, err
	}
	return p, nil
}

// ValidatePatch rejects an empty name or a malformed email.
func (n *Normalizer) ValidatePatch(p Patch) error {
	if p.Name != nil && *p.Name == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if p.Email != nil && *p.Email != "" {
		if err := n.validate.Var(*p.Email, "pass_email"); err != nil {
			return &ValidationError{Field: "email", Message: "is not a valid email address"}
		}
	}
	return nil
}

// Decode reads a fallback entry without validating it. Fallback entries
// treat id as canonical and keep a differing pass_number as the legacy id.
func Decode(in Input) Record {
	rec := decodeFields(in)
	rec.ID = utils.ToString(in["id"])

	passNumber := utils.ToString(in["pass_number"])
	switch {
	case rec.ID == "":
		rec.ID = passNumber
	case passNumber != "" && passNumber != rec.ID:
		rec.LegacyID = passNumber
	}
	return rec
}

// DecodeRow reads a primary press_passes row. The primary is keyed by
// pass_number; its own id column is a surrogate key and is only used when a
// row carries no pass_number.
func DecodeRow(in Input) Record {
	rec := decodeFields(in)
	rec.ID = utils.ToString(in["pass_number"])
	if rec.ID == "" {
		rec.ID = utils.ToString(in["id"])
	}
	return rec
}

func decodeFields(in Input) Record {
	rec := Record{
		Name:           firstString(in, nameKeys...),
		Email:          utils.ToString(in["email"]),
		Title:          optionalString(in["title"]),
		Organization:   optionalString(in["organization"]),
		DownloadType:   utils.ToString(in["download_type"]),
		Paid:           utils.ToBool(in["paid"]),
		PaymentPending: utils.ToBool(in["payment_pending"]) || utils.ToBool(in["paymentPending"]),
		PaymentID:      optionalString(in["payment_id"]),
	}
	if rec.DownloadType == "" {
		rec.DownloadType = DefaultDownloadType
	}
	if created, ok := firstTime(in, createdAtKeys...); ok {
		rec.CreatedAt = created
	}
	if amount := utils.ToInt64(in["payment_amount"]); amount > 0 {
		rec.PaymentAmount = &amount
	}
	if at, ok := utils.ToTime(in["payment_date"]); ok {
		rec.PaymentDate = &at
	}
	return rec
}

// ExplicitID returns the id supplied by the caller, if any.
func ExplicitID(in Input) string {
	return firstString(in, idKeys...)
}

func firstString(in Input, keys ...string) string {
	for _, key := range keys {
		if s := utils.ToString(in[key]); s != "" {
			return s
		}
	}
	return ""
}

func firstTime(in Input, keys ...string) (time.Time, bool) {
	for _, key := range keys {
		if t, ok := utils.ToTime(in[key]); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func optionalString(v any) *string {
	s := utils.ToString(v)
	if s == "" {
		return nil
	}
	return &s
}

func toValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Field: "input", Message: err.Error()}
	}
	fe := fieldErrs[0]
	field := "name"
	if fe.Field() == "Email" {
		field = "email"
	}
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: field, Message: "is required"}
	case "pass_email":
		return &ValidationError{Field: field, Message: "is not a valid email address"}
	default:
		return &ValidationError{Field: field, Message: "is invalid"}
	}
}
