// Package validation holds the guest information rules shared by the booking
// flow and the booking API.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	FieldFullName         = "fullName"
	FieldEmail            = "email"
	FieldTel              = "tel"
	FieldConfirmationCode = "confirmationCode"

	CodeLength = 6

	minNameLength  = 2
	maxNameLength  = 50
	minPhoneDigits = 10
)

// GuestFields lists the fields checked before a confirmation code is requested.
var GuestFields = []string{FieldFullName, FieldEmail, FieldTel}

var (
	phoneCharsRe = regexp.MustCompile(`^[0-9\s\-+()]+$`)
	codeRe       = regexp.MustCompile(`^[0-9]{6}$`)
)

// Fields is the candidate object of the guest information form.
type Fields struct {
	FullName         string `json:"fullName" validate:"required,fullname"`
	Email            string `json:"email" validate:"required,email"`
	Tel              string `json:"tel" validate:"required,phone_chars,phone_digits"`
	ConfirmationCode string `json:"confirmationCode" validate:"required,code6"`
}

// StructPartial matches on Go field names, not on json names.
var structFields = map[string]string{
	FieldFullName:         "FullName",
	FieldEmail:            "Email",
	FieldTel:              "Tel",
	FieldConfirmationCode: "ConfirmationCode",
}

// Errors maps a failing field name to its message. Passing fields are absent.
type Errors map[string]string

func (e Errors) Valid(field string) bool {
	_, failed := e[field]
	return !failed
}

func (e Errors) Empty() bool {
	return len(e) == 0
}

var messages = map[string]map[string]string{
	FieldFullName: {
		"required": "Full name is required",
		"fullname": "Full name must be between 2 and 50 characters",
	},
	FieldEmail: {
		"required": "Email is required",
		"email":    "Please enter a valid email address",
	},
	FieldTel: {
		"required":     "Phone number is required",
		"phone_chars":  "Phone number can only contain digits, spaces, dashes, plus signs and parentheses",
		"phone_digits": "Phone number must contain at least 10 digits",
	},
	FieldConfirmationCode: {
		"required": "Confirmation code is required",
		"code6":    "Confirmation code must be exactly 6 digits",
	},
}

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("fullname", validateFullName)
	v.RegisterValidation("phone_chars", validatePhoneChars)
	v.RegisterValidation("phone_digits", validatePhoneDigits)
	v.RegisterValidation("code6", validateCode)

	return &Validator{validate: v}
}

// Struct validates any struct tagged with the rules of this package.
func (v *Validator) Struct(s interface{}) error {
	return v.validate.Struct(s)
}

// Fields evaluates the schema against f. When only is given, just those
// fields are checked.
func (v *Validator) Fields(f Fields, only ...string) Errors {
	var err error
	if len(only) > 0 {
		names := make([]string, 0, len(only))
		for _, name := range only {
			if goName, ok := structFields[name]; ok {
				names = append(names, goName)
			}
		}
		err = v.validate.StructPartial(f, names...)
	} else {
		err = v.validate.Struct(f)
	}
	return toErrors(err)
}

// Message returns a readable description of a validation error.
func Message(err error) string {
	errs := toErrors(err)
	if errs.Empty() {
		if err == nil {
			return ""
		}
		return err.Error()
	}
	parts := make([]string, 0, len(errs))
	for _, name := range []string{FieldFullName, FieldEmail, FieldTel, FieldConfirmationCode} {
		if msg, ok := errs[name]; ok {
			parts = append(parts, msg)
			delete(errs, name)
		}
	}
	for name, msg := range errs {
		parts = append(parts, name+": "+msg)
	}
	return strings.Join(parts, "; ")
}

func toErrors(err error) Errors {
	out := Errors{}
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return out
	}
	for _, fe := range verrs {
		name := fe.Field()
		if _, seen := out[name]; seen {
			continue
		}
		tag := fe.Tag()
		if v, isString := fe.Value().(string); isString && strings.TrimSpace(v) == "" {
			tag = "required"
		}
		msg, ok := messages[name][tag]
		if !ok {
			msg = "failed on " + fe.Tag()
		}
		out[name] = msg
	}
	return out
}

func validateFullName(fl validator.FieldLevel) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(fl.Field().String()))
	return n >= minNameLength && n <= maxNameLength
}

func validatePhoneChars(fl validator.FieldLevel) bool {
	return phoneCharsRe.MatchString(fl.Field().String())
}

func validatePhoneDigits(fl validator.FieldLevel) bool {
	return len(digitsOnly(fl.Field().String())) >= minPhoneDigits
}

func validateCode(fl validator.FieldLevel) bool {
	return codeRe.MatchString(fl.Field().String())
}

// ValidCode reports whether code has the confirmation code shape.
func ValidCode(code string) bool {
	return codeRe.MatchString(code)
}

// FilterDigits keeps ASCII digits and truncates to CodeLength. It is the
// canonical confirmation code input filter.
func FilterDigits(s string) string {
	return truncate(digitsOnly(s), CodeLength)
}

// FilterAlphanumeric keeps letters, digits and spaces and truncates to
// CodeLength. Codes passed through it can still fail the digits-only rule.
func FilterAlphanumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ') {
			b.WriteRune(r)
		}
	}
	return truncate(b.String(), CodeLength)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
