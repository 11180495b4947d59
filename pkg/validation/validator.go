package validation

import (
	"errors"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/oksasatya/go-user-management/internal/domain/apperror"
)

// Nickname bounds, inclusive.
const (
	NicknameMinLen = 6
	NicknameMaxLen = 20
	PasswordMinLen = 8
)

var nicknameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Validator wraps a configured go-playground validator.
type Validator struct {
	v *validator.Validate
}

// New builds a validator that reports JSON field names and knows the
// nickname, strongpwd and httpurl rules.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	register(v)
	return &Validator{v: v}
}

// Init configures the global validator used by Gin's binding with the same rules.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		register(v)
	}
}

func register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("nickname", func(fl validator.FieldLevel) bool {
		return ValidNickname(fl.Field().String())
	})
	_ = v.RegisterValidation("strongpwd", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
		return validHTTPURL(fl.Field().String())
	})
	v.RegisterAlias("uuid4", "uuid")
}

// Struct validates s and returns *apperror.ValidationError on failure.
func (v *Validator) Struct(s any) error {
	if err := v.v.Struct(s); err != nil {
		return toValidationError(err)
	}
	return nil
}

// Var validates a single value against tag, reporting violations under field.
func (v *Validator) Var(field string, value any, tag string) error {
	if err := v.v.Var(value, tag); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperror.NewValidationError(field, formatFieldError(verrs[0]))
		}
		return apperror.NewValidationError(field, "is invalid")
	}
	return nil
}

// ValidNickname reports whether s satisfies the nickname length and charset rules.
func ValidNickname(s string) bool {
	n := len(s)
	return n >= NicknameMinLen && n <= NicknameMaxLen && nicknameRe.MatchString(s)
}

// StrongPassword requires PasswordMinLen characters including an upper-case
// letter, a lower-case letter, a digit and a non-alphanumeric character.
func StrongPassword(s string) bool {
	if len(s) < PasswordMinLen {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsSpace(r):
			special = true
		}
	}
	return upper && lower && digit && special
}

func validHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// NormalizeNickname trims surrounding whitespace.
func NormalizeNickname(s string) string { return strings.TrimSpace(s) }

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return &apperror.ValidationError{Fields: out}
	}
	return apperror.NewValidationError("payload", "invalid payload")
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without_all":
		return "at least one field must be provided"
	case "email":
		return "must be a valid email"
	case "url", "httpurl":
		return "must be a valid http(s) URL"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "nickname":
		return "must be 6-20 characters of letters, digits, underscores or hyphens"
	case "strongpwd":
		return "must be at least 8 characters with uppercase, lowercase, number and special character"
	case "min":
		if isNumberKind(fe.Kind()) {
			return "must be at least " + param
		}
		return "must be at least " + param + " characters long"
	case "max":
		if isNumberKind(fe.Kind()) {
			return "must be at most " + param
		}
		return "must be at most " + param + " characters long"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	default:
		if param != "" {
			return "validation failed for '" + fe.Tag() + "' with parameter '" + param + "'"
		}
		return "validation failed for '" + fe.Tag() + "'"
	}
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
