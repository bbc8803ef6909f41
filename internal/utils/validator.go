package utils

import (
	"errors"
	"os"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/truemail-rb/truemail-go"
)

// Validator bundles struct validation, input sanitization and the optional
// deliverability check for email addresses.
type Validator struct {
	Validate    *validator.Validate
	VerifyEmail func(email string) bool

	policy *bluemonday.Policy
}

var (
	instance      *Validator
	once          sync.Once
	configuration *truemail.Configuration
)

// emailPattern is the accepted address grammar: a local part of word
// characters plus [+-.], one or more hyphenated domain labels and an
// alphabetic TLD. Matched case-insensitively; consecutive dots in the
// domain are rejected because empty labels cannot match.
var emailPattern = regexp.MustCompile(`^(?i)[\w+\-.]+@[a-z\d\-]+(\.[a-z\d\-]+)*\.[a-z]+$`)

func GetValidator() *Validator {
	once.Do(func() {
		configuration, _ = truemail.NewConfiguration(truemail.ConfigurationAttr{
			VerifierEmail:         "noreply@microblog.example",
			ValidationTypeDefault: "mx",
			SmtpFailFast:          true,
		})

		instance = &Validator{
			Validate:    validator.New(validator.WithRequiredStructEnabled()),
			VerifyEmail: verifyEmail,
			policy:      bluemonday.StrictPolicy(),
		}

		registerCustomValidators(instance.Validate)
	})

	return instance
}

// verifyEmail runs the truemail MX check. It is only consulted when
// EMAIL_VERIFICATION=mx, since it needs outbound DNS.
func verifyEmail(email string) bool {
	if os.Getenv("EMAIL_VERIFICATION") != "mx" {
		return true
	}
	return truemail.IsValid(email, configuration)
}

func registerCustomValidators(v *validator.Validate) {
	if err := v.RegisterValidation("email_format", emailFormatValidation); err != nil {
		return
	}
}

func emailFormatValidation(fl validator.FieldLevel) bool {
	return emailPattern.MatchString(fl.Field().String())
}

// ValidEmail reports whether the address matches the accepted grammar.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// NormalizeEmail lower-cases an address the way it is persisted.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SanitizeData strips markup from every string field of the given struct
// pointer in place.
func (v *Validator) SanitizeData(obj interface{}) error {
	val := reflect.ValueOf(obj)
	if val.Kind() != reflect.Ptr || val.Elem().Kind() != reflect.Struct {
		return errors.New("sanitize target must be a pointer to a struct")
	}

	elem := val.Elem()
	for i := 0; i < elem.NumField(); i++ {
		field := elem.Field(i)
		if field.Kind() == reflect.String && field.CanSet() {
			field.SetString(v.policy.Sanitize(field.String()))
		}
	}

	return nil
}

// FieldViolations flattens validator errors into a field-keyed map of the
// violated constraints, suitable for the error envelope.
func FieldViolations(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	fields := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		constraint := fieldErr.Tag()
		if fieldErr.Param() != "" {
			constraint += "=" + fieldErr.Param()
		}
		fields[strings.ToLower(fieldErr.Field())] = constraint
	}

	return fields
}
