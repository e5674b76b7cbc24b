package utils

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	hasNumber  = regexp.MustCompile(`[0-9]`)
	hasUpper   = regexp.MustCompile(`[A-Z]`)
	hasLower   = regexp.MustCompile(`[a-z]`)
	hasSpecial = regexp.MustCompile(`[!@#$%^&*]`)
)

// MaxMoneyAmount - наибольшая сумма, помещающаяся в numeric(14,2)
var MaxMoneyAmount = decimal.RequireFromString("999999999999.99")

// FieldError - ошибка валидации конкретного поля
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewValidator создает валидатор с правилами приложения:
// password (цифра, заглавная, строчная, спецсимвол), document (CPF/CNPJ), postalcode и поддержкой decimal.Decimal
func NewValidator() *validator.Validate {
	validate := validator.New()

	// В ошибках используем имена полей из json-тегов
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	_ = validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})

	_ = validate.RegisterValidation("document", func(fl validator.FieldLevel) bool {
		return IsValidDocument(DigitsOnly(fl.Field().String()))
	})

	_ = validate.RegisterValidation("postalcode", func(fl validator.FieldLevel) bool {
		_, err := NormalizePostalCode(fl.Field().String())
		return err == nil
	})

	return validate
}

// IsStrongPassword проверяет политику паролей
func IsStrongPassword(password string) bool {
	return len(password) >= 8 &&
		hasNumber.MatchString(password) &&
		hasUpper.MatchString(password) &&
		hasLower.MatchString(password) &&
		hasSpecial.MatchString(password)
}

// FieldErrors переводит ошибки валидатора в список ошибок по полям
func FieldErrors(err error) []FieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	result := make([]FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		result = append(result, FieldError{Field: e.Field(), Message: fieldMessage(e)})
	}
	return result
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + e.Param() + " characters"
	case "max":
		return "must be at most " + e.Param() + " characters"
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lt":
		return "must be less than " + e.Param()
	case "lte":
		return "must be at most " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "password":
		return "must contain a digit, an upper-case letter, a lower-case letter and one of !@#$%^&*"
	case "document":
		return "must be a valid CPF or CNPJ"
	case "postalcode":
		return "must be a postal code with up to 8 digits"
	default:
		return "is invalid"
	}
}
