package httpapi

import (
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"schoolapi/internal/apperr"
)

// RegisterValidators installs custom validation rules on gin's binding
// validator. Call once at startup.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("password", passwordRule)
	}
}

// passwordRule requires at least one lowercase letter, one uppercase letter
// and one digit. Length bounds are separate min/max tags.
func passwordRule(fl validator.FieldLevel) bool {
	var hasLower, hasUpper, hasDigit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLower && hasUpper && hasDigit
}

// bindJSON decodes the request body into dst, converting binding failures to
// the validation-error taxonomy (field path + message list).
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return toValidationError(err)
	}
	return nil
}

// bindQuery decodes query parameters into dst.
func bindQuery(c *gin.Context, dst any) error {
	if err := c.ShouldBindQuery(dst); err != nil {
		return toValidationError(err)
	}
	return nil
}

func toValidationError(err error) error {
	var vErrs validator.ValidationErrors
	if ok := asValidationErrors(err, &vErrs); !ok {
		return &apperr.ValidationError{Fields: []apperr.FieldError{
			{Path: "body", Message: "Invalid request body"},
		}}
	}

	fields := make([]apperr.FieldError, 0, len(vErrs))
	for _, fe := range vErrs {
		fields = append(fields, apperr.FieldError{
			Path:    strings.ToLower(fe.Field()[:1]) + fe.Field()[1:],
			Message: ruleMessage(fe),
		})
	}
	return &apperr.ValidationError{Fields: fields}
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	vErrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = vErrs
	}
	return ok
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Must be at least " + fe.Param() + " characters"
	case "max":
		return "Must not exceed " + fe.Param() + " characters"
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "password":
		return "Must contain at least one uppercase letter, one lowercase letter, and one number"
	default:
		return "Invalid value"
	}
}
