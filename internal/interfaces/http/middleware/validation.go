package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// SetupValidator reports fields by their json (or form) name and registers
// the notblank tag used for client references and product keys
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(wireName)
	_ = v.RegisterValidation("notblank", validators.NotBlank)
}

func wireName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}
	return ""
}

// FormatValidationErrors lists one detail per failing field. Nested fields
// keep their path below the request, e.g. "lines[0].product_key".
func FormatValidationErrors(err error, requestID string) dto.Response {
	var verrs validator.ValidationErrors
	var details []dto.ValidationDetail
	if errors.As(err, &verrs) {
		details = make([]dto.ValidationDetail, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, dto.ValidationDetail{Field: fieldPath(fe), Message: fieldMessage(fe)})
		}
	}
	return dto.Fail(dto.ErrCodeValidation, "Request validation failed", requestID).WithFields(details)
}

// HandleValidationError answers 400 with the field details of err
func HandleValidationError(c *gin.Context, err error) {
	c.Set(ErrorCodeKey, dto.ErrCodeValidation)
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, RequestIDFrom(c)))
}

func fieldPath(fe validator.FieldError) string {
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		return rest
	}
	return fe.Field()
}

var fixedMessages = map[string]string{
	"required": "This field is required",
	"notblank": "Must not be blank",
	"uuid":     "Invalid UUID format",
	"iso4217":  "Must be an ISO 4217 currency code",
	"url":      "Invalid URL format",
}

var boundMessages = map[string]string{
	"oneof": "Must be one of: ",
	"gte":   "Must be greater than or equal to ",
	"lte":   "Must be less than or equal to ",
	"gt":    "Must be greater than ",
	"lt":    "Must be less than ",
}

func fieldMessage(fe validator.FieldError) string {
	tag, param := fe.Tag(), fe.Param()
	if msg, ok := fixedMessages[tag]; ok {
		return msg
	}
	if prefix, ok := boundMessages[tag]; ok {
		return prefix + param
	}

	kind := fe.Kind()
	switch tag {
	case "len":
		return "Must be exactly " + param + " characters"
	case "min":
		switch kind {
		case reflect.String:
			return "Must be at least " + param + " characters"
		case reflect.Slice, reflect.Array, reflect.Map:
			return "Must contain at least " + param + " items"
		}
		return "Must be at least " + param
	case "max":
		switch kind {
		case reflect.String:
			return "Must be at most " + param + " characters"
		case reflect.Slice, reflect.Array, reflect.Map:
			return "Must contain at most " + param + " items"
		}
		return "Must be at most " + param
	}
	return "Invalid value"
}
