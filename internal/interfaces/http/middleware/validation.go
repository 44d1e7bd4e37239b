package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/domain/smartcode"
	"github.com/heraerp/platform/internal/interfaces/http/dto"
)

// SmartCodeTag is the binding tag that checks the smart code grammar
const SmartCodeTag = "smartcode"

// SetupValidator configures gin's validator: JSON field names in errors and
// the smartcode tag.
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding validator is not go-playground/validator")
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	return v.RegisterValidation(SmartCodeTag, func(fl validator.FieldLevel) bool {
		return smartcode.Validate(fl.Field().String()) == nil
	})
}

// FormatValidationErrors converts validator errors into the error envelope.
// A failed smartcode tag reports INVALID_SMART_CODE.
func FormatValidationErrors(errs validator.ValidationErrors, requestID string) dto.Response {
	details := make([]dto.ValidationDetail, 0, len(errs))
	code := shared.CodeValidationFailure
	for _, e := range errs {
		if e.Tag() == SmartCodeTag {
			code = shared.CodeInvalidSmartCode
		}
		details = append(details, dto.ValidationDetail{
			Field:   e.Field(),
			Message: getValidationMessage(e),
		})
	}
	resp := dto.NewValidationErrorResponse("Request validation failed", requestID, details)
	resp.Error.Code = code
	return resp
}

// HandleBindingError answers a failed ShouldBind* call
func HandleBindingError(c *gin.Context, err error) {
	requestID := GetRequestID(c)

	var validationErrs validator.ValidationErrors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &validationErrs):
		c.JSON(http.StatusBadRequest, FormatValidationErrors(validationErrs, requestID))
	case errors.As(err, &maxBytesErr):
		c.JSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(dto.ErrCodePayloadTooLarge, "Request body exceeds maximum allowed size", requestID))
	case errors.As(err, &typeErr):
		resp := dto.NewErrorResponse(dto.ErrCodeInvalidJSON, "Invalid value type in request body", requestID)
		resp.Error.Fields = []dto.ValidationDetail{{Field: typeErr.Field, Message: "Must be " + typeErr.Type.String()}}
		c.JSON(http.StatusBadRequest, resp)
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeInvalidJSON, "Request body is not valid JSON", requestID))
	default:
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(shared.CodeValidationFailure, err.Error(), requestID))
	}
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case SmartCodeTag:
		return "Must be a smart code such as HERA.DOMAIN.MODULE.KIND.v1"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "dive":
		return "Invalid item"
	default:
		return "Invalid value"
	}
}
