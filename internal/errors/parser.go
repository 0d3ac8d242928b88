package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// ErrorInfo is a code and message pair ready for an ErrorResponse
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError converts storage errors into a client-safe code and message.
// context names the resource or action, e.g. "menu item" or "create order".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "Something went wrong"}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: getNotFoundMessage(context)}
	}

	errLower := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errLower, "duplicate key") || strings.Contains(errLower, "unique constraint"):
		return parseDuplicateKeyError(errLower)
	case strings.Contains(errLower, "foreign key constraint"):
		return ErrorInfo{Code: ResourceConflict, Message: "The record is referenced by other data"}
	case strings.Contains(errLower, "not-null constraint") || strings.Contains(errLower, "not null constraint"):
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
	case strings.Contains(errLower, "check constraint"):
		return ErrorInfo{Code: ValidationInvalidInput, Message: "A field value is out of range"}
	case strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout"):
		return ErrorInfo{Code: InternalExternalAPI, Message: "A backing service is unavailable, please try again later"}
	}

	return ErrorInfo{Code: InternalServerError, Message: getDefaultErrorMessage(context)}
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	switch {
	case strings.Contains(errLower, "email"):
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "User already exists"}
	case strings.Contains(errLower, "order_number"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "Order number already in use, please retry"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "The record already exists"}
}

func getNotFoundMessage(context string) string {
	if context == "" {
		return "The requested resource was not found"
	}
	return fmt.Sprintf("%s not found", capitalize(context))
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.HasPrefix(contextLower, "create"):
		return "Could not create the record, please try again later"
	case strings.HasPrefix(contextLower, "update"):
		return "Could not update the record, please try again later"
	case strings.HasPrefix(contextLower, "delete"):
		return "Could not delete the record, please try again later"
	}
	return "Something went wrong, please try again later"
}

// ValidationFields flattens binding errors into field -> message
func ValidationFields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[toSnake(fe.Field())] = describeTag(fe)
	}
	return fields
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "menu_category":
		return "must be one of appetizers, mains, beverages, desserts"
	case "payment_method":
		return "must be one of card, paypal, apple, google, cash"
	case "order_status":
		return "is not a known order status"
	}
	return "is invalid"
}

// RespondBindingError writes per-field details when available, a plain 400 otherwise
func RespondBindingError(c interface{ JSON(int, interface{}) }, err error) {
	if fields := ValidationFields(err); len(fields) > 0 {
		c.JSON(http.StatusBadRequest, ValidationError{
			Error:   ValidationInvalidInput,
			Message: "Invalid input",
			Fields:  fields,
		})
		return
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: ValidationInvalidInput, Message: "Invalid request body"})
}

// ParseAndRespond parses err and writes it with the given status
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
