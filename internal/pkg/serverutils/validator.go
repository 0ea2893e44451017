package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"ai-tutoring-be/internal/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest runs struct-tag validation and converts the first failure
// into a field-level validation error.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.Validation("request", err.Error())
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	return apperror.Validation(field, fmt.Sprintf("failed on the %q rule", fe.Tag()))
}
