package dto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SscSPs/doc_signing_app/internal/apperrors"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate runs struct tag validation outside of gin binding so services do
// not depend on the transport having validated their input.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, strings.Join(fields, "; "))
	}
	return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
}
