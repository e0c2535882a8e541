package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"docchat-be/pkg/ragerr"
)

var validate = validator.New()

// ValidateRequest checks a request DTO against its `validate` tags and
// converts violations into a ConfigurationError so the error middleware
// answers with 400.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, len(verrs))
		for i, fe := range verrs {
			fields[i] = fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag())
		}
		return ragerr.Configuration("invalid request: %s", strings.Join(fields, ", "))
	}
	return ragerr.Configuration("invalid request: %v", err)
}
