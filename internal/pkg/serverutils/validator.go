package serverutils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ValidateRequest runs struct-tag validation on a request DTO and converts
// failures into a 400 AppError listing the offending fields.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		var invalid []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				invalid = append(invalid, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
		}
		return NewAppError(
			"VALIDATION_FAILED",
			"Invalid request: "+strings.Join(invalid, ", "),
			fiber.StatusBadRequest,
			err,
		)
	}
	return nil
}
