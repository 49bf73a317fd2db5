package service

import (
	"github.com/go-playground/validator/v10"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateInput(op string, in interface{}) error {
	return apperrors.FromValidator(op, validate.Struct(in))
}
