package server

import "github.com/go-playground/validator/v10"

// validate is the shared validator instance for request validation.
var validate = validator.New(validator.WithRequiredStructEnabled())

// SelectRequest asks the coordinator to retarget to an enumerated device.
type SelectRequest struct {
	UID string `json:"uid" validate:"required,max=256"`
}
