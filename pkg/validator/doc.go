// Package validator provides declarative request validation.
//
// Rules are built eagerly and evaluated by Apply, which returns every failure
// at once as ValidationErrors:
//
//	err := validator.Apply(
//	    validator.Required("booking_id", req.BookingID),
//	    validator.OneOf("action", req.Action, "confirm", "cancel"),
//	)
//	if ve := validator.ExtractValidationErrors(err); ve != nil {
//	    // ve.Fields() maps field -> message
//	}
//
// When groups rules that only apply to some inputs. Optional-format rules
// such as Email and Phone accept the empty string.
package validator
