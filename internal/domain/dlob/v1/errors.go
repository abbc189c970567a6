package dlobv1

import (
	"github.com/driftmirror/dlob-mirror/pkg/errors"
)

// errMissingOracle builds the error returned when a spot-market query needs
// an oracle price observation that was not supplied.
func errMissingOracle(field string) *errors.BaseError {
	return errors.NewBaseError(errors.NewErrorDetails(
		"oracle price data is required for this market",
		string(errors.ErrMissingOracle),
		field,
	))
}
