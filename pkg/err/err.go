package errprocess

import (
	"errors"
	"fmt"

	"marketplace_service/pkg/logger"
)

// Set log err info and return it as an error
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return errors.New(errMsg)
}

// Setf log a wrapped error and return it
func Setf(op string, err error) error {
	wrapped := fmt.Errorf("%s: %w", op, err)
	logger.Log.Error(wrapped.Error())
	return wrapped
}
