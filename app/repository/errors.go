package repository

import (
	"errors"
	"fmt"

	"github.com/dosreb/planlibrary/internal/pkg/apperror"
	"gorm.io/gorm"
)

// storeError maps gorm failures onto the app error taxonomy. App errors pass
// through unchanged so transactions can return them directly.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NewNotFoundError(fmt.Sprintf("%s: record not found", op))
	}
	return apperror.NewStoreUnavailableError(op, err)
}

func planNotFound(id string) error {
	return apperror.NewNotFoundError("plan not found", id)
}
