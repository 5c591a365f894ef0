package usecase

import (
	apperrors "atmosphere.io/timeline/internal/pkg/errors"
)

func apperrorsMalformedEmptyBatch() *apperrors.AppError {
	return apperrors.ErrMalformedEventf("empty or missing event batch")
}

func wrapMalformed(err error) *apperrors.AppError {
	if appErr, ok := apperrors.IsAppError(err); ok {
		return appErr
	}
	return apperrors.ErrMalformedEventf(err.Error())
}

func unsupportedTypeErr(eventType string) *apperrors.AppError {
	return apperrors.ErrUnsupportedEventTypef(eventType)
}

func asAppError(err error) (*apperrors.AppError, bool) {
	return apperrors.IsAppError(err)
}
