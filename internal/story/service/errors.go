package service

import (
	"errors"
	"net/http"

	commonerrors "github.com/AlibekovAA/storybooks/internal/common/errors"
	"github.com/AlibekovAA/storybooks/internal/story/domain"
	"github.com/AlibekovAA/storybooks/internal/story/repository"
)

var (
	ErrStoryNotFound = commonerrors.NewDomainError(
		"STORY_NOT_FOUND",
		commonerrors.CategoryNotFound,
		http.StatusNotFound,
		"story not found",
	)

	ErrValidation = commonerrors.NewDomainError(
		"VALIDATION_FAILED",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"validation failed",
	)
)

// translateError maps repository results onto the errors callers are allowed
// to see. Unknown failures keep their cause for logging only.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, repository.ErrStoryNotFound) {
		return ErrStoryNotFound
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return validationError(verr)
	}

	if errors.Is(err, commonerrors.ErrCircuitOpen) {
		return commonerrors.ErrServiceUnavailable.WithCause(err)
	}

	if de, ok := commonerrors.AsDomainError(err); ok {
		return de
	}

	return commonerrors.ErrInternalError.WithCause(err)
}

func validationError(verr *domain.ValidationError) error {
	details := make(map[string]any, len(verr.Fields))
	for field, msg := range verr.Fields {
		details[field] = msg
	}
	return ErrValidation.WithCause(verr).WithDetails(details)
}
