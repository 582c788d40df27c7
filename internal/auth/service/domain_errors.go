package service

import (
	"net/http"

	commonerrors "github.com/AlibekovAA/storybooks/internal/common/errors"
)

var (
	ErrLoginFailed = commonerrors.NewDomainError(
		"LOGIN_FAILED",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"login failed",
	)

	ErrTokensDisabled = commonerrors.NewDomainError(
		"TOKENS_DISABLED",
		commonerrors.CategoryNotFound,
		http.StatusNotFound,
		"access tokens are not enabled",
	)
)
