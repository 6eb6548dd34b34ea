package services

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrEmailInUse          = errors.New("email is already in use")
	ErrWrongPassword       = errors.New("invalid email or password")
	ErrSuspended           = errors.New("account is suspended")
	ErrRequiresRecentLogin = errors.New("this operation requires a recent sign-in")
	ErrInviteInvalid       = errors.New("invite is invalid, used or expired")
	ErrForbidden           = errors.New("not allowed")
	ErrPaymentUnverified   = errors.New("online payment could not be verified")
)
