package auth

import "errors"

// Common authentication service errors
var (
	// ErrInvalidToken indicates the token format is invalid or signature doesn't match
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrWrongTokenType indicates an access token was presented where a
	// refresh token was expected, or the other way round
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrMissingToken indicates a token was expected but not provided
	ErrMissingToken = errors.New("authentication token is missing")

	// ErrInvalidCredentials is returned for both an unknown email and a
	// wrong password so callers cannot tell them apart
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrRevokedToken indicates an access token is on the blacklist
	ErrRevokedToken = errors.New("token is blacklisted")

	// ErrRevokedOrUnknownToken indicates a refresh token has no record in
	// the refresh store, whatever its signature
	ErrRevokedOrUnknownToken = errors.New("refresh token revoked or unknown")
)
