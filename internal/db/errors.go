package db

import "errors"

// Domain-level database error sentinels.
var (
	// User errors
	ErrUserNotFound   = errors.New("user not found")
	ErrNicknameTaken  = errors.New("nickname already taken")
	ErrDeviceMismatch = errors.New("account is bound to another device")

	// Invite token errors
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenNotFound  = errors.New("invite token not found")
	ErrDuplicateToken = errors.New("invite token already exists")

	// Post errors
	ErrPostNotFound = errors.New("post not found")

	// Collection errors
	ErrCollectionNotFound  = errors.New("collection not found")
	ErrDuplicateCollection = errors.New("a collection with this name already exists")
)
