package kvstore

import "errors"

var (
	ErrNotFound = errors.New("kvstore: key not found")
	ErrEmptyKey = errors.New("kvstore: empty key")

	ErrFailedToParseRedisConnString = errors.New("kvstore: failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("kvstore: redis did not become ready within the given time period")
)
