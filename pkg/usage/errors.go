package usage

import "errors"

var (
	ErrUnknownCounter              = errors.New("usage: unknown counter type")
	ErrInvalidPlan                 = errors.New("usage: invalid free plan configuration")
	ErrFailedToCountUsage          = errors.New("usage: failed to count events")
	ErrFailedToParsePostgresConfig = errors.New("usage: failed to parse postgres config")
	ErrPostgresNotReady            = errors.New("usage: postgres connection is not available")
)
