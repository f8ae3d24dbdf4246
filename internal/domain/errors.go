package domain

import "errors"

// ErrRateLimited marks a generation failure caused by provider quota
// exhaustion. The generator backs off harder on these than on generic
// failures.
var ErrRateLimited = errors.New("generation provider rate limited")
