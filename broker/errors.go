package broker

import "errors"

var (
	// ErrConnectionRefused indicates the broker endpoint rejected the
	// session outright. Not retried internally.
	ErrConnectionRefused = errors.New("connection refused by broker endpoint")
	// ErrConnectionTimeout indicates the readiness handshake did not
	// complete within the connection timeout.
	ErrConnectionTimeout = errors.New("timed out establishing broker session")
	// ErrSecurityNotFound indicates the broker has no definition for the
	// requested symbol.
	ErrSecurityNotFound = errors.New("security not found")
	// ErrStreamTimeout indicates a data stream produced nothing within
	// the stream timeout.
	ErrStreamTimeout = errors.New("timed out waiting for stream data")

	// errClientIDInUse triggers the bounded client id retry loop during
	// session establishment. Never surfaced to callers.
	errClientIDInUse = errors.New("client id already in use")
)

// Broker protocol status codes carried by error frames.
const (
	statusSecurityNotFound = 200
	statusClientIDInUse    = 326
	statusDelayedData      = 10167
)
