package transport

import "errors"

var (
	ErrInvalidCertificate = errors.New("invalid certificate")
	ErrNotStarted         = errors.New("transport not started")
	ErrListenerFailed     = errors.New("failed to create QUIC listener")
	ErrDialFailed         = errors.New("failed to dial peer")
	ErrConnFailed         = errors.New("failed to establish connection")
)
