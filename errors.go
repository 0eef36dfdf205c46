package aes67bridge

import "errors"

var (
	errNotStarted     = errors.New("aes67bridge: not started")
	errAlreadyStarted = errors.New("aes67bridge: already started")
)
