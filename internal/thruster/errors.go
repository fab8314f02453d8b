package thruster

import "errors"

// Configuration errors. Any of them leaves the thruster unconfigured.
var (
	ErrMissingParameter  = errors.New("thruster: missing required parameter")
	ErrInvalidParameter  = errors.New("thruster: invalid parameter")
	ErrJointNotFound     = errors.New("thruster: joint not found in model")
	ErrLinkNotFound      = errors.New("thruster: child link not found in model")
	ErrSubscribe         = errors.New("thruster: command subscription failed")
	ErrAlreadyConfigured = errors.New("thruster: already configured")
)
