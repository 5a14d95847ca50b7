package loadgen

import "errors"

var (
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid load configuration")
	// ErrUnhealthy means /healthz did not answer 200.
	ErrUnhealthy = errors.New("service unhealthy")
	// ErrUnexpectedStatus is returned when the service answers outside the contract.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrVerification means observed counter values disagree with acknowledged increments.
	ErrVerification = errors.New("verification failed")
)
