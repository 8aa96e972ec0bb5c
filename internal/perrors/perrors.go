// Package perrors collects the pipeline-wide sentinel errors every core
// package returns instead of ad-hoc strings, so callers can branch with
// errors.Is regardless of which component raised the failure.
package perrors

import "errors"

var (
	// ErrInvalidState is returned when an operation is attempted while the
	// target state machine (Channel, Subscription) is in a state that
	// disallows it.
	ErrInvalidState = errors.New("perfkit: invalid state for operation")

	// ErrNotFound is returned by any registry lookup (Manager's channels,
	// sources, subscriptions) for an unknown id.
	ErrNotFound = errors.New("perfkit: not found")

	// ErrNoTarget is returned by Channel.Start when no source claims
	// NeedsSpawn and spawn_info has neither a Target nor a PID.
	ErrNoTarget = errors.New("perfkit: no spawn target")

	// ErrSpawnFailed is returned when process creation fails during start.
	ErrSpawnFailed = errors.New("perfkit: spawn failed")

	// ErrInvalidKind is returned by the Manager's source/encoder factory
	// lookups for an unregistered kind name.
	ErrInvalidKind = errors.New("perfkit: invalid plugin kind")

	// ErrEncoderFailure is returned internally when an encoder refuses a
	// batch; callers observe it only as a disabled subscription.
	ErrEncoderFailure = errors.New("perfkit: encoder failure")

	// ErrPeerGone marks a subscription whose transport peer has
	// disappeared; the Manager auto-removes it.
	ErrPeerGone = errors.New("perfkit: listener peer gone")
)
