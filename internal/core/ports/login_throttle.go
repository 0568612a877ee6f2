package ports

import "context"

// LoginThrottle counts failed login attempts per email and source IP inside
// a sliding window, so repeated credential guessing can be cut off before it
// reaches the credential store.
type LoginThrottle interface {
	// TooManyFailures reports whether the email+IP pair has exhausted its
	// failed-attempt budget for the current window.
	TooManyFailures(ctx context.Context, email, ip string) (bool, error)

	// RecordFailure adds one failed attempt for the pair.
	RecordFailure(ctx context.Context, email, ip string) error

	// Clear resets the counter, called after a successful login.
	Clear(ctx context.Context, email, ip string) error
}
