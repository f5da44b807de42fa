package email

// Email is a single outbound message.
type Email struct {
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// Provider sends notification emails. Sending is always best effort:
// callers log failures and move on, a mutation never fails because SMTP
// is down.
type Provider interface {
	// Send delivers a message.
	Send(email *Email) error

	// Validate checks the provider configuration.
	Validate() error

	// Close releases provider resources.
	Close() error
}
