package app

import (
	"zaistock_backend/internal/email"
	"zaistock_backend/internal/logger"
)

// MockEmailProvider logs instead of sending. Used whenever SMTP is not
// configured.
type MockEmailProvider struct{}

func (m *MockEmailProvider) Send(msg *email.Email) error {
	logger.Info("[mock email]", "to", msg.To, "subject", msg.Subject)
	return nil
}

func (m *MockEmailProvider) Validate() error { return nil }

func (m *MockEmailProvider) Close() error { return nil }
