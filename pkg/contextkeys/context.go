package contextkeys

// Custom key type to avoid collisions in context values.
type contextKey string

// DBContextKey is the key under which the request-scoped *gorm.DB (the
// shared pool, or a transaction injected by tests) is stored.
const DBContextKey = contextKey("db")
