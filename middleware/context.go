package middleware

type ContextKey uint

const (
	NoKey ContextKey = iota
	RequestID
)
