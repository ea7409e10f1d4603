package constants

type ContextKey int

const (
	PoolKey ContextKey = iota
	TxKey
	LoggerKey
	RequestIDKey
)
