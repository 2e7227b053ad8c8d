package core

// Logger is any service able to record application events.
// Expected args: an error, extra context (map[string]interface{}) and optionally the Actor involved.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
