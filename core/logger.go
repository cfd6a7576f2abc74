package core

// Logger is the application-wide logging contract.
// Implementations live in services/logger.
//
// args may carry any contextual values; implementations decide how to
// render or report them (e.g. Rollbar attaches the learner as the person).
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
