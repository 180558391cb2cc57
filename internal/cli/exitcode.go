package cli

// Exit codes of the checklist command.
const (
	Success = 0

	// UserError is a bad argument, an unknown task or a rejected input.
	UserError = 1

	// ConfigError is an invalid flag, environment value or config file.
	ConfigError = 2

	// StorageError is a failed or damaged store.
	StorageError = 3
)
