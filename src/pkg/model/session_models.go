package model

// Command is a parsed REPL command: <scope> <operation> [args...].
type Command struct {
	Scope     string
	Operation string
	Args      []string
}
