package template

// Formatter transforms an interpolated scalar carrying a format name. The
// name set is open: an implementation decides what to do with names it does
// not know, usually returning value unchanged.
//
// The scope is only valid for the duration of the call.
type Formatter interface {
	Format(value, name string, scope Scope) (string, error)
}

// FormatterFunc adapts a function to Formatter.
type FormatterFunc func(value, name string, scope Scope) (string, error)

// Format calls f.
func (f FormatterFunc) Format(value, name string, scope Scope) (string, error) {
	return f(value, name, scope)
}
