package models

// ValidationError reports malformed or inconsistent client input. It always
// maps to a 400 response and is never retried by the system itself.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}
