package domain

// ValidationError is a client-side form check failure. It is resolved locally
// and never reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
