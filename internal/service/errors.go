package service

// ValidationError marks malformed or missing input. Handlers map it to 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AuthorizationError marks an actor whose role is insufficient for the
// requested action. Handlers map it to 403.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

// InvalidTransitionError marks a status change that violates the workflow
// ordering rules. Handlers map it to 400.
type InvalidTransitionError struct {
	Message string
}

func (e *InvalidTransitionError) Error() string {
	return e.Message
}
