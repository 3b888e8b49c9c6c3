package domain

// Outcome is the result of a provider call attempt, modeled as a tagged
// variant (success, or error with a message) so that the Status/ErrorMessage
// pairing on Interaction can never be written inconsistently. The flat
// two-field shape is kept in storage for compatibility; Outcome exists so new
// code builds records through constructors rather than by hand.
type Outcome struct {
	message *string
}

// Succeeded returns the outcome of a successful attempt.
func Succeeded() Outcome { return Outcome{} }

// Failed returns the outcome of a failed attempt carrying the error text.
// An empty message is normalized to a generic one so a failed outcome can
// never produce an error row without a message.
func Failed(message string) Outcome {
	if message == "" {
		message = "unknown error"
	}
	return Outcome{message: &message}
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool { return o.message == nil }

// Status returns the Interaction status string for this outcome.
func (o Outcome) Status() string {
	if o.message == nil {
		return StatusSuccess
	}
	return StatusError
}

// ErrorMessage returns the error text, or nil for a success.
func (o Outcome) ErrorMessage() *string { return o.message }
