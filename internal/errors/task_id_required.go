package errors

const taskIDRequiredMessage = "The id field is required."

// ErrTaskIDRequired builds the validation failure for a request without id.
func ErrTaskIDRequired() *ValidationException {
	v := &ValidationException{}
	v.Add("id", taskIDRequiredMessage)
	return v
}
