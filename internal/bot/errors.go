package bot

// UserError carries a message meant for the chat and an optional cause meant for logs.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}

	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}

const genericErrorText = "Something went wrong while handling that command. Please try again later."
