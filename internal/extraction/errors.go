package extraction

import (
	"errors"
	"fmt"
)

// ErrUnreadableDocument indicates the document carries no usable embedded
// text (likely a scanned image). The model is never called for these.
var ErrUnreadableDocument = errors.New("no extractable text in document")

// SchemaError indicates the model's output failed validation against the
// candidate schema: malformed JSON, missing fields, wrong types, or empty
// required strings.
type SchemaError struct {
	Detail string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model output failed validation: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("model output failed validation: %s", e.Detail)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}
