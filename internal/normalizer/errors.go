package normalizer

import "fmt"

// GenerationError indicates the text-generation call itself failed
// (network, quota, auth). No draft is produced and no retry is attempted.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("text generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// ParseError indicates the model's response was not a valid structured
// record after code-fence stripping. Raw carries the offending text for
// diagnostics; no draft is produced and no partial state is retained.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("response is not a valid record: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
