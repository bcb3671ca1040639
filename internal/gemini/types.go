package gemini

// ImageInput is a read-only image attachment for a model call.
type ImageInput struct {
	Data     []byte
	MimeType string
}

// Usage is the token accounting for a single model call. Missing
// counts in a response are reported as zero, never as an error.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Add returns the field-wise sum of two usage records.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
	}
}
