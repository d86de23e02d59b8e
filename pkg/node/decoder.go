package node

// Decoder is the boundary to the translation engine proper. The decoding
// machinery is an external collaborator of the cluster controller, so the
// only implementation shipped here is a passthrough keeping the API contract
// exercisable.
type Decoder interface {
	Translate(text, source, target string) (string, error)
}

type passthroughDecoder struct{}

func (passthroughDecoder) Translate(text, source, target string) (string, error) {
	return text, nil
}

// NewPassthroughDecoder returns a decoder echoing its input.
func NewPassthroughDecoder() Decoder {
	return passthroughDecoder{}
}
