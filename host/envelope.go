package host

import (
	"fmt"
	"time"

	"github.com/renatoliveira/chainable"
	"github.com/renatoliveira/chainable/codec"
	"github.com/renatoliveira/chainable/id"
	"github.com/renatoliveira/chainable/link"
)

// LinkSpec is the portable description of one link: enough to reconstruct
// and run the job in another unit of work. Args is the blob produced by the
// job's CaptureArgs, nil for jobs without external configuration.
type LinkSpec struct {
	Name     string        `json:"name" msgpack:"name"`
	Variant  link.Variant  `json:"variant" msgpack:"variant"`
	Schedule string        `json:"schedule,omitempty" msgpack:"schedule"`
	Timeout  time.Duration `json:"timeout,omitempty" msgpack:"timeout"`
	Args     []byte        `json:"args,omitempty" msgpack:"args"`
}

// Envelope is the dispatch message that carries a chain between units of
// work. It holds the full ordered link specs, the position of the link to
// run next, and the serialized shared-context snapshot. The envelope — not
// any live object — is the chain's identity once execution begins.
type Envelope struct {
	chainable.Entity

	ID       id.EnvelopeID `json:"id" msgpack:"id"`
	ChainID  id.ChainID    `json:"chain_id" msgpack:"chain_id"`
	Queue    string        `json:"queue" msgpack:"queue"`
	Links    []LinkSpec    `json:"links" msgpack:"links"`
	Position int           `json:"position" msgpack:"position"`
	Shared   []byte        `json:"shared,omitempty" msgpack:"shared"`
}

// Current returns the spec of the link at the envelope's position.
func (e *Envelope) Current() (*LinkSpec, error) {
	if e.Position < 0 || e.Position >= len(e.Links) {
		return nil, fmt.Errorf("%w: position %d of %d links", chainable.ErrBadEnvelope, e.Position, len(e.Links))
	}
	return &e.Links[e.Position], nil
}

// Next returns the successor's spec, or false when the current link is
// terminal.
func (e *Envelope) Next() (*LinkSpec, bool) {
	if e.Position+1 >= len(e.Links) {
		return nil, false
	}
	return &e.Links[e.Position+1], true
}

// Advance moves the envelope to its successor and refreshes UpdatedAt.
// Callers must have checked Next first.
func (e *Envelope) Advance() {
	e.Position++
	e.Touch()
}

// Encode serializes the envelope with the given codec for transport.
func (e *Envelope) Encode(c codec.Codec) ([]byte, error) {
	data, err := c.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode envelope %s: %w", e.ID, err)
	}
	return data, nil
}

// DecodeEnvelope deserializes an envelope received from a transport.
func DecodeEnvelope(c codec.Codec, data []byte) (*Envelope, error) {
	var e Envelope
	if err := c.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", chainable.ErrBadEnvelope, err)
	}
	if len(e.Links) == 0 {
		return nil, fmt.Errorf("%w: no links", chainable.ErrBadEnvelope)
	}
	return &e, nil
}
