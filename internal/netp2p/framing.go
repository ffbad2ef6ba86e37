package netp2p

import (
	"encoding/binary"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/motorcyle-spec/TrinityChain/internal/errs"
)

// MaxMessageSize bounds a single frame's payload (spec §4.8 and §6).
const MaxMessageSize = 10 * 1024 * 1024

// Frame is one wire message: a command tag plus its CBOR-encoded
// payload, length-prefixed on the wire as [u32 big-endian
// length][command byte][payload].
type Frame struct {
	Command Command
	Payload []byte
}

// WriteFrame writes cmd/payload as one length-prefixed frame.
func WriteFrame(w io.Writer, cmd Command, payload interface{}) error {
	body, err := cbor.Marshal(payload)
	if err != nil {
		return errs.New(errs.ErrNetworkError, "encoding payload for %s: %s", cmd, err)
	}
	if len(body)+1 > MaxMessageSize {
		return errs.New(errs.ErrNetworkError, "outgoing %s frame of %d bytes exceeds MAX_MESSAGE_SIZE", cmd, len(body)+1)
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(body)+1))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return errs.New(errs.ErrNetworkError, "writing frame length: %s", err)
	}
	if _, err := w.Write([]byte{byte(cmd)}); err != nil {
		return errs.New(errs.ErrNetworkError, "writing frame command: %s", err)
	}
	if _, err := w.Write(body); err != nil {
		return errs.New(errs.ErrNetworkError, "writing frame payload: %s", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame from r. The size cap is
// enforced against the length prefix before any payload bytes are
// allocated or read, so an oversize claim can never force an
// allocation (spec §4.8: "every read path must enforce the cap before
// allocating").
func ReadFrame(r io.Reader) (Frame, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Frame{}, errs.New(errs.ErrNetworkError, "reading frame length: %s", err)
	}
	size := binary.BigEndian.Uint32(lenBuf[:])
	if size == 0 {
		return Frame{}, errs.New(errs.ErrNetworkError, "frame declares zero length (missing command byte)")
	}
	if size > MaxMessageSize {
		return Frame{}, errs.New(errs.ErrNetworkError, "frame of %d bytes exceeds MAX_MESSAGE_SIZE %d", size, MaxMessageSize)
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Frame{}, errs.New(errs.ErrNetworkError, "reading frame payload: %s", err)
	}
	return Frame{Command: Command(buf[0]), Payload: buf[1:]}, nil
}

// Decode unmarshals a frame's payload into out.
func (f Frame) Decode(out interface{}) error {
	if err := cbor.Unmarshal(f.Payload, out); err != nil {
		return errs.New(errs.ErrNetworkError, "decoding %s payload: %s", f.Command, err)
	}
	return nil
}
