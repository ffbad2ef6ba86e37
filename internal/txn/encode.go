package txn

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

// writeUint64 writes v as 8 big-endian bytes.
func writeUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// writeFloat64 writes v's IEEE-754 bit pattern as 8 big-endian bytes.
func writeFloat64(w io.Writer, v float64) error {
	return writeUint64(w, math.Float64bits(v))
}

// writeBytes writes an 8-byte big-endian length prefix followed by b,
// so variable-length fields (memo, signature, public key, owner
// strings) are unambiguous in the canonical encoding.
func writeBytes(w io.Writer, b []byte) error {
	if err := writeUint64(w, uint64(len(b))); err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	_, err := w.Write(b)
	return err
}

// writeString writes s as a length-prefixed byte string.
func writeString(w io.Writer, s string) error {
	return writeBytes(w, []byte(s))
}

func writeElements(w io.Writer, elements ...interface{}) error {
	for _, el := range elements {
		var err error
		switch v := el.(type) {
		case uint64:
			err = writeUint64(w, v)
		case uint32:
			err = writeUint64(w, uint64(v))
		case float64:
			err = writeFloat64(w, v)
		case string:
			err = writeString(w, v)
		case []byte:
			err = writeBytes(w, v)
		case [32]byte:
			_, err = w.Write(v[:])
		default:
			err = errors.Errorf("writeElements: unsupported type %T", el)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
