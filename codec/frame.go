// Package codec frames opaque payloads over a byte stream.
// Each frame is a 4-byte unsigned big-endian length followed by that many payload bytes.
package codec

import (
	"encoding/binary"
	stderrors "errors"
	"fmt"
	"io"

	"ics-chat/errors"
)

const (
	// HeaderSize is the width of the length prefix.
	HeaderSize = 4
	// DefaultMaxFrameSize bounds the declared payload length of a frame.
	DefaultMaxFrameSize = 1 << 20
)

// Encode prepends the length header to payload.
func Encode(payload []byte) ([]byte, error) {
	if uint64(len(payload)) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("%w: %d bytes", errors.ErrFrameTooLarge, len(payload))
	}
	frame := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint32(frame, uint32(len(payload)))
	copy(frame[HeaderSize:], payload)
	return frame, nil
}

// WriteFrame encodes payload and writes the whole frame with a single Write call,
// so concurrent writers serialized by the caller never interleave partial frames.
func WriteFrame(w io.Writer, payload []byte) error {
	frame, err := Encode(payload)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

// Reader decodes frames from a blocking stream.
type Reader struct {
	r       io.Reader
	maxSize uint32
	header  [HeaderSize]byte
}

func NewReader(r io.Reader, maxSize int) *Reader {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}
	return &Reader{r: r, maxSize: uint32(maxSize)}
}

// ReadFrame reads exactly one frame. io.ReadFull loops on short reads, so the
// transport is free to fragment the frame in any way.
// Any end of stream before the frame is complete returns ErrIncompleteFrame.
func (r *Reader) ReadFrame() ([]byte, error) {
	if _, err := io.ReadFull(r.r, r.header[:]); err != nil {
		return nil, incomplete("header", err)
	}
	size := binary.BigEndian.Uint32(r.header[:])
	if size > r.maxSize {
		return nil, fmt.Errorf("%w: declared %d, max %d", errors.ErrFrameTooLarge, size, r.maxSize)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return nil, incomplete("payload", err)
	}
	return payload, nil
}

// ReadFrame reads one frame from r with the default size limit.
func ReadFrame(r io.Reader) ([]byte, error) {
	return NewReader(r, DefaultMaxFrameSize).ReadFrame()
}

func incomplete(part string, err error) error {
	if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: stream ended while reading %s: %w", errors.ErrIncompleteFrame, part, err)
	}
	return fmt.Errorf("%w: reading %s: %w", errors.ErrIncompleteFrame, part, err)
}
