package handlers

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/eigerco/relief/pkg/serialization/codec/canon"
)

// MaxMessageSize bounds the content of a single message.
const MaxMessageSize = canon.MaxLength

// Message represents a protocol message that includes both size and content.
// The size is encoded as a little-endian uint32 followed by the content bytes.
type Message struct {
	Size    uint32
	Content []byte
}

// WriteMessageWithContext writes a size-prefixed message to w. The write can
// be cancelled via ctx.
func WriteMessageWithContext(ctx context.Context, w io.Writer, content []byte) error {
	if len(content) > MaxMessageSize {
		return fmt.Errorf("message of %d bytes exceeds limit %d", len(content), MaxMessageSize)
	}
	done := make(chan error, 1)
	go func() {
		size := uint32(len(content))
		if err := binary.Write(w, binary.LittleEndian, size); err != nil {
			done <- fmt.Errorf("failed to write message size: %w", err)
			return
		}
		if _, err := w.Write(content); err != nil {
			done <- fmt.Errorf("failed to write message content: %w", err)
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type readResult struct {
	msg *Message
	err error
}

// ReadMessageWithContext reads one size-prefixed message from r. The read can
// be cancelled via ctx.
func ReadMessageWithContext(ctx context.Context, r io.Reader) (*Message, error) {
	done := make(chan readResult, 1)
	go func() {
		var size uint32
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			done <- readResult{err: fmt.Errorf("failed to read message size: %w", err)}
			return
		}
		if size > MaxMessageSize {
			done <- readResult{err: fmt.Errorf("message size %d exceeds limit %d", size, MaxMessageSize)}
			return
		}
		content := make([]byte, size)
		if _, err := io.ReadFull(r, content); err != nil {
			done <- readResult{err: fmt.Errorf("failed to read message content: %w", err)}
			return
		}
		done <- readResult{msg: &Message{Size: size, Content: content}}
	}()

	select {
	case result := <-done:
		return result.msg, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
