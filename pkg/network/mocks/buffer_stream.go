package mocks

import (
	"bytes"
	"context"
	"time"

	"github.com/quic-go/quic-go"
)

// BufferStream is a quic.Stream that reads from In and writes to Out.
type BufferStream struct {
	In            *bytes.Buffer
	Out           *bytes.Buffer
	CloseCalled   bool
	Deadline      time.Time
	CanceledRead  bool
	CanceledWrite bool
}

func NewBufferStream(in []byte) *BufferStream {
	return &BufferStream{
		In:  bytes.NewBuffer(in),
		Out: new(bytes.Buffer),
	}
}

func (s *BufferStream) StreamID() quic.StreamID {
	return 1
}

func (s *BufferStream) Read(p []byte) (int, error) {
	return s.In.Read(p)
}

func (s *BufferStream) Write(p []byte) (int, error) {
	return s.Out.Write(p)
}

func (s *BufferStream) Close() error {
	s.CloseCalled = true
	return nil
}

func (s *BufferStream) CancelRead(quic.StreamErrorCode) {
	s.CanceledRead = true
}

func (s *BufferStream) CancelWrite(quic.StreamErrorCode) {
	s.CanceledWrite = true
}

func (s *BufferStream) Context() context.Context {
	return context.Background()
}

func (s *BufferStream) SetDeadline(t time.Time) error {
	s.Deadline = t
	return nil
}

func (s *BufferStream) SetReadDeadline(t time.Time) error {
	s.Deadline = t
	return nil
}

func (s *BufferStream) SetWriteDeadline(t time.Time) error {
	s.Deadline = t
	return nil
}
