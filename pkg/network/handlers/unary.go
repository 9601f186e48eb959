package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quic-go/quic-go"

	"github.com/eigerco/relief/internal/common"
	"github.com/eigerco/relief/internal/identity"
	"github.com/eigerco/relief/pkg/log"
	"github.com/eigerco/relief/pkg/network/protocol"
	"github.com/eigerco/relief/pkg/serialization/codec/canon"
)

// Response is the envelope of every reply. Body holds the encoded result and
// is empty unless Code is CodeOK.
type Response struct {
	RequestID string
	Code      common.Code
	Message   string
	Body      []byte
}

// Empty is the request or result of operations that carry no data.
type Empty struct{}

// Unary adapts fn, which serves one decoded request on behalf of caller, to a
// stream handler. The stream carries one request and one Response; domain
// errors travel back as their codes.
func Unary[Req, Resp any](kind protocol.StreamKind, timeout time.Duration, fn func(ctx context.Context, caller identity.AccountID, req Req) (Resp, error)) protocol.StreamHandler {
	return protocol.StreamHandlerFunc(func(ctx context.Context, stream quic.Stream, peer identity.AccountID) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := stream.SetDeadline(time.Now().Add(timeout)); err != nil {
			return fmt.Errorf("failed to set deadline: %w", err)
		}

		resp := Response{RequestID: uuid.NewString()}
		logger := log.Network.With().
			Str("request", resp.RequestID).
			Stringer("kind", kind).
			Str("peer", peer.Short()).
			Logger()

		msg, err := ReadMessageWithContext(ctx, stream)
		if err != nil {
			stream.CancelWrite(0)
			return fmt.Errorf("failed to read request: %w", err)
		}

		var req Req
		if err := canon.Unmarshal(msg.Content, &req); err != nil {
			resp.Code = common.CodeBadRequest
			resp.Message = fmt.Sprintf("decode request: %v", err)
		} else if result, err := fn(ctx, peer, req); err != nil {
			resp.Code = common.CodeOf(err)
			resp.Message = err.Error()
		} else if resp.Body, err = canon.Marshal(result); err != nil {
			resp.Code = common.CodeInternal
			resp.Message = fmt.Sprintf("encode response: %v", err)
		}

		if resp.Code != common.CodeOK {
			logger.Debug().Uint8("code", uint8(resp.Code)).Str("error", resp.Message).Msg("request failed")
		} else {
			logger.Debug().Msg("request served")
		}

		out, err := canon.Marshal(resp)
		if err != nil {
			return fmt.Errorf("failed to encode response: %w", err)
		}
		if err := WriteMessageWithContext(ctx, stream, out); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
		if err := stream.Close(); err != nil {
			return fmt.Errorf("failed to close stream: %w", err)
		}
		return nil
	})
}

// Call sends req over stream and decodes the reply. A reply carrying an error
// code comes back as the matching domain error.
func Call[Req, Resp any](ctx context.Context, stream quic.Stream, req Req) (Resp, error) {
	var result Resp

	reqBytes, err := canon.Marshal(req)
	if err != nil {
		return result, fmt.Errorf("failed to encode request: %w", err)
	}
	if err := WriteMessageWithContext(ctx, stream, reqBytes); err != nil {
		return result, fmt.Errorf("failed to send request: %w", err)
	}
	if err := stream.Close(); err != nil {
		return result, fmt.Errorf("failed to close stream: %w", err)
	}

	msg, err := ReadMessageWithContext(ctx, stream)
	if err != nil {
		return result, fmt.Errorf("failed to read response: %w", err)
	}
	var resp Response
	if err := canon.Unmarshal(msg.Content, &resp); err != nil {
		return result, fmt.Errorf("failed to decode response: %w", err)
	}
	log.Network.Debug().Str("request", resp.RequestID).Uint8("code", uint8(resp.Code)).Msg("response received")

	if err := common.FromCode(resp.Code, resp.Message); err != nil {
		return result, err
	}
	if err := canon.Unmarshal(resp.Body, &result); err != nil {
		return result, fmt.Errorf("failed to decode result: %w", err)
	}
	return result, nil
}
