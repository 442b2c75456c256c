package messaging

import (
	"context"
	"encoding/json"
	"log"

	"authservice/internal/modules/oauth"
)

// Actions understood by the consumer.
const (
	actionValidateToken = "validate_token"
	actionRevokeToken   = "revoke_token"
)

// Authorizer is the slice of the token engine the consumer drives. Both
// operations behave exactly as their HTTP counterparts.
type Authorizer interface {
	Introspect(ctx context.Context, value, scope string) (*oauth.Introspection, error)
	RevokeAny(ctx context.Context, value string) error
}

// Request is the JSON body of an incoming broker message.
type Request struct {
	Action string `json:"action"`
	Token  string `json:"token"`
	Scopes string `json:"scopes"`
}

// StatusReply is the JSON reply for revocations and failures. Successful
// validations answer with the introspection body instead.
type StatusReply struct {
	Status           string `json:"status"`
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// Handler turns broker messages into engine calls. It never fails: every
// outcome, including a malformed body, is encoded into the reply.
type Handler struct {
	engine Authorizer
}

func NewHandler(engine Authorizer) *Handler {
	return &Handler{engine: engine}
}

// Handle executes the message and returns the reply body.
func (h *Handler) Handle(ctx context.Context, body []byte) []byte {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return encode(errorReply("invalid_request", "The message body could not be parsed as JSON"))
	}

	switch req.Action {
	case actionValidateToken:
		return h.validateToken(ctx, req)
	case actionRevokeToken:
		return h.revokeToken(ctx, req)
	default:
		return encode(errorReply("invalid_request", "The action is either missing or not supported"))
	}
}

func (h *Handler) validateToken(ctx context.Context, req Request) []byte {
	if req.Token == "" {
		return encode(errorReply("invalid_request", "The token field is required"))
	}
	info, err := h.engine.Introspect(ctx, req.Token, req.Scopes)
	if err != nil {
		log.Printf("messaging: introspect: %v", err)
		return encode(errorReply("server_error", ""))
	}
	return encode(info)
}

func (h *Handler) revokeToken(ctx context.Context, req Request) []byte {
	if req.Token == "" {
		return encode(errorReply("invalid_request", "The token field is required"))
	}
	if err := h.engine.RevokeAny(ctx, req.Token); err != nil {
		log.Printf("messaging: revoke: %v", err)
		return encode(errorReply("server_error", ""))
	}
	return encode(StatusReply{Status: "success"})
}

func errorReply(code, description string) StatusReply {
	return StatusReply{Status: "error", Error: code, ErrorDescription: description}
}

func encode(v any) []byte {
	body, err := json.Marshal(v)
	if err != nil {
		log.Printf("messaging: encode reply: %v", err)
		return []byte(`{"status":"error","error":"server_error"}`)
	}
	return body
}
