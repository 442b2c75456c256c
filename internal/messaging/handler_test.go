package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"authservice/internal/modules/oauth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	introspection *oauth.Introspection
	introspectErr error
	revokeErr     error

	introspectedValue string
	introspectedScope string
	revokedValue      string
}

func (s *stubEngine) Introspect(_ context.Context, value, scope string) (*oauth.Introspection, error) {
	s.introspectedValue = value
	s.introspectedScope = scope
	if s.introspectErr != nil {
		return nil, s.introspectErr
	}
	return s.introspection, nil
}

func (s *stubEngine) RevokeAny(_ context.Context, value string) error {
	s.revokedValue = value
	return s.revokeErr
}

func decodeReply(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var reply map[string]any
	require.NoError(t, json.Unmarshal(body, &reply))
	return reply
}

func TestHandleValidateToken(t *testing.T) {
	engine := &stubEngine{introspection: &oauth.Introspection{
		Active:    true,
		Scope:     "me admin",
		Username:  "u1",
		TokenType: "access_token",
		Exp:       1700003600,
		Iat:       1700000000,
	}}
	handler := NewHandler(engine)

	body := handler.Handle(context.Background(), []byte(`{"action":"validate_token","token":"tok-1","scopes":"admin"}`))

	assert.Equal(t, "tok-1", engine.introspectedValue)
	assert.Equal(t, "admin", engine.introspectedScope)

	reply := decodeReply(t, body)
	assert.Equal(t, true, reply["active"])
	assert.Equal(t, "me admin", reply["scope"])
	assert.Equal(t, "u1", reply["username"])
	assert.Equal(t, "access_token", reply["token_type"])
}

func TestHandleValidateTokenInactive(t *testing.T) {
	engine := &stubEngine{introspection: &oauth.Introspection{Active: false}}
	handler := NewHandler(engine)

	body := handler.Handle(context.Background(), []byte(`{"action":"validate_token","token":"tok-1"}`))

	reply := decodeReply(t, body)
	assert.Equal(t, false, reply["active"])
	assert.NotContains(t, reply, "username")
	assert.NotContains(t, reply, "scope")
}

func TestHandleValidateTokenEngineFailure(t *testing.T) {
	engine := &stubEngine{introspectErr: errors.New("db gone")}
	handler := NewHandler(engine)

	body := handler.Handle(context.Background(), []byte(`{"action":"validate_token","token":"tok-1"}`))

	reply := decodeReply(t, body)
	assert.Equal(t, "error", reply["status"])
	assert.Equal(t, "server_error", reply["error"])
}

func TestHandleRevokeToken(t *testing.T) {
	engine := &stubEngine{}
	handler := NewHandler(engine)

	body := handler.Handle(context.Background(), []byte(`{"action":"revoke_token","token":"tok-1"}`))

	assert.Equal(t, "tok-1", engine.revokedValue)
	reply := decodeReply(t, body)
	assert.Equal(t, "success", reply["status"])
	assert.NotContains(t, reply, "error")
}

func TestHandleMalformedBody(t *testing.T) {
	handler := NewHandler(&stubEngine{})

	body := handler.Handle(context.Background(), []byte("not json"))

	reply := decodeReply(t, body)
	assert.Equal(t, "error", reply["status"])
	assert.Equal(t, "invalid_request", reply["error"])
	assert.Equal(t, "The message body could not be parsed as JSON", reply["error_description"])
}

func TestHandleUnknownAction(t *testing.T) {
	handler := NewHandler(&stubEngine{})

	body := handler.Handle(context.Background(), []byte(`{"action":"forge_token","token":"tok-1"}`))

	reply := decodeReply(t, body)
	assert.Equal(t, "error", reply["status"])
	assert.Equal(t, "invalid_request", reply["error"])
	assert.Equal(t, "The action is either missing or not supported", reply["error_description"])
}

func TestHandleMissingToken(t *testing.T) {
	engine := &stubEngine{}
	handler := NewHandler(engine)

	for _, action := range []string{actionValidateToken, actionRevokeToken} {
		body := handler.Handle(context.Background(), []byte(`{"action":"`+action+`"}`))
		reply := decodeReply(t, body)
		assert.Equal(t, "error", reply["status"])
		assert.Equal(t, "invalid_request", reply["error"])
		assert.Equal(t, "The token field is required", reply["error_description"])
	}
	assert.Empty(t, engine.introspectedValue)
	assert.Empty(t, engine.revokedValue)
}
