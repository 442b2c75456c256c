package oauth

// GrantError is a business failure of the token endpoints. It carries the
// OAuth2 error code plus the human readable description rendered at the
// HTTP boundary.
type GrantError struct {
	Code        string
	Description string
}

func (e *GrantError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return e.Code + ": " + e.Description
}

// Is matches grant errors by code, so callers can compare against the
// sentinels below regardless of the description.
func (e *GrantError) Is(target error) bool {
	t, ok := target.(*GrantError)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidRequest = &GrantError{Code: "invalid_request"}
	ErrInvalidGrant   = &GrantError{Code: "invalid_grant"}
	ErrInvalidScope   = &GrantError{Code: "invalid_scope"}
)

func invalidRequest(description string) *GrantError {
	return &GrantError{Code: "invalid_request", Description: description}
}

func invalidGrant(description string) *GrantError {
	return &GrantError{Code: "invalid_grant", Description: description}
}

func invalidScope(description string) *GrantError {
	return &GrantError{Code: "invalid_scope", Description: description}
}
