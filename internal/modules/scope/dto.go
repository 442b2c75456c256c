package scope

// ScopeCreate is the PUT /scopes body.
type ScopeCreate struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Value       string `json:"value" binding:"required"`
}

// ScopeUpdate is the PATCH /scopes/{id} body. Nil fields keep the current
// value.
type ScopeUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Value       *string `json:"value"`
}
