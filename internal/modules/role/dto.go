package role

// RoleCreate is the PUT /roles body. Scopes is a space separated string of
// scope values the role confers.
type RoleCreate struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Scopes      string `json:"scopes"`
}

// RoleUpdate is the PATCH /roles/{id} body. Nil fields keep the current
// value; a present Scopes string replaces the whole mapping.
type RoleUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Scopes      *string `json:"scopes"`
}
