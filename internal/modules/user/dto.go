package user

// NewUserAccount is the PUT /users body. Scopes is a space separated
// string of scope values; when the field is omitted the account gets the
// default "me" scope. Roles lists role names to assign.
type NewUserAccount struct {
	FirstName string   `json:"firstName" binding:"required"`
	LastName  string   `json:"lastName" binding:"required"`
	Username  string   `json:"username" binding:"required"`
	Password  string   `json:"password" binding:"required"`
	Scopes    *string  `json:"scopes"`
	Roles     []string `json:"roles"`
}

// UserUpdate is the PATCH /users/{id} body. Every field is optional and
// nil leaves the current value untouched. Scopes and Roles replace the
// whole grant set when present; an empty value clears it.
type UserUpdate struct {
	FirstName *string   `json:"firstName"`
	LastName  *string   `json:"lastName"`
	Username  *string   `json:"username"`
	Password  *string   `json:"password"`
	Active    *bool     `json:"active"`
	Scopes    *string   `json:"scopes"`
	Roles     *[]string `json:"roles"`
}

// PasswordChange is the PATCH /users/me body.
type PasswordChange struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}
