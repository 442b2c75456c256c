package domain

// Role is a named bundle of scopes. Assigning a role to an account grants
// the role's scopes on top of the account's own, but only at token issuance.
// Tokens already in circulation keep the scope set they were minted with.
type Role struct {
	ID          int64  `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"size:255;uniqueIndex;not null"`
	Description string `json:"description" gorm:"type:text;not null;default:''"`

	Scopes []Scope `json:"scopes" gorm:"many2many:role_scopes"`
}

func (Role) TableName() string { return "roles" }

// ScopeValues returns the values of the scopes granted by the role.
func (r *Role) ScopeValues() []string {
	values := make([]string, 0, len(r.Scopes))
	for _, s := range r.Scopes {
		values = append(values, s.Value)
	}
	return values
}

// RoleScope links a role to one of its scopes.
type RoleScope struct {
	RoleID  int64 `gorm:"primaryKey"`
	ScopeID int64 `gorm:"primaryKey"`
}

func (RoleScope) TableName() string { return "role_scopes" }
