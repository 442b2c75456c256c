package domain

// Account is a user account that can authenticate and own tokens.
//
// Scopes and Roles hold the assignments made directly on the account.
// The scopes a token may actually be issued with are the effective scopes:
// direct scopes plus the scopes of every assigned role.
type Account struct {
	ID        int64  `json:"id" gorm:"primaryKey"`
	FirstName string `json:"firstName" gorm:"size:255;not null"`
	LastName  string `json:"lastName" gorm:"size:255;not null"`
	Username  string `json:"username" gorm:"size:255;uniqueIndex;not null"`
	Password  string `json:"-" gorm:"type:text;not null"`
	Active    bool   `json:"active" gorm:"not null;default:true"`

	Scopes []Scope `json:"scopes" gorm:"many2many:account_scopes"`
	Roles  []Role  `json:"roles" gorm:"many2many:account_roles"`
}

func (Account) TableName() string { return "accounts" }

// EffectiveScopes returns the union of the directly assigned scopes and the
// scopes granted through roles. Roles do not nest.
func (a *Account) EffectiveScopes() []Scope {
	seen := make(map[int64]bool, len(a.Scopes))
	out := make([]Scope, 0, len(a.Scopes))
	for _, s := range a.Scopes {
		if !seen[s.ID] {
			seen[s.ID] = true
			out = append(out, s)
		}
	}
	for _, r := range a.Roles {
		for _, s := range r.Scopes {
			if !seen[s.ID] {
				seen[s.ID] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// EffectiveScopeValues returns the effective scopes as their string values.
func (a *Account) EffectiveScopeValues() []string {
	scopes := a.EffectiveScopes()
	values := make([]string, 0, len(scopes))
	for _, s := range scopes {
		values = append(values, s.Value)
	}
	return values
}

// AccountScope links an account to a directly assigned scope.
type AccountScope struct {
	AccountID int64 `gorm:"primaryKey"`
	ScopeID   int64 `gorm:"primaryKey"`
}

func (AccountScope) TableName() string { return "account_scopes" }

// AccountRole links an account to an assigned role.
type AccountRole struct {
	AccountID int64 `gorm:"primaryKey"`
	RoleID    int64 `gorm:"primaryKey"`
}

func (AccountRole) TableName() string { return "account_roles" }
