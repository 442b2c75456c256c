package domain

import "time"

// AccessToken is an issued bearer token. The opaque Value is what clients
// present; everything else is resolved by lookup.
//
// A token is usable only while Active is true and Expires is in the
// future. Revocation flips Active and never deletes the row, so the value
// stays bound to its history until the cleanup job purges it.
type AccessToken struct {
	ID        int64  `json:"id" gorm:"primaryKey"`
	Value     string `json:"-" gorm:"column:token;size:36;uniqueIndex;not null"`
	AccountID int64  `json:"account_id" gorm:"index;not null"`
	Active    bool   `json:"active" gorm:"not null;default:true"`
	Created   int64  `json:"created" gorm:"column:created;not null"`
	Expires   int64  `json:"expires" gorm:"column:expires;not null"`

	Account Account `json:"-" gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
	Scopes  []Scope `json:"scopes" gorm:"many2many:access_token_scopes"`
}

func (AccessToken) TableName() string { return "access_tokens" }

// IsExpired reports whether the token lifetime has passed at now.
func (t *AccessToken) IsExpired(now time.Time) bool {
	return now.Unix() >= t.Expires
}

// IsUsable reports whether the token authenticates requests at now.
func (t *AccessToken) IsUsable(now time.Time) bool {
	return t.Active && !t.IsExpired(now)
}

// ScopeValues returns the scope strings bound to the token at issuance.
func (t *AccessToken) ScopeValues() []string {
	values := make([]string, 0, len(t.Scopes))
	for _, s := range t.Scopes {
		values = append(values, s.Value)
	}
	return values
}

// RefreshToken is the single-use counterpart issued alongside an access
// token. Consuming it (or revoking it) deletes the row, so a value can
// never be exchanged twice.
type RefreshToken struct {
	ID            int64  `json:"id" gorm:"primaryKey"`
	Value         string `json:"-" gorm:"column:token;size:36;uniqueIndex;not null"`
	AccountID     int64  `json:"account_id" gorm:"index;not null"`
	AccessTokenID int64  `json:"access_token_id" gorm:"index;not null"`
	Expires       int64  `json:"expires" gorm:"column:expires;not null"`

	Account Account `json:"-" gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
	Scopes  []Scope `json:"scopes" gorm:"many2many:refresh_token_scopes"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

// IsExpired reports whether the token lifetime has passed at now.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return now.Unix() >= t.Expires
}

// ScopeValues returns the scope strings bound to the token at issuance.
func (t *RefreshToken) ScopeValues() []string {
	values := make([]string, 0, len(t.Scopes))
	for _, s := range t.Scopes {
		values = append(values, s.Value)
	}
	return values
}

// AccessTokenScope links an access token to a scope it was issued with.
type AccessTokenScope struct {
	AccessTokenID int64 `gorm:"primaryKey"`
	ScopeID       int64 `gorm:"primaryKey"`
}

func (AccessTokenScope) TableName() string { return "access_token_scopes" }

// RefreshTokenScope links a refresh token to a scope it was issued with.
type RefreshTokenScope struct {
	RefreshTokenID int64 `gorm:"primaryKey"`
	ScopeID        int64 `gorm:"primaryKey"`
}

func (RefreshTokenScope) TableName() string { return "refresh_token_scopes" }
