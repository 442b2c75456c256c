package domain

// Scope is a named permission unit. Value is the exact string clients use
// in space separated OAuth2 scope strings and is unique across scopes.
type Scope struct {
	ID          int64  `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"size:255;not null"`
	Description string `json:"description" gorm:"type:text;not null;default:''"`
	Value       string `json:"value" gorm:"size:255;uniqueIndex;not null"`
}

func (Scope) TableName() string { return "scopes" }
