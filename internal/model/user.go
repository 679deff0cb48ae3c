package model

// User is the login identity for one tenant. The default admin is seeded when the
// tenant is provisioned; everything beyond authentication lives outside this core.
type User struct {
	Base
	Email    string `gorm:"type:varchar(255);not null;index" json:"email"`
	Name     string `gorm:"type:varchar(255)" json:"name"`
	Password string `gorm:"type:varchar(255);not null" json:"-"`
	Role     string `gorm:"type:varchar(50);not null;default:'admin'" json:"role"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`
}
