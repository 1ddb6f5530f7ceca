// dcare-crm/models/user.go

package models

import "gorm.io/gorm"

// Роли пользователей консоли.
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleConsultant = "consultant"
)

// User represents a console account (consultant, manager or admin).
type User struct {
	gorm.Model
	Login        string `json:"login" gorm:"uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"not null"`
	Name         string `json:"name"`
	Role         string `json:"role" gorm:"default:consultant"` // admin / manager / consultant
}
