package entity

import "time"

// Roles válidos para User. El rol viaja en el token JWT y es la identidad
// de actor (created_by) que exige el libro de movimientos.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
	RoleAuditor   = "auditor"
)

// User representa un usuario del sistema.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // admin, bodeguero, auditor
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
