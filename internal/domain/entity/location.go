package entity

import "time"

// Location representa una bodega, zona o posición física donde se almacena
// inventario. ParentID permite jerarquía (bodega → zona → estantería).
// El libro de movimientos solo la lee; su administración es externa.
type Location struct {
	ID        string
	Name      string
	ParentID  string // vacío = raíz
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
