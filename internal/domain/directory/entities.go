package directory

import (
	"errors"
	"strings"
)

var (
	ErrTypeNotFound = errors.New("request type not found")
	ErrUserNotFound = errors.New("user not found")
)

type Role string

const (
	RoleCitizen Role = "vecino"
	RoleStaff   Role = "funcionario"
	RoleAdmin   Role = "administrador"
)

func (r Role) Valid() bool { return r == RoleCitizen || r.IsStaff() }

// IsStaff reports whether the role may answer requests.
func (r Role) IsStaff() bool { return r == RoleStaff || r == RoleAdmin }

// Table: areas
type Area struct {
	ID   uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	Name string `gorm:"column:nombre;size:120;not null"`
}

func (Area) TableName() string { return "areas" }

// Table: tipos_solicitudes
type RequestType struct {
	ID     uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	Name   string `gorm:"column:nombre;size:160;not null"`
	AreaID uint64 `gorm:"column:id_area;not null;index"`
	Area   Area   `gorm:"foreignKey:AreaID"`
}

func (RequestType) TableName() string { return "tipos_solicitudes" }

// Table: usuarios
type User struct {
	RUT       string `gorm:"column:rut;primaryKey;size:12"`
	FirstName string `gorm:"column:nombres;size:120;not null"`
	LastName  string `gorm:"column:apellidos;size:120;not null"`
	Email     string `gorm:"column:email;size:255"`
	Role      Role   `gorm:"column:rol;type:enum('vecino','funcionario','administrador');default:'vecino';not null"`
}

func (User) TableName() string { return "usuarios" }

// FullName joins first and last names; empty when both are blank.
func (u *User) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}
