// Package sqlitedb opens a throwaway sqlite database with a schema that
// mirrors the MySQL tables closely enough for repository and pipeline
// tests (no ENUM columns, no engine options).
package sqlitedb

import (
	"path/filepath"
	"testing"
	"time"

	"municipal-portal/internal/domain/directory"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type areaSQLite struct {
	ID   uint64 `gorm:"primaryKey;column:id;autoIncrement"`
	Name string `gorm:"column:nombre"`
}

func (areaSQLite) TableName() string { return "areas" }

type requestTypeSQLite struct {
	ID     uint64 `gorm:"primaryKey;column:id;autoIncrement"`
	Name   string `gorm:"column:nombre"`
	AreaID uint64 `gorm:"column:id_area"`
}

func (requestTypeSQLite) TableName() string { return "tipos_solicitudes" }

type userSQLite struct {
	RUT       string `gorm:"primaryKey;column:rut"`
	FirstName string `gorm:"column:nombres"`
	LastName  string `gorm:"column:apellidos"`
	Email     string `gorm:"column:email"`
	Role      string `gorm:"type:text;column:rol"` // no enum
}

func (userSQLite) TableName() string { return "usuarios" }

type requestSQLite struct {
	ID                uint64    `gorm:"primaryKey;column:id;autoIncrement"`
	RequesterRUT      string    `gorm:"column:rut_solicitante"`
	TypeID            uint64    `gorm:"column:id_tipo"`
	NotificationEmail *string   `gorm:"column:email_notificacion"`
	SubmittedAt       time.Time `gorm:"column:fecha_envio"`
	Status            string    `gorm:"type:text;column:estado;default:'Pendiente'"`
	FolderPath        string    `gorm:"column:ruta_carpeta;default:''"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (requestSQLite) TableName() string { return "solicitudes" }

type responseSQLite struct {
	ID          uint64    `gorm:"primaryKey;column:id;autoIncrement"`
	RequestID   uint64    `gorm:"column:id_solicitud"`
	StaffRUT    string    `gorm:"column:rut_funcionario"`
	RespondedAt time.Time `gorm:"column:fecha_respuesta"`
	Body        string    `gorm:"column:mensaje"`
	Status      string    `gorm:"type:text;column:estado"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (responseSQLite) TableName() string { return "respuestas" }

// Open creates a file-backed sqlite DB under t.TempDir() and migrates ONLY
// the sqlite-safe schema. A single connection keeps transactions and
// follow-up reads on the same handle.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portal.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&areaSQLite{},
		&requestTypeSQLite{},
		&userSQLite{},
		&requestSQLite{},
		&responseSQLite{},
	); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

// SeedType inserts an area and a request type with a fixed id.
func SeedType(t *testing.T, db *gorm.DB, id uint64, name, area string) {
	t.Helper()
	a := &directory.Area{Name: area}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("seed area: %v", err)
	}
	if err := db.Omit("Area").Create(&directory.RequestType{ID: id, Name: name, AreaID: a.ID}).Error; err != nil {
		t.Fatalf("seed type: %v", err)
	}
}

func SeedUser(t *testing.T, db *gorm.DB, rut, first, last string, role directory.Role) {
	t.Helper()
	u := &directory.User{RUT: rut, FirstName: first, LastName: last, Email: "", Role: role}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

// Count returns the number of rows in table.
func Count(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	if err := db.Table(table).Count(&n).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
