// Package dbtest abre bancos SQLite em memória para os testes de repositório e handler.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Novo abre um banco isolado por teste e aplica o AutoMigrate dos modelos.
func Novo(t *testing.T, modelos ...any) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("abrir sqlite: %v", err)
	}
	if len(modelos) > 0 {
		if err := db.AutoMigrate(modelos...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
