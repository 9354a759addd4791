package auth

import (
	"time"

	"gorm.io/gorm"
)

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index"`
	FamilyID  string `gorm:"index"`
	Hash      string `gorm:"uniqueIndex"`
	Role      string `gorm:"size:20"`
	GroupID   uint
	Email     string
	ExpiresAt time.Time `gorm:"index"`
	RevokedAt *time.Time
	CreatedAt time.Time
}

// PurgarRefreshTokens apaga os tokens vencidos ou revogados antes de limite.
func PurgarRefreshTokens(db *gorm.DB, limite time.Time) (int64, error) {
	res := db.Where("expires_at < ? OR revoked_at < ?", limite, limite).Delete(&RefreshToken{})
	return res.RowsAffected, res.Error
}
