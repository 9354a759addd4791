package auth

import "gorm.io/gorm"

// Escopo limita a consulta aos registros visíveis pela identidade:
// supervisor e group_admin enxergam o grupo, os demais apenas os próprios.
func Escopo(id Identidade) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if VeGrupo(id.Role) {
			return db.Where("group_id = ?", id.GroupID)
		}
		return db.Where("user_id = ?", id.UserID)
	}
}

// PodeVer diz se a identidade enxerga um registro de dono/grupo informados.
func PodeVer(id Identidade, userID, groupID uint) bool {
	if VeGrupo(id.Role) {
		return groupID == id.GroupID
	}
	return userID == id.UserID
}
