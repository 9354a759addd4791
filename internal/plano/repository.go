package plano

import (
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Salvar(db *gorm.DB, p *Plano) error
	BuscarVigente(db *gorm.DB, groupID uint, agora time.Time) (*Plano, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Salvar(db *gorm.DB, p *Plano) error {
	return db.Save(p).Error
}

func (r *repositoryImpl) BuscarVigente(db *gorm.DB, groupID uint, agora time.Time) (*Plano, error) {
	var p Plano
	err := db.Where("group_id = ? AND ativo = ? AND valido_ate > ?", groupID, true, agora).
		Order("valido_ate desc").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}
