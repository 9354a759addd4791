package contrato

import (
	"github.com/KromaEnergia/portal-ofertas/internal/auth"
	"gorm.io/gorm"
)

type Repository interface {
	Criar(db *gorm.DB, c *Contrato) error
	Listar(db *gorm.DB, id auth.Identidade) ([]Contrato, error)
	BuscarPorID(db *gorm.DB, id uint) (*Contrato, error)
	AtualizarStatus(db *gorm.DB, id uint, status string) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Criar(db *gorm.DB, c *Contrato) error {
	return db.Create(c).Error
}

func (r *repositoryImpl) Listar(db *gorm.DB, id auth.Identidade) ([]Contrato, error) {
	var contratos []Contrato
	err := db.Scopes(auth.Escopo(id)).Order("created_at desc, id desc").Find(&contratos).Error
	return contratos, err
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*Contrato, error) {
	var c Contrato
	if err := db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repositoryImpl) AtualizarStatus(db *gorm.DB, id uint, status string) error {
	return db.Model(&Contrato{}).Where("id = ?", id).Update("status", status).Error
}
