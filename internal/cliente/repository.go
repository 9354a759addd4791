package cliente

import (
	"github.com/KromaEnergia/portal-ofertas/internal/auth"
	"gorm.io/gorm"
)

type Repository interface {
	Criar(db *gorm.DB, c *Cliente) error
	Listar(db *gorm.DB, id auth.Identidade) ([]Cliente, error)
	BuscarPorID(db *gorm.DB, id uint) (*Cliente, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Criar(db *gorm.DB, c *Cliente) error {
	return db.Create(c).Error
}

// Listar devolve os clientes do grupo inteiro; agentes escolhem entre todos
// os clientes do grupo ao montar um contrato.
func (r *repositoryImpl) Listar(db *gorm.DB, id auth.Identidade) ([]Cliente, error) {
	var list []Cliente
	err := db.Where("group_id = ?", id.GroupID).Order("nome, id").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*Cliente, error) {
	var c Cliente
	if err := db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}
