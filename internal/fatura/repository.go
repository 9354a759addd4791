package fatura

import (
	"github.com/KromaEnergia/portal-ofertas/internal/auth"
	"gorm.io/gorm"
)

type Repository interface {
	Salvar(db *gorm.DB, f *Fatura) error
	Listar(db *gorm.DB, id auth.Identidade) ([]Fatura, error)
	BuscarPorID(db *gorm.DB, id uint) (*Fatura, error)
	Atualizar(db *gorm.DB, f *Fatura) error
	Dono(db *gorm.DB, invoiceID uint) (userID, groupID uint, err error)
	MarcarOfertaSelecionada(db *gorm.DB, invoiceID uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Salvar(db *gorm.DB, f *Fatura) error {
	return db.Create(f).Error
}

func (r *repositoryImpl) Listar(db *gorm.DB, id auth.Identidade) ([]Fatura, error) {
	var list []Fatura
	err := db.Scopes(auth.Escopo(id)).
		Order("created_at desc, id desc").
		Find(&list).Error
	return list, err
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*Fatura, error) {
	var f Fatura
	err := db.
		Preload("Ofertas", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&f, id).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *repositoryImpl) Atualizar(db *gorm.DB, f *Fatura) error {
	return db.Save(f).Error
}

func (r *repositoryImpl) Dono(db *gorm.DB, invoiceID uint) (uint, uint, error) {
	var f Fatura
	if err := db.Select("id", "user_id", "group_id").First(&f, invoiceID).Error; err != nil {
		return 0, 0, err
	}
	return f.UserID, f.GroupID, nil
}

func (r *repositoryImpl) MarcarOfertaSelecionada(db *gorm.DB, invoiceID uint) error {
	return db.Model(&Fatura{}).Where("id = ?", invoiceID).Update("is_offer_selected", true).Error
}
