package historico

import "gorm.io/gorm"

type Repository interface {
	Criar(db *gorm.DB, e *Entrada) error
	ListarPorFatura(db *gorm.DB, invoiceID uint) ([]Entrada, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Criar(db *gorm.DB, e *Entrada) error {
	return db.Create(e).Error
}

func (r *repositoryImpl) ListarPorFatura(db *gorm.DB, invoiceID uint) ([]Entrada, error) {
	var list []Entrada
	err := db.Where("invoice_id = ?", invoiceID).Order("created_at asc, id asc").Find(&list).Error
	return list, err
}

// RegistrarSistema grava uma entrada automática (criação de fatura, ofertas, contrato).
func RegistrarSistema(db *gorm.DB, invoiceID uint, texto string) error {
	return db.Create(&Entrada{InvoiceID: invoiceID, Texto: texto, System: true}).Error
}
