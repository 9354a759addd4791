package oferta

import "gorm.io/gorm"

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

func (r *Repository) CreateMany(ofertas []Oferta) error {
	if len(ofertas) == 0 {
		return nil
	}
	return r.DB.Create(&ofertas).Error
}

func (r *Repository) FindByInvoice(invoiceID uint) ([]Oferta, error) {
	var os []Oferta
	err := r.DB.Where("invoice_id = ?", invoiceID).Order("id").Find(&os).Error
	return os, err
}

func (r *Repository) FindByID(id uint) (*Oferta, error) {
	var o Oferta
	if err := r.DB.First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{DB: tx}
}

// MarkSelected só liga o flag da oferta; a exclusividade entre ofertas de
// uma mesma fatura não é imposta.
func (r *Repository) MarkSelected(id uint) error {
	return r.DB.Model(&Oferta{}).Where("id = ?", id).Update("is_selected", true).Error
}
