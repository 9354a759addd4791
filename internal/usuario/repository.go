package usuario

import "gorm.io/gorm"

type Repository interface {
	FindByEmail(db *gorm.DB, email string) (*Usuario, error)
	Save(db *gorm.DB, u *Usuario) error
	FindByID(db *gorm.DB, id uint) (*Usuario, error)
	ListByGroup(db *gorm.DB, groupID uint) ([]Usuario, error)
	Update(db *gorm.DB, id uint, req *UpdateUsuarioRequest) error
	LinkWhatsapp(db *gorm.DB, id uint, sessao, numero string) error
	UnlinkWhatsapp(db *gorm.DB, id uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) FindByEmail(db *gorm.DB, email string) (*Usuario, error) {
	var u Usuario
	if err := db.Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repositoryImpl) Save(db *gorm.DB, u *Usuario) error {
	return db.Save(u).Error
}

func (r *repositoryImpl) FindByID(db *gorm.DB, id uint) (*Usuario, error) {
	var u Usuario
	if err := db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repositoryImpl) ListByGroup(db *gorm.DB, groupID uint) ([]Usuario, error) {
	var list []Usuario
	err := db.Where("group_id = ?", groupID).Order("nome").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) Update(db *gorm.DB, id uint, req *UpdateUsuarioRequest) error {
	u, err := r.FindByID(db, id)
	if err != nil {
		return err
	}
	if req.Nome != nil {
		u.Nome = *req.Nome
	}
	if req.Sobrenome != nil {
		u.Sobrenome = *req.Sobrenome
	}
	if req.Telefone != nil {
		u.Telefone = *req.Telefone
	}
	return db.Save(u).Error
}

func (r *repositoryImpl) LinkWhatsapp(db *gorm.DB, id uint, sessao, numero string) error {
	return db.Model(&Usuario{}).Where("id = ?", id).Updates(map[string]any{
		"whatsapp_sessao":    sessao,
		"whatsapp_numero":    numero,
		"whatsapp_vinculado": true,
	}).Error
}

func (r *repositoryImpl) UnlinkWhatsapp(db *gorm.DB, id uint) error {
	return db.Model(&Usuario{}).Where("id = ?", id).Updates(map[string]any{
		"whatsapp_numero":    "",
		"whatsapp_vinculado": false,
	}).Error
}
