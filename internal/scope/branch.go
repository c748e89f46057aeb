package scope

import (
	"filiales-backend/internal/apperr"
	"filiales-backend/internal/auth"
	"filiales-backend/internal/models"

	"gorm.io/gorm"
)

// BranchExists turns an unknown branch id into a BadRequest, so writes never
// reach the foreign key check.
func BranchExists(db *gorm.DB, filialID uint) error {
	var count int64
	if err := db.Model(&models.Branch{}).Where("id = ?", filialID).Count(&count).Error; err != nil {
		return apperr.Internal("No se pudo verificar la filial", err)
	}
	if count == 0 {
		return apperr.BadRequest("La filial indicada no existe")
	}
	return nil
}

// WriteBranch is ResolveWrite plus BranchExists on the chosen branch.
func WriteBranch(db *gorm.DB, id auth.Identity, requested *uint) (uint, error) {
	filialID, err := ResolveWrite(id, requested)
	if err != nil {
		return 0, err
	}
	if err := BranchExists(db, filialID); err != nil {
		return 0, err
	}
	return filialID, nil
}
