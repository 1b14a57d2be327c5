package repository

import (
	"github.com/Aryan-111/Orca-Edge/internal/model"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type RoleProfileRepository struct {
	db *gorm.DB
}

func NewRoleProfileRepository(db *gorm.DB) *RoleProfileRepository {
	return &RoleProfileRepository{db}
}

// SearchRoleProfiles returns the topK profiles closest to the query
// embedding using the pgvector distance operator.
func (r *RoleProfileRepository) SearchRoleProfiles(embedding pgvector.Vector, topK int) ([]model.RoleProfile, error) {
	var profiles []model.RoleProfile

	err := r.db.Raw(`
        SELECT *, embedding <-> ? AS distance
        FROM role_profiles
        ORDER BY embedding <-> ?
        LIMIT ?
    `, embedding, embedding, topK).Scan(&profiles).Error

	return profiles, err
}

func (r *RoleProfileRepository) CreateRoleProfile(profile *model.RoleProfile) error {
	return r.db.Create(profile).Error
}

func (r *RoleProfileRepository) UpdateRoleProfile(profile *model.RoleProfile) error {
	return r.db.Save(profile).Error
}

func (r *RoleProfileRepository) GetRoleProfiles() ([]model.RoleProfile, error) {
	var profiles []model.RoleProfile
	err := r.db.Find(&profiles).Error
	return profiles, err
}
