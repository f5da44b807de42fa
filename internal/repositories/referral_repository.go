package repositories

import (
	"errors"

	"zaistock_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrReferralNotFound = errors.New("referral not found")
	ErrDuplicateEdge    = errors.New("referral edge already exists")
)

type ReferralRepository interface {
	Create(db *gorm.DB, referral *models.Referral) error
	Update(db *gorm.DB, referral *models.Referral) error
	FindByReferredUserID(db *gorm.DB, referredUserID string) (*models.Referral, error)
	FindByReferrerID(db *gorm.DB, referrerID string) ([]models.Referral, error)
}

type ReferralRepositoryImpl struct{}

func NewReferralRepository() ReferralRepository {
	return &ReferralRepositoryImpl{}
}

func (r *ReferralRepositoryImpl) Create(db *gorm.DB, referral *models.Referral) error {
	if err := db.Create(referral).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEdge
		}
		return err
	}
	return nil
}

func (r *ReferralRepositoryImpl) Update(db *gorm.DB, referral *models.Referral) error {
	return db.Save(referral).Error
}

func (r *ReferralRepositoryImpl) FindByReferredUserID(db *gorm.DB, referredUserID string) (*models.Referral, error) {
	var referral models.Referral
	if err := db.First(&referral, "referred_user_id = ?", referredUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReferralNotFound
		}
		return nil, err
	}
	return &referral, nil
}

func (r *ReferralRepositoryImpl) FindByReferrerID(db *gorm.DB, referrerID string) ([]models.Referral, error) {
	var referrals []models.Referral
	err := db.Preload("ReferredUser").
		Where("referrer_id = ?", referrerID).
		Order("created_at desc").
		Find(&referrals).Error
	if err != nil {
		return nil, err
	}
	return referrals, nil
}
