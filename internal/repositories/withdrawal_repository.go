package repositories

import (
	"errors"

	"zaistock_backend/internal/models"

	"gorm.io/gorm"
)

var ErrWithdrawalNotFound = errors.New("withdrawal not found")

type WithdrawalRepository interface {
	Create(db *gorm.DB, withdrawal *models.Withdrawal) error
	Update(db *gorm.DB, withdrawal *models.Withdrawal) error
	FindByID(db *gorm.DB, id string) (*models.Withdrawal, error)
	FindByUserID(db *gorm.DB, userID string) ([]models.Withdrawal, error)
	FindAll(db *gorm.DB) ([]models.Withdrawal, error)
}

type WithdrawalRepositoryImpl struct{}

func NewWithdrawalRepository() WithdrawalRepository {
	return &WithdrawalRepositoryImpl{}
}

func (r *WithdrawalRepositoryImpl) Create(db *gorm.DB, withdrawal *models.Withdrawal) error {
	return db.Create(withdrawal).Error
}

func (r *WithdrawalRepositoryImpl) Update(db *gorm.DB, withdrawal *models.Withdrawal) error {
	return db.Save(withdrawal).Error
}

func (r *WithdrawalRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	if err := db.First(&withdrawal, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, err
	}
	return &withdrawal, nil
}

func (r *WithdrawalRepositoryImpl) FindByUserID(db *gorm.DB, userID string) ([]models.Withdrawal, error) {
	var withdrawals []models.Withdrawal
	err := db.Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&withdrawals).Error
	if err != nil {
		return nil, err
	}
	return withdrawals, nil
}

func (r *WithdrawalRepositoryImpl) FindAll(db *gorm.DB) ([]models.Withdrawal, error) {
	var withdrawals []models.Withdrawal
	err := db.Preload("User").
		Order("created_at desc").
		Find(&withdrawals).Error
	if err != nil {
		return nil, err
	}
	return withdrawals, nil
}
