package repositories

import (
	"errors"
	"time"

	"zaistock_backend/internal/models"

	"gorm.io/gorm"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

type SubscriptionRepository interface {
	Create(db *gorm.DB, sub *models.Subscription) error
	Update(db *gorm.DB, sub *models.Subscription) error
	FindByID(db *gorm.DB, id string) (*models.Subscription, error)
	FindByUserID(db *gorm.DB, userID string) ([]models.Subscription, error)
	FindActiveByUserID(db *gorm.DB, userID string) (*models.Subscription, error)
	FindPayingByUserID(db *gorm.DB, userID string) ([]models.Subscription, error)
	CountByUserID(db *gorm.DB, userID string) (int64, error)
	StockIDExists(db *gorm.DB, stockID string) (bool, error)

	// Admin projections, each with the owner preloaded.
	FindByStatus(db *gorm.DB, status models.SubscriptionStatus, orderBy string) ([]models.Subscription, error)
	FindByStatuses(db *gorm.DB, statuses []models.SubscriptionStatus) ([]models.Subscription, error)
	DistinctOwnerIDs(db *gorm.DB) ([]string, error)

	// ExpireOverdue flips active subscriptions past their window to
	// expired, returning the number touched. Used by the worker.
	ExpireOverdue(db *gorm.DB, now time.Time) (int64, error)
}

type SubscriptionRepositoryImpl struct{}

func NewSubscriptionRepository() SubscriptionRepository {
	return &SubscriptionRepositoryImpl{}
}

func (r *SubscriptionRepositoryImpl) Create(db *gorm.DB, sub *models.Subscription) error {
	return db.Create(sub).Error
}

func (r *SubscriptionRepositoryImpl) Update(db *gorm.DB, sub *models.Subscription) error {
	return db.Save(sub).Error
}

func (r *SubscriptionRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := db.First(&sub, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepositoryImpl) FindByUserID(db *gorm.DB, userID string) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := db.Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *SubscriptionRepositoryImpl) FindActiveByUserID(db *gorm.DB, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := db.Where("user_id = ? AND status = ?", userID, models.SubscriptionStatusActive).
		Order("active_until desc").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepositoryImpl) FindPayingByUserID(db *gorm.DB, userID string) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := db.Where("user_id = ? AND status = ?", userID, models.SubscriptionStatusActive).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *SubscriptionRepositoryImpl) CountByUserID(db *gorm.DB, userID string) (int64, error) {
	var count int64
	err := db.Model(&models.Subscription{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *SubscriptionRepositoryImpl) StockIDExists(db *gorm.DB, stockID string) (bool, error) {
	var count int64
	err := db.Model(&models.Subscription{}).Where("stock_id = ?", stockID).Count(&count).Error
	return count > 0, err
}

func (r *SubscriptionRepositoryImpl) FindByStatus(db *gorm.DB, status models.SubscriptionStatus, orderBy string) ([]models.Subscription, error) {
	if orderBy == "" {
		orderBy = "created_at desc"
	}
	var subs []models.Subscription
	err := db.Preload("User").
		Where("status = ?", status).
		Order(orderBy).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *SubscriptionRepositoryImpl) FindByStatuses(db *gorm.DB, statuses []models.SubscriptionStatus) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := db.Preload("User").
		Where("status IN ?", statuses).
		Order("updated_at desc").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *SubscriptionRepositoryImpl) DistinctOwnerIDs(db *gorm.DB) ([]string, error) {
	var ids []string
	err := db.Model(&models.Subscription{}).Distinct("user_id").Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *SubscriptionRepositoryImpl) ExpireOverdue(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Model(&models.Subscription{}).
		Where("status = ? AND active_until IS NOT NULL AND active_until < ?", models.SubscriptionStatusActive, now).
		Update("status", models.SubscriptionStatusExpired)
	return result.RowsAffected, result.Error
}
