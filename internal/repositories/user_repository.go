package repositories

import (
	"errors"

	"zaistock_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

type UserRepository interface {
	FindByID(db *gorm.DB, id string) (*models.User, error)
	FindByEmail(db *gorm.DB, email string) (*models.User, error)
	FindByGoogleID(db *gorm.DB, googleID string) (*models.User, error)
	FindByReferralCode(db *gorm.DB, code string) (*models.User, error)
	FindByIDs(db *gorm.DB, ids []string) ([]models.User, error)
	FindAll(db *gorm.DB) ([]models.User, error)
	FindByEmails(db *gorm.DB, emails []string) ([]models.User, error)
	Create(db *gorm.DB, user *models.User) error
	Update(db *gorm.DB, user *models.User) error

	// CreditBalance / DebitBalance adjust the withdrawable balance with
	// an in-database expression so concurrent approvals cannot lose an
	// update.
	CreditBalance(db *gorm.DB, userID string, amount float64) error
	DebitBalance(db *gorm.DB, userID string, amount float64) error
}

type UserRepositoryImpl struct{}

func NewUserRepository() UserRepository {
	return &UserRepositoryImpl{}
}

func (r *UserRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByGoogleID(db *gorm.DB, googleID string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "google_id = ?", googleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByReferralCode(db *gorm.DB, code string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "referral_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByIDs(db *gorm.DB, ids []string) ([]models.User, error) {
	var users []models.User
	if err := db.Where("id IN ?", ids).Order("email asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepositoryImpl) FindAll(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := db.Order("created_at desc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepositoryImpl) FindByEmails(db *gorm.DB, emails []string) ([]models.User, error) {
	var users []models.User
	if err := db.Where("email IN ?", emails).Order("email asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepositoryImpl) Create(db *gorm.DB, user *models.User) error {
	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

func (r *UserRepositoryImpl) Update(db *gorm.DB, user *models.User) error {
	return db.Save(user).Error
}

func (r *UserRepositoryImpl) CreditBalance(db *gorm.DB, userID string, amount float64) error {
	result := db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("withdrawable_balance", gorm.Expr("withdrawable_balance + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) DebitBalance(db *gorm.DB, userID string, amount float64) error {
	result := db.Model(&models.User{}).
		Where("id = ? AND withdrawable_balance >= ?", userID, amount).
		Update("withdrawable_balance", gorm.Expr("withdrawable_balance - ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

// ErrInsufficientBalance is returned by DebitBalance when the guarded
// update matched no row.
var ErrInsufficientBalance = errors.New("insufficient withdrawable balance")
