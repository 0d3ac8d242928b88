package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/savanna-table/savanna-backend/internal/app/model"
	"github.com/savanna-table/savanna-backend/internal/app/repository"
	"github.com/savanna-table/savanna-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrAddressNotFound = errors.New("address not found")
)

type AddressInput struct {
	Street    string
	City      string
	State     string
	ZipCode   string
	IsDefault bool
}

// AddressUpdate changes only the non-nil fields
type AddressUpdate struct {
	Street    *string
	City      *string
	State     *string
	ZipCode   *string
	IsDefault *bool
}

// AddressService manages saved delivery addresses. Every mutation returns the full list.
type AddressService interface {
	ListAddresses(userID uint) ([]model.Address, error)
	AddAddress(userID uint, input AddressInput) ([]model.Address, error)
	UpdateAddress(userID, addressID uint, update AddressUpdate) ([]model.Address, error)
	DeleteAddress(userID, addressID uint) ([]model.Address, error)
}

type addressService struct {
	addressRepo repository.AddressRepository
	db          *gorm.DB
}

func NewAddressService(addressRepo repository.AddressRepository, db *gorm.DB) AddressService {
	return &addressService{
		addressRepo: addressRepo,
		db:          db,
	}
}

// EffectiveDefault is the flagged address, or the first one by creation order when none is flagged.
// addresses must be in creation order.
func EffectiveDefault(addresses []model.Address) *model.Address {
	if len(addresses) == 0 {
		return nil
	}
	for i := range addresses {
		if addresses[i].IsDefault {
			return &addresses[i]
		}
	}
	return &addresses[0]
}

func (s *addressService) ListAddresses(userID uint) ([]model.Address, error) {
	addresses, err := s.addressRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user addresses", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return addresses, nil
}

// mutate runs fn in a transaction holding the owning user's row lock and returns the resulting list
func (s *addressService) mutate(userID uint, action string, fn func(repo repository.AddressRepository) error) ([]model.Address, error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during address mutation, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"user_id": userID,
				"action":  action,
			})
			panic(r)
		}
	}()

	if _, err := repository.NewUserRepository(tx).LockByID(userID); err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		logger.Error("Failed to lock user row", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	repo := repository.NewAddressRepository(tx)
	if err := fn(repo); err != nil {
		tx.Rollback()
		return nil, err
	}

	addresses, err := repo.FindByUserID(userID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit address transaction", err, map[string]interface{}{
			"user_id": userID,
			"action":  action,
		})
		return nil, err
	}
	return addresses, nil
}

func (s *addressService) AddAddress(userID uint, input AddressInput) ([]model.Address, error) {
	logger.Info("Creating address", map[string]interface{}{
		"user_id":    userID,
		"is_default": input.IsDefault,
	})

	addresses, err := s.mutate(userID, "add", func(repo repository.AddressRepository) error {
		existing, err := repo.FindByUserID(userID)
		if err != nil {
			return err
		}

		address := &model.Address{
			UserID:    userID,
			Street:    strings.TrimSpace(input.Street),
			City:      strings.TrimSpace(input.City),
			State:     strings.TrimSpace(input.State),
			ZipCode:   strings.TrimSpace(input.ZipCode),
			IsDefault: input.IsDefault || len(existing) == 0,
		}

		if address.IsDefault && len(existing) > 0 {
			if err := repo.ClearDefault(userID, 0); err != nil {
				return err
			}
		}
		return repo.Create(address)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Address created successfully", map[string]interface{}{
		"user_id": userID,
		"count":   len(addresses),
	})
	return addresses, nil
}

func (s *addressService) UpdateAddress(userID, addressID uint, update AddressUpdate) ([]model.Address, error) {
	logger.Info("Updating address", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})

	addresses, err := s.mutate(userID, "update", func(repo repository.AddressRepository) error {
		address, err := repo.FindByUserAndID(userID, addressID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Warn("Address not found", map[string]interface{}{
					"user_id":    userID,
					"address_id": addressID,
				})
				return ErrAddressNotFound
			}
			return err
		}

		if update.Street != nil {
			address.Street = strings.TrimSpace(*update.Street)
		}
		if update.City != nil {
			address.City = strings.TrimSpace(*update.City)
		}
		if update.State != nil {
			address.State = strings.TrimSpace(*update.State)
		}
		if update.ZipCode != nil {
			address.ZipCode = strings.TrimSpace(*update.ZipCode)
		}
		if update.IsDefault != nil {
			if *update.IsDefault {
				if err := repo.ClearDefault(userID, addressID); err != nil {
					return err
				}
			}
			address.IsDefault = *update.IsDefault
		}

		return repo.Update(address)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Address updated successfully", map[string]interface{}{
		"address_id": addressID,
	})
	return addresses, nil
}

func (s *addressService) DeleteAddress(userID, addressID uint) ([]model.Address, error) {
	logger.Info("Deleting address", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})

	addresses, err := s.mutate(userID, "delete", func(repo repository.AddressRepository) error {
		address, err := repo.FindByUserAndID(userID, addressID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAddressNotFound
			}
			return err
		}

		if err := repo.Delete(address.ID); err != nil {
			return err
		}
		if !address.IsDefault {
			return nil
		}

		remaining, err := repo.FindByUserID(userID)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			return nil
		}
		logger.Debug("Promoting first remaining address to default", map[string]interface{}{
			"user_id":    userID,
			"address_id": remaining[0].ID,
		})
		return repo.MarkDefault(remaining[0].ID)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Address deleted successfully", map[string]interface{}{
		"address_id": addressID,
		"remaining":  len(addresses),
	})
	return addresses, nil
}
