package repo

import (
	"gorm.io/gorm"

	"github.com/KinkLid/cocBot-sub000/internal/models"
)

type SettingsRepository interface {
	Get() (*models.ClanSettings, error)
	CreateOrUpdate(settings *models.ClanSettings) error
}

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get() (*models.ClanSettings, error) {
	var settings models.ClanSettings
	err := r.db.First(&settings).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepository) CreateOrUpdate(settings *models.ClanSettings) error {
	var existing models.ClanSettings
	err := r.db.Where("chat_id = ?", settings.ChatID).First(&existing).Error

	if err == gorm.ErrRecordNotFound {
		return r.db.Create(settings).Error
	} else if err != nil {
		return err
	}

	settings.ID = existing.ID
	return r.db.Save(settings).Error
}
