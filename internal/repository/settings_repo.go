package repository

import (
	"sync"

	"parkeaya-panel/internal/db"
)

// DefaultSettings is what a freshly installed panel shows before the owner
// saves anything.
func DefaultSettings() db.ParkingConfig {
	return db.ParkingConfig{
		Name:            "Mi Estacionamiento",
		Address:         "",
		TotalSpaces:     50,
		AvailableSpaces: 50,
		HourlyRate:      3.50,
		IsVisible:       true,
		Description:     "Estacionamiento seguro y vigilado",
	}
}

// SettingsRepository keeps the local copy of this panel's parking settings.
type SettingsRepository struct {
	mu  sync.RWMutex
	cfg db.ParkingConfig
}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{cfg: DefaultSettings()}
}

func (r *SettingsRepository) Get() db.ParkingConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg.Clone()
}

func (r *SettingsRepository) Save(cfg db.ParkingConfig) {
	r.mu.Lock()
	r.cfg = cfg.Clone()
	r.mu.Unlock()
}

// Update applies mutate to the stored settings atomically.
func (r *SettingsRepository) Update(mutate func(*db.ParkingConfig) error) (db.ParkingConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.cfg.Clone()
	if err := mutate(&next); err != nil {
		return db.ParkingConfig{}, err
	}
	r.cfg = next
	return next.Clone(), nil
}
