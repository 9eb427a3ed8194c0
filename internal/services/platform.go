package services

import (
	"errors"
	"strings"
	"time"

	"market-backend/internal/models"
	"market-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PlatformService struct {
	platformRepo *repository.PlatformRepository
}

func NewPlatformService(platformRepo *repository.PlatformRepository) *PlatformService {
	return &PlatformService{platformRepo: platformRepo}
}

type CreatePlatformRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=80"`
	Provider    string   `json:"provider" validate:"required,oneof=stripe paypal adyen manual"`
	FeeBasisPts int      `json:"feeBasisPts" validate:"min=0,max=10000"`
	Currencies  []string `json:"currencies" validate:"required,min=1,dive,len=3"`
}

type UpdatePlatformRequest struct {
	Name        string   `json:"name,omitempty"`
	FeeBasisPts *int     `json:"feeBasisPts,omitempty" validate:"omitempty,min=0,max=10000"`
	Currencies  []string `json:"currencies,omitempty" validate:"omitempty,min=1,dive,len=3"`
	Enabled     *bool    `json:"enabled,omitempty"`
}

func (s *PlatformService) GetAllPlatforms() ([]*models.Platform, error) {
	return s.platformRepo.FindAll()
}

func (s *PlatformService) GetPlatformByID(id string) (*models.Platform, error) {
	return s.platformRepo.FindByID(id)
}

func (s *PlatformService) CreatePlatform(req *CreatePlatformRequest) (*models.Platform, error) {
	if existing, _ := s.platformRepo.FindByName(req.Name); existing != nil {
		return nil, errors.New("platform name already exists")
	}

	currencies := make([]string, 0, len(req.Currencies))
	for _, c := range req.Currencies {
		currencies = append(currencies, strings.ToUpper(c))
	}

	platform := &models.Platform{
		ID:          primitive.NewObjectID(),
		Name:        req.Name,
		Provider:    req.Provider,
		FeeBasisPts: req.FeeBasisPts,
		Currencies:  currencies,
		Enabled:     true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	return s.platformRepo.Create(platform)
}

func (s *PlatformService) UpdatePlatform(id string, req *UpdatePlatformRequest) (*models.Platform, error) {
	platform, err := s.platformRepo.FindByID(id)
	if err != nil {
		return nil, errors.New("platform not found")
	}

	if req.Name != "" && req.Name != platform.Name {
		if existing, _ := s.platformRepo.FindByName(req.Name); existing != nil {
			return nil, errors.New("platform name already exists")
		}
		platform.Name = req.Name
	}
	if req.FeeBasisPts != nil {
		platform.FeeBasisPts = *req.FeeBasisPts
	}
	if req.Currencies != nil {
		currencies := make([]string, 0, len(req.Currencies))
		for _, c := range req.Currencies {
			currencies = append(currencies, strings.ToUpper(c))
		}
		platform.Currencies = currencies
	}
	if req.Enabled != nil {
		platform.Enabled = *req.Enabled
	}

	platform.UpdatedAt = time.Now()
	return s.platformRepo.Update(id, platform)
}

func (s *PlatformService) DeletePlatform(id string) error {
	if _, err := s.platformRepo.FindByID(id); err != nil {
		return errors.New("platform not found")
	}
	return s.platformRepo.Delete(id)
}

// SupportsCurrency reports whether the platform can settle in the currency.
func (s *PlatformService) SupportsCurrency(platform *models.Platform, currency string) bool {
	currency = strings.ToUpper(currency)
	for _, c := range platform.Currencies {
		if c == currency {
			return true
		}
	}
	return false
}
