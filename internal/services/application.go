package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"market-backend/internal/models"
	"market-backend/internal/repository"
	"market-backend/pkg/cache"
	"market-backend/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type ApplicationService struct {
	appRepo      *repository.ApplicationRepository
	cacheManager cache.CacheManager
	cacheConfig  cache.CacheConfig
}

func NewApplicationService(appRepo *repository.ApplicationRepository) *ApplicationService {
	return &ApplicationService{
		appRepo:     appRepo,
		cacheConfig: cache.DefaultCacheConfig(),
	}
}

// SetCacheManager allows setting the cache manager for catalog reads.
func (s *ApplicationService) SetCacheManager(cacheManager cache.CacheManager) {
	s.cacheManager = cacheManager
}

// SetCacheConfig allows setting custom cache configuration.
func (s *ApplicationService) SetCacheConfig(config cache.CacheConfig) {
	s.cacheConfig = config
}

type CreateApplicationRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=120"`
	Slug        string   `json:"slug" validate:"required"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category" validate:"required"`
	PriceCents  int64    `json:"priceCents" validate:"min=0"`
	Currency    string   `json:"currency" validate:"required,len=3"`
	Developer   string   `json:"developer" validate:"required"`
	IconURL     string   `json:"iconUrl,omitempty"`
	Screenshots []string `json:"screenshots,omitempty"`
}

type UpdateApplicationRequest struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	PriceCents  *int64   `json:"priceCents,omitempty" validate:"omitempty,min=0"`
	Currency    string   `json:"currency,omitempty" validate:"omitempty,len=3"`
	Status      string   `json:"status,omitempty" validate:"omitempty,oneof=draft published suspended"`
	IconURL     string   `json:"iconUrl,omitempty"`
	Screenshots []string `json:"screenshots,omitempty"`
}

func (s *ApplicationService) GetAllApplications() ([]*models.Application, error) {
	if s.cacheManager != nil {
		cached, err := s.cacheManager.GetApplicationList("all_applications")
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil {
			logger.Logger().Warn("cache read failed for application list", zap.Error(err))
		}
	}

	apps, err := s.appRepo.FindAll()
	if err != nil {
		return nil, err
	}

	if s.cacheManager != nil {
		if cacheErr := s.cacheManager.SetApplicationList("all_applications", apps, s.cacheConfig.ListTTL); cacheErr != nil {
			logger.Logger().Warn("failed to cache application list", zap.Error(cacheErr))
		}
	}

	return apps, nil
}

func (s *ApplicationService) GetApplicationsByStatus(status string) ([]*models.Application, error) {
	cacheKey := fmt.Sprintf("applications_by_status_%s", status)

	if s.cacheManager != nil {
		cached, err := s.cacheManager.GetApplicationList(cacheKey)
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil {
			logger.Logger().Warn("cache read failed for application list",
				zap.String("status", status), zap.Error(err))
		}
	}

	apps, err := s.appRepo.FindByStatus(status)
	if err != nil {
		return nil, err
	}

	if s.cacheManager != nil {
		if cacheErr := s.cacheManager.SetApplicationList(cacheKey, apps, s.cacheConfig.ListTTL); cacheErr != nil {
			logger.Logger().Warn("failed to cache application list", zap.Error(cacheErr))
		}
	}

	return apps, nil
}

func (s *ApplicationService) GetApplicationByID(id string) (*models.Application, error) {
	if s.cacheManager != nil {
		cached, err := s.cacheManager.GetApplication(id)
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil {
			logger.Logger().Warn("cache read failed for application",
				zap.String("id", id), zap.Error(err))
		}
	}

	app, err := s.appRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if s.cacheManager != nil {
		if cacheErr := s.cacheManager.SetApplication(id, app, s.cacheConfig.ApplicationTTL); cacheErr != nil {
			logger.Logger().Warn("failed to cache application",
				zap.String("id", id), zap.Error(cacheErr))
		}
	}

	return app, nil
}

func (s *ApplicationService) GetApplicationBySlug(slug string) (*models.Application, error) {
	return s.appRepo.FindBySlug(slug)
}

func (s *ApplicationService) CreateApplication(req *CreateApplicationRequest) (*models.Application, error) {
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if existing, _ := s.appRepo.FindBySlug(slug); existing != nil {
		return nil, errors.New("slug already exists")
	}

	app := &models.Application{
		ID:          primitive.NewObjectID(),
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		Currency:    strings.ToUpper(req.Currency),
		Status:      "draft",
		Developer:   req.Developer,
		IconURL:     req.IconURL,
		Screenshots: req.Screenshots,
		Downloads:   0,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	created, err := s.appRepo.Create(app)
	if err != nil {
		return nil, err
	}

	s.invalidateListCaches()
	return created, nil
}

func (s *ApplicationService) UpdateApplication(id string, req *UpdateApplicationRequest) (*models.Application, error) {
	app, err := s.appRepo.FindByID(id)
	if err != nil {
		return nil, errors.New("application not found")
	}

	if req.Name != "" {
		app.Name = req.Name
	}
	if req.Description != "" {
		app.Description = req.Description
	}
	if req.Category != "" {
		app.Category = req.Category
	}
	if req.PriceCents != nil {
		app.PriceCents = *req.PriceCents
	}
	if req.Currency != "" {
		app.Currency = strings.ToUpper(req.Currency)
	}
	if req.Status != "" {
		app.Status = req.Status
	}
	if req.IconURL != "" {
		app.IconURL = req.IconURL
	}
	if req.Screenshots != nil {
		app.Screenshots = req.Screenshots
	}

	app.UpdatedAt = time.Now()

	updated, err := s.appRepo.Update(id, app)
	if err != nil {
		return nil, err
	}

	s.invalidateApplication(id)
	return updated, nil
}

func (s *ApplicationService) DeleteApplication(id string) error {
	if _, err := s.appRepo.FindByID(id); err != nil {
		return errors.New("application not found")
	}

	if err := s.appRepo.Delete(id); err != nil {
		return err
	}

	s.invalidateApplication(id)
	return nil
}

// RecordDownload bumps the download counter when an order item for the
// application is fulfilled.
func (s *ApplicationService) RecordDownload(id string, count int64) error {
	if count <= 0 {
		count = 1
	}
	if err := s.appRepo.IncrementDownloads(id, count); err != nil {
		return err
	}
	s.invalidateApplication(id)
	return nil
}

func (s *ApplicationService) invalidateApplication(id string) {
	if s.cacheManager == nil {
		return
	}
	if err := s.cacheManager.InvalidateApplication(id); err != nil {
		logger.Logger().Warn("failed to invalidate application cache",
			zap.String("id", id), zap.Error(err))
	}
	s.invalidateListCaches()
}

func (s *ApplicationService) invalidateListCaches() {
	if s.cacheManager == nil {
		return
	}
	if err := s.cacheManager.InvalidateByTag("application_lists"); err != nil {
		logger.Logger().Warn("failed to invalidate application list caches", zap.Error(err))
	}
}
