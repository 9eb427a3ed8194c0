package services

import (
	"errors"
	"strings"
	"time"

	"market-backend/internal/models"
	"market-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TemplateService struct {
	templateRepo *repository.TemplateRepository
}

func NewTemplateService(templateRepo *repository.TemplateRepository) *TemplateService {
	return &TemplateService{templateRepo: templateRepo}
}

type CreateTemplateRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=120"`
	Slug       string `json:"slug" validate:"required"`
	Category   string `json:"category" validate:"required"`
	PriceCents int64  `json:"priceCents" validate:"min=0"`
	Currency   string `json:"currency" validate:"required,len=3"`
	PreviewURL string `json:"previewUrl,omitempty"`
	Author     string `json:"author" validate:"required"`
}

type UpdateTemplateRequest struct {
	Name       string `json:"name,omitempty"`
	Category   string `json:"category,omitempty"`
	PriceCents *int64 `json:"priceCents,omitempty" validate:"omitempty,min=0"`
	Currency   string `json:"currency,omitempty" validate:"omitempty,len=3"`
	Status     string `json:"status,omitempty" validate:"omitempty,oneof=draft published suspended"`
	PreviewURL string `json:"previewUrl,omitempty"`
}

func (s *TemplateService) GetAllTemplates() ([]*models.Template, error) {
	return s.templateRepo.FindAll()
}

// GetPublishedTemplates returns only templates visible in the public catalog.
func (s *TemplateService) GetPublishedTemplates() ([]*models.Template, error) {
	templates, err := s.templateRepo.FindAll()
	if err != nil {
		return nil, err
	}

	published := make([]*models.Template, 0, len(templates))
	for _, tmpl := range templates {
		if tmpl.Status == "published" {
			published = append(published, tmpl)
		}
	}
	return published, nil
}

func (s *TemplateService) GetTemplateByID(id string) (*models.Template, error) {
	return s.templateRepo.FindByID(id)
}

func (s *TemplateService) GetTemplateBySlug(slug string) (*models.Template, error) {
	return s.templateRepo.FindBySlug(slug)
}

func (s *TemplateService) CreateTemplate(req *CreateTemplateRequest) (*models.Template, error) {
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if existing, _ := s.templateRepo.FindBySlug(slug); existing != nil {
		return nil, errors.New("slug already exists")
	}

	tmpl := &models.Template{
		ID:         primitive.NewObjectID(),
		Name:       req.Name,
		Slug:       slug,
		Category:   req.Category,
		PriceCents: req.PriceCents,
		Currency:   strings.ToUpper(req.Currency),
		Status:     "draft",
		PreviewURL: req.PreviewURL,
		Author:     req.Author,
		Sales:      0,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	return s.templateRepo.Create(tmpl)
}

func (s *TemplateService) UpdateTemplate(id string, req *UpdateTemplateRequest) (*models.Template, error) {
	tmpl, err := s.templateRepo.FindByID(id)
	if err != nil {
		return nil, errors.New("template not found")
	}

	if req.Name != "" {
		tmpl.Name = req.Name
	}
	if req.Category != "" {
		tmpl.Category = req.Category
	}
	if req.PriceCents != nil {
		tmpl.PriceCents = *req.PriceCents
	}
	if req.Currency != "" {
		tmpl.Currency = strings.ToUpper(req.Currency)
	}
	if req.Status != "" {
		tmpl.Status = req.Status
	}
	if req.PreviewURL != "" {
		tmpl.PreviewURL = req.PreviewURL
	}

	tmpl.UpdatedAt = time.Now()
	return s.templateRepo.Update(id, tmpl)
}

func (s *TemplateService) DeleteTemplate(id string) error {
	if _, err := s.templateRepo.FindByID(id); err != nil {
		return errors.New("template not found")
	}
	return s.templateRepo.Delete(id)
}

// RecordSale bumps the sales counter when an order item for the template is
// fulfilled.
func (s *TemplateService) RecordSale(id string, count int64) error {
	if count <= 0 {
		count = 1
	}
	return s.templateRepo.IncrementSales(id, count)
}
