package services

import (
	"errors"
	"strings"
	"time"

	"market-backend/internal/models"
	"market-backend/internal/repository"
	"market-backend/pkg/email"
	"market-backend/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type OrderService struct {
	orderRepo    *repository.OrderRepository
	appRepo      *repository.ApplicationRepository
	templateRepo *repository.TemplateRepository
	platformRepo *repository.PlatformRepository
	appService   *ApplicationService
	tmplService  *TemplateService
	emailService *email.EmailService
}

func NewOrderService(
	orderRepo *repository.OrderRepository,
	appRepo *repository.ApplicationRepository,
	templateRepo *repository.TemplateRepository,
	platformRepo *repository.PlatformRepository,
) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		appRepo:      appRepo,
		templateRepo: templateRepo,
		platformRepo: platformRepo,
	}
}

// SetApplicationService allows wiring the application service for download
// accounting on fulfilment.
func (s *OrderService) SetApplicationService(appService *ApplicationService) {
	s.appService = appService
}

// SetTemplateService allows wiring the template service for sales accounting
// on fulfilment.
func (s *OrderService) SetTemplateService(tmplService *TemplateService) {
	s.tmplService = tmplService
}

// SetEmailService allows wiring the email service for order receipts.
func (s *OrderService) SetEmailService(emailService *email.EmailService) {
	s.emailService = emailService
}

type CreateOrderItemRequest struct {
	Kind      string `json:"kind" validate:"required,oneof=application template"`
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

type CreateOrderRequest struct {
	BuyerEmail string                   `json:"buyerEmail" validate:"required,email"`
	PlatformID string                   `json:"platformId" validate:"required"`
	Items      []CreateOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CreateOrder prices each item from the catalog, applies the platform fee,
// and stores the order as pending. Prices are never taken from the request.
func (s *OrderService) CreateOrder(req *CreateOrderRequest) (*models.Order, error) {
	platform, err := s.platformRepo.FindByID(req.PlatformID)
	if err != nil {
		return nil, errors.New("payment platform not found")
	}
	if !platform.Enabled {
		return nil, errors.New("payment platform is disabled")
	}

	var (
		items    []models.OrderItem
		total    int64
		currency string
	)

	for _, item := range req.Items {
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}

		switch item.Kind {
		case "application":
			app, err := s.appRepo.FindByID(item.ProductID)
			if err != nil {
				return nil, errors.New("application not found: " + item.ProductID)
			}
			if app.Status != "published" {
				return nil, errors.New("application is not available for purchase")
			}
			if currency == "" {
				currency = app.Currency
			} else if currency != app.Currency {
				return nil, errors.New("order items must share a currency")
			}
			items = append(items, models.OrderItem{
				Kind:      "application",
				ProductID: app.ID,
				Title:     app.Name,
				UnitCents: app.PriceCents,
				Quantity:  quantity,
			})
			total += app.PriceCents * int64(quantity)

		case "template":
			tmpl, err := s.templateRepo.FindByID(item.ProductID)
			if err != nil {
				return nil, errors.New("template not found: " + item.ProductID)
			}
			if tmpl.Status != "published" {
				return nil, errors.New("template is not available for purchase")
			}
			if currency == "" {
				currency = tmpl.Currency
			} else if currency != tmpl.Currency {
				return nil, errors.New("order items must share a currency")
			}
			items = append(items, models.OrderItem{
				Kind:      "template",
				ProductID: tmpl.ID,
				Title:     tmpl.Name,
				UnitCents: tmpl.PriceCents,
				Quantity:  quantity,
			})
			total += tmpl.PriceCents * int64(quantity)

		default:
			return nil, errors.New("unknown order item kind")
		}
	}

	hasCurrency := false
	for _, c := range platform.Currencies {
		if c == currency {
			hasCurrency = true
			break
		}
	}
	if !hasCurrency {
		return nil, errors.New("platform does not settle in " + currency)
	}

	fee := total * int64(platform.FeeBasisPts) / 10000

	order := &models.Order{
		ID:         primitive.NewObjectID(),
		Reference:  "ord_" + uuid.NewString(),
		BuyerEmail: strings.ToLower(strings.TrimSpace(req.BuyerEmail)),
		Items:      items,
		TotalCents: total,
		FeeCents:   fee,
		Currency:   currency,
		PlatformID: platform.ID,
		Status:     models.OrderStatusPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	return s.orderRepo.Create(order)
}

func (s *OrderService) GetAllOrders() ([]*models.Order, error) {
	return s.orderRepo.FindAll()
}

func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.FindByID(id)
}

func (s *OrderService) GetOrderByReference(reference string) (*models.Order, error) {
	return s.orderRepo.FindByReference(reference)
}

func (s *OrderService) GetOrdersByStatus(status string) ([]*models.Order, error) {
	return s.orderRepo.FindByStatus(status)
}

func (s *OrderService) GetOrdersByBuyer(buyerEmail string) ([]*models.Order, error) {
	return s.orderRepo.FindByBuyer(strings.ToLower(strings.TrimSpace(buyerEmail)))
}

// MarkPaid transitions a pending order to paid, updates product counters, and
// sends the receipt email. Counter and email failures are logged, not fatal;
// the payment itself already happened.
func (s *OrderService) MarkPaid(id string) (*models.Order, error) {
	order, err := s.orderRepo.FindByID(id)
	if err != nil {
		return nil, errors.New("order not found")
	}
	if order.Status != models.OrderStatusPending {
		return nil, errors.New("only pending orders can be marked paid")
	}

	now := time.Now()
	order.Status = models.OrderStatusPaid
	order.PaidAt = &now
	order.UpdatedAt = now

	updated, err := s.orderRepo.Update(id, order)
	if err != nil {
		return nil, err
	}

	for _, item := range updated.Items {
		switch item.Kind {
		case "application":
			if s.appService != nil {
				if err := s.appService.RecordDownload(item.ProductID.Hex(), int64(item.Quantity)); err != nil {
					logger.Logger().Warn("failed to record application download",
						zap.String("productId", item.ProductID.Hex()), zap.Error(err))
				}
			}
		case "template":
			if s.tmplService != nil {
				if err := s.tmplService.RecordSale(item.ProductID.Hex(), int64(item.Quantity)); err != nil {
					logger.Logger().Warn("failed to record template sale",
						zap.String("productId", item.ProductID.Hex()), zap.Error(err))
				}
			}
		}
	}

	if s.emailService != nil {
		if err := s.emailService.SendOrderReceiptEmail(updated.BuyerEmail, email.OrderReceipt{
			Reference:  updated.Reference,
			TotalCents: updated.TotalCents,
			Currency:   updated.Currency,
			ItemCount:  len(updated.Items),
			PaidAt:     now,
		}); err != nil {
			logger.Logger().Warn("failed to send order receipt",
				zap.String("reference", updated.Reference), zap.Error(err))
		}
	}

	return updated, nil
}

// RefundOrder transitions a paid order to refunded.
func (s *OrderService) RefundOrder(id string) (*models.Order, error) {
	order, err := s.orderRepo.FindByID(id)
	if err != nil {
		return nil, errors.New("order not found")
	}
	if order.Status != models.OrderStatusPaid {
		return nil, errors.New("only paid orders can be refunded")
	}

	now := time.Now()
	order.Status = models.OrderStatusRefunded
	order.RefundedAt = &now
	order.UpdatedAt = now

	return s.orderRepo.Update(id, order)
}

// CancelOrder transitions a pending order to cancelled.
func (s *OrderService) CancelOrder(id string) (*models.Order, error) {
	order, err := s.orderRepo.FindByID(id)
	if err != nil {
		return nil, errors.New("order not found")
	}
	if order.Status != models.OrderStatusPending {
		return nil, errors.New("only pending orders can be cancelled")
	}

	order.Status = models.OrderStatusCancelled
	order.UpdatedAt = time.Now()

	return s.orderRepo.Update(id, order)
}
