package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/uid0/openmakersuite/internal/domain"
	"github.com/uid0/openmakersuite/internal/dto"
	"github.com/uid0/openmakersuite/internal/model"
	"github.com/uid0/openmakersuite/internal/repository"
)

type InventoryService interface {
	CreateItem(ctx context.Context, req dto.CreateItemRequest) (*dto.ItemResponse, error)
	UpdateItem(ctx context.Context, id uuid.UUID, req dto.UpdateItemRequest) (*dto.ItemResponse, error)
	GetItem(ctx context.Context, id uuid.UUID) (*dto.ItemResponse, error)
	ListItems(ctx context.Context, onlyActive bool) ([]dto.ItemResponse, error)
	ListLowStock(ctx context.Context) ([]dto.LowStockItem, error)

	AdjustStock(ctx context.Context, actor Actor, id uuid.UUID, req dto.AdjustStockRequest) (*dto.ItemResponse, error)
	LogUsage(ctx context.Context, actor Actor, id uuid.UUID, req dto.LogUsageRequest) (*dto.ItemResponse, error)
	ListUsage(ctx context.Context, itemID uuid.UUID, limit int) ([]dto.UsageLogResponse, error)
	ListMovements(ctx context.Context, itemID uuid.UUID, limit int) ([]dto.StockMovementResponse, error)

	CreateCategory(ctx context.Context, name, description string) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateLocation(ctx context.Context, name, description string) (*model.Location, error)
	ListLocations(ctx context.Context) ([]model.Location, error)
}

type inventoryService struct {
	items      repository.ItemRepository
	usage      repository.UsageLogRepository
	movements  repository.StockMovementRepository
	categories repository.CategoryRepository
	locations  repository.LocationRepository
	dispatcher Dispatcher
	alertEmail string
}

func NewInventoryService(
	items repository.ItemRepository,
	usage repository.UsageLogRepository,
	movements repository.StockMovementRepository,
	categories repository.CategoryRepository,
	locations repository.LocationRepository,
	dispatcher Dispatcher,
	alertEmail string,
) InventoryService {
	return &inventoryService{
		items:      items,
		usage:      usage,
		movements:  movements,
		categories: categories,
		locations:  locations,
		dispatcher: dispatcher,
		alertEmail: alertEmail,
	}
}

func (s *inventoryService) CreateItem(ctx context.Context, req dto.CreateItemRequest) (*dto.ItemResponse, error) {
	item := &model.Item{
		Name:            req.Name,
		Description:     req.Description,
		SKU:             req.SKU,
		ReorderQuantity: req.ReorderQuantity,
		CurrentStock:    req.CurrentStock,
		MinimumStock:    req.MinimumStock,
		Active:          true,
		Notes:           req.Notes,
	}
	if item.SKU == "" {
		item.SKU = uuid.NewString()
	}
	if item.ReorderQuantity <= 0 {
		item.ReorderQuantity = 1
	}
	if req.CategoryID != nil {
		id, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return nil, &domain.ValidationError{Field: "category_id", Reason: "must be a valid UUID"}
		}
		if _, err := s.categories.GetByID(ctx, id); err != nil {
			return nil, translateStoreErr(err)
		}
		item.CategoryID = &id
	}
	if req.LocationID != nil {
		id, err := uuid.Parse(*req.LocationID)
		if err != nil {
			return nil, &domain.ValidationError{Field: "location_id", Reason: "must be a valid UUID"}
		}
		if _, err := s.locations.GetByID(ctx, id); err != nil {
			return nil, translateStoreErr(err)
		}
		item.LocationID = &id
	}

	if err := s.items.Create(ctx, item); err != nil {
		if isUniqueViolation(err) {
			return nil, &domain.ValidationError{Field: "sku", Reason: "already in use"}
		}
		return nil, translateStoreErr(err)
	}
	resp := toItemResponse(item)
	return &resp, nil
}

func (s *inventoryService) UpdateItem(ctx context.Context, id uuid.UUID, req dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.CategoryID != nil {
		cid, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return nil, &domain.ValidationError{Field: "category_id", Reason: "must be a valid UUID"}
		}
		item.CategoryID = &cid
	}
	if req.LocationID != nil {
		lid, err := uuid.Parse(*req.LocationID)
		if err != nil {
			return nil, &domain.ValidationError{Field: "location_id", Reason: "must be a valid UUID"}
		}
		item.LocationID = &lid
	}
	if req.ReorderQuantity != nil {
		item.ReorderQuantity = *req.ReorderQuantity
	}
	if req.MinimumStock != nil {
		item.MinimumStock = *req.MinimumStock
	}
	if req.Active != nil {
		item.Active = *req.Active
	}
	if req.Notes != nil {
		item.Notes = *req.Notes
	}
	if err := s.items.Save(ctx, item); err != nil {
		return nil, translateStoreErr(err)
	}
	resp := toItemResponse(item)
	return &resp, nil
}

func (s *inventoryService) GetItem(ctx context.Context, id uuid.UUID) (*dto.ItemResponse, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	resp := toItemResponse(item)
	return &resp, nil
}

func (s *inventoryService) ListItems(ctx context.Context, onlyActive bool) ([]dto.ItemResponse, error) {
	items, err := s.items.List(ctx, onlyActive)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	out := make([]dto.ItemResponse, 0, len(items))
	for i := range items {
		out = append(out, toItemResponse(&items[i]))
	}
	return out, nil
}

func (s *inventoryService) ListLowStock(ctx context.Context) ([]dto.LowStockItem, error) {
	items, err := s.items.ListNeedingOrder(ctx)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	out := make([]dto.LowStockItem, 0, len(items))
	for i := range items {
		item := &items[i]
		low := dto.LowStockItem{
			ID:           item.ID.String(),
			Name:         item.Name,
			CurrentStock: item.CurrentStock,
			MinimumStock: item.MinimumStock,
		}
		if link := item.PrimaryLink(); link != nil {
			low.UnitCost = link.UnitCost
		}
		out = append(out, low)
	}
	return out, nil
}

// AdjustStock applies a signed manual correction and records the
// movement in the same transaction.
func (s *inventoryService) AdjustStock(ctx context.Context, actor Actor, id uuid.UUID, req dto.AdjustStockRequest) (*dto.ItemResponse, error) {
	if req.Delta == 0 {
		return nil, &domain.ValidationError{Field: "delta", Reason: "must be non-zero"}
	}

	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if item.CurrentStock+req.Delta < 0 {
		return nil, &domain.ValidationError{Field: "delta", Reason: "would drive stock below zero"}
	}

	err = runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		if err := s.items.AdjustStockTx(tx, id, req.Delta); err != nil {
			return translateStoreErr(err)
		}
		return s.movements.CreateTx(tx, &model.StockMovement{
			ItemID:      id,
			Delta:       req.Delta,
			Reason:      model.MovementAdjustment,
			Reference:   req.Reason,
			PerformedBy: actor.Username,
		})
	})
	if err != nil {
		return nil, err
	}

	item.CurrentStock += req.Delta
	s.maybeAlertLowStock(ctx, item)
	resp := toItemResponse(item)
	return &resp, nil
}

// LogUsage records member consumption and decrements stock atomically.
func (s *inventoryService) LogUsage(ctx context.Context, actor Actor, id uuid.UUID, req dto.LogUsageRequest) (*dto.ItemResponse, error) {
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if !item.Active {
		return nil, &domain.ValidationError{Field: "item_id", Reason: "item is inactive"}
	}
	if item.CurrentStock < quantity {
		return nil, &domain.ValidationError{
			Field:  "quantity",
			Reason: fmt.Sprintf("only %d in stock", item.CurrentStock),
		}
	}

	usedBy := req.UsedBy
	if usedBy == "" {
		usedBy = actor.Username
	}

	usage := &model.UsageLog{
		ItemID:   id,
		Quantity: quantity,
		UsedBy:   usedBy,
		Notes:    req.Notes,
	}
	err = runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		if err := s.usage.CreateTx(tx, usage); err != nil {
			return translateStoreErr(err)
		}
		if err := s.items.AdjustStockTx(tx, id, -quantity); err != nil {
			return translateStoreErr(err)
		}
		return s.movements.CreateTx(tx, &model.StockMovement{
			ItemID:      id,
			Delta:       -quantity,
			Reason:      model.MovementUsage,
			Reference:   usage.ID.String(),
			PerformedBy: usedBy,
		})
	})
	if err != nil {
		return nil, err
	}

	item.CurrentStock -= quantity
	s.maybeAlertLowStock(ctx, item)
	resp := toItemResponse(item)
	return &resp, nil
}

func (s *inventoryService) ListUsage(ctx context.Context, itemID uuid.UUID, limit int) ([]dto.UsageLogResponse, error) {
	logs, err := s.usage.ListByItem(ctx, itemID, limit)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	out := make([]dto.UsageLogResponse, 0, len(logs))
	for i := range logs {
		l := &logs[i]
		out = append(out, dto.UsageLogResponse{
			ID:       l.ID.String(),
			ItemID:   l.ItemID.String(),
			Quantity: l.Quantity,
			UsedBy:   l.UsedBy,
			Notes:    l.Notes,
			UsedAt:   l.UsedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}

func (s *inventoryService) ListMovements(ctx context.Context, itemID uuid.UUID, limit int) ([]dto.StockMovementResponse, error) {
	moves, err := s.movements.ListByItem(ctx, itemID, limit)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	out := make([]dto.StockMovementResponse, 0, len(moves))
	for i := range moves {
		m := &moves[i]
		out = append(out, dto.StockMovementResponse{
			ID:          m.ID.String(),
			ItemID:      m.ItemID.String(),
			Delta:       m.Delta,
			Reason:      m.Reason,
			Reference:   m.Reference,
			PerformedBy: m.PerformedBy,
			CreatedAt:   m.CreatedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}

func (s *inventoryService) CreateCategory(ctx context.Context, name, description string) (*model.Category, error) {
	c := &model.Category{Name: name, Description: description}
	if err := s.categories.Create(ctx, c); err != nil {
		if isUniqueViolation(err) {
			return nil, &domain.ValidationError{Field: "name", Reason: "already in use"}
		}
		return nil, translateStoreErr(err)
	}
	return c, nil
}

func (s *inventoryService) ListCategories(ctx context.Context) ([]model.Category, error) {
	list, err := s.categories.List(ctx)
	return list, translateStoreErr(err)
}

func (s *inventoryService) CreateLocation(ctx context.Context, name, description string) (*model.Location, error) {
	l := &model.Location{Name: name, Description: description}
	if err := s.locations.Create(ctx, l); err != nil {
		if isUniqueViolation(err) {
			return nil, &domain.ValidationError{Field: "name", Reason: "already in use"}
		}
		return nil, translateStoreErr(err)
	}
	return l, nil
}

func (s *inventoryService) ListLocations(ctx context.Context) ([]model.Location, error) {
	list, err := s.locations.List(ctx)
	return list, translateStoreErr(err)
}

func (s *inventoryService) maybeAlertLowStock(ctx context.Context, item *model.Item) {
	if !item.NeedsOrder() || s.alertEmail == "" {
		return
	}
	subject := fmt.Sprintf("Low stock: %s", item.Name)
	body := fmt.Sprintf("%s is down to %d (minimum %d). Consider submitting a reorder request.",
		item.Name, item.CurrentStock, item.MinimumStock)
	s.dispatcher.QueueEmail(ctx, []string{s.alertEmail}, subject, body)
	log.Warn().
		Str("item", item.Name).
		Int("current_stock", item.CurrentStock).
		Int("minimum_stock", item.MinimumStock).
		Msg("item below minimum stock")
}

func toItemResponse(item *model.Item) dto.ItemResponse {
	resp := dto.ItemResponse{
		ID:              item.ID.String(),
		Name:            item.Name,
		Description:     item.Description,
		SKU:             item.SKU,
		ReorderQuantity: item.ReorderQuantity,
		CurrentStock:    item.CurrentStock,
		MinimumStock:    item.MinimumStock,
		NeedsOrder:      item.NeedsOrder(),
		Active:          item.Active,
		Notes:           item.Notes,
	}
	if item.Category != nil {
		resp.Category = item.Category.Name
	}
	if item.Location != nil {
		resp.Location = item.Location.Name
	}
	if link := item.PrimaryLink(); link != nil && link.Supplier != nil {
		resp.PrimarySupplier = &link.Supplier.Name
	}
	return resp
}
