package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/uid0/openmakersuite/internal/domain"
	"github.com/uid0/openmakersuite/internal/dto"
	"github.com/uid0/openmakersuite/internal/model"
	"github.com/uid0/openmakersuite/internal/repository"
)

// EventPriceChanged is emitted whenever a ledger entry is appended for
// an existing link.
const EventPriceChanged = "price.changed"

type CatalogService interface {
	CreateSupplier(ctx context.Context, req dto.CreateSupplierRequest) (*dto.SupplierResponse, error)
	UpdateSupplier(ctx context.Context, id uuid.UUID, req dto.UpdateSupplierRequest) (*dto.SupplierResponse, error)
	GetSupplier(ctx context.Context, id uuid.UUID) (*dto.SupplierResponse, error)
	ListSuppliers(ctx context.Context) ([]dto.SupplierResponse, error)

	CreateLink(ctx context.Context, req dto.CreateSupplierLinkRequest) (*dto.SupplierLinkResponse, error)
	UpdateLink(ctx context.Context, id uuid.UUID, req dto.UpdateSupplierLinkRequest) (*dto.SupplierLinkResponse, error)
	GetLink(ctx context.Context, id uuid.UUID) (*dto.SupplierLinkResponse, error)
	ListLinksByItem(ctx context.Context, itemID uuid.UUID) ([]dto.SupplierLinkResponse, error)

	ListPriceHistory(ctx context.Context, linkID uuid.UUID, filter dto.PriceHistoryFilter) ([]dto.PriceHistoryResponse, error)

	// RecordCostObservationTx folds a real-world per-unit cost (for
	// example the actual cost captured when an order is placed) into the
	// link and its ledger. A cost equal to the link's current unit cost
	// is a no-op.
	RecordCostObservationTx(tx *gorm.DB, linkID uuid.UUID, perUnit decimal.Decimal, note string) error
}

type catalogService struct {
	suppliers  repository.SupplierRepository
	links      repository.SupplierLinkRepository
	history    repository.PriceHistoryRepository
	items      repository.ItemRepository
	dispatcher Dispatcher
}

func NewCatalogService(
	suppliers repository.SupplierRepository,
	links repository.SupplierLinkRepository,
	history repository.PriceHistoryRepository,
	items repository.ItemRepository,
	dispatcher Dispatcher,
) CatalogService {
	return &catalogService{
		suppliers:  suppliers,
		links:      links,
		history:    history,
		items:      items,
		dispatcher: dispatcher,
	}
}

func (s *catalogService) CreateSupplier(ctx context.Context, req dto.CreateSupplierRequest) (*dto.SupplierResponse, error) {
	sup := &model.Supplier{
		Name:    req.Name,
		Type:    req.Type,
		Website: req.Website,
		Notes:   req.Notes,
	}
	if sup.Type == "" {
		sup.Type = model.SupplierOnline
	}
	if err := s.suppliers.Create(ctx, sup); err != nil {
		return nil, translateStoreErr(err)
	}
	resp := toSupplierResponse(sup)
	return &resp, nil
}

func (s *catalogService) UpdateSupplier(ctx context.Context, id uuid.UUID, req dto.UpdateSupplierRequest) (*dto.SupplierResponse, error) {
	sup, err := s.suppliers.GetByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if req.Name != nil {
		sup.Name = *req.Name
	}
	if req.Type != nil {
		sup.Type = *req.Type
	}
	if req.Website != nil {
		sup.Website = req.Website
	}
	if req.Notes != nil {
		sup.Notes = *req.Notes
	}
	if err := s.suppliers.Save(ctx, sup); err != nil {
		return nil, translateStoreErr(err)
	}
	resp := toSupplierResponse(sup)
	return &resp, nil
}

func (s *catalogService) GetSupplier(ctx context.Context, id uuid.UUID) (*dto.SupplierResponse, error) {
	sup, err := s.suppliers.GetByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	resp := toSupplierResponse(sup)
	return &resp, nil
}

func (s *catalogService) ListSuppliers(ctx context.Context) ([]dto.SupplierResponse, error) {
	list, err := s.suppliers.List(ctx)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	out := make([]dto.SupplierResponse, 0, len(list))
	for i := range list {
		out = append(out, toSupplierResponse(&list[i]))
	}
	return out, nil
}

// CreateLink creates the item-supplier relationship and seeds its price
// ledger with a "created" entry.
func (s *catalogService) CreateLink(ctx context.Context, req dto.CreateSupplierLinkRequest) (*dto.SupplierLinkResponse, error) {
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return nil, &domain.ValidationError{Field: "item_id", Reason: "must be a valid UUID"}
	}
	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		return nil, &domain.ValidationError{Field: "supplier_id", Reason: "must be a valid UUID"}
	}
	if _, err := s.items.GetByID(ctx, itemID); err != nil {
		return nil, translateStoreErr(err)
	}
	if _, err := s.suppliers.GetByID(ctx, supplierID); err != nil {
		return nil, translateStoreErr(err)
	}

	link := &model.SupplierLink{
		ItemID:             itemID,
		SupplierID:         supplierID,
		SupplierSKU:        req.SupplierSKU,
		SupplierURL:        req.SupplierURL,
		PackageUPC:         req.PackageUPC,
		UnitUPC:            req.UnitUPC,
		QuantityPerPackage: req.QuantityPerPackage,
		UnitCost:           req.UnitCost,
		PackageCost:        req.PackageCost,
		IsPrimary:          req.IsPrimary,
		Active:             true,
		Notes:              req.Notes,
	}
	if link.QuantityPerPackage <= 0 {
		link.QuantityPerPackage = 1
	}
	deriveCosts(link)

	err = runTx(ctx, s.links.DB(), func(tx *gorm.DB) error {
		// The partial unique index on primary links is checked at statement
		// time, so the old primary has to be cleared before this insert.
		if link.IsPrimary {
			if err := s.links.ClearPrimaryTx(tx, itemID, uuid.Nil); err != nil {
				return translateStoreErr(err)
			}
		}
		if err := s.links.CreateTx(tx, link); err != nil {
			return translateStoreErr(err)
		}
		return s.history.CreateTx(tx, &model.PriceHistoryEntry{
			SupplierLinkID:     link.ID,
			UnitCost:           link.UnitCost,
			PackageCost:        link.PackageCost,
			QuantityPerPackage: link.QuantityPerPackage,
			ChangeKind:         model.PriceChangeCreated,
		})
	})
	if err != nil {
		return nil, err
	}

	resp := toLinkResponse(link)
	return &resp, nil
}

// UpdateLink applies changes and appends a ledger entry when anything
// price-relevant moved: a supplier change always writes one, a cost
// change writes one, anything else leaves the ledger alone.
func (s *catalogService) UpdateLink(ctx context.Context, id uuid.UUID, req dto.UpdateSupplierLinkRequest) (*dto.SupplierLinkResponse, error) {
	var updated *model.SupplierLink
	var appended *model.PriceHistoryEntry

	err := runTx(ctx, s.links.DB(), func(tx *gorm.DB) error {
		link, err := s.links.GetByIDTx(tx, id)
		if err != nil {
			return translateStoreErr(err)
		}

		prevUnit := link.UnitCost
		prevSupplier := link.SupplierID

		if req.SupplierID != nil {
			supplierID, parseErr := uuid.Parse(*req.SupplierID)
			if parseErr != nil {
				return &domain.ValidationError{Field: "supplier_id", Reason: "must be a valid UUID"}
			}
			if _, err := s.suppliers.GetByID(ctx, supplierID); err != nil {
				return translateStoreErr(err)
			}
			link.SupplierID = supplierID
		}
		if req.SupplierSKU != nil {
			link.SupplierSKU = *req.SupplierSKU
		}
		if req.SupplierURL != nil {
			link.SupplierURL = req.SupplierURL
		}
		if req.PackageUPC != nil {
			link.PackageUPC = *req.PackageUPC
		}
		if req.UnitUPC != nil {
			link.UnitUPC = *req.UnitUPC
		}
		if req.QuantityPerPackage != nil {
			link.QuantityPerPackage = *req.QuantityPerPackage
		}
		if req.UnitCost != nil {
			link.UnitCost = req.UnitCost
			link.PackageCost = nil
		}
		if req.PackageCost != nil {
			link.PackageCost = req.PackageCost
			if req.UnitCost == nil {
				link.UnitCost = nil
			}
		}
		if req.IsPrimary != nil {
			link.IsPrimary = *req.IsPrimary
		}
		if req.Active != nil {
			link.Active = *req.Active
		}
		if req.Notes != nil {
			link.Notes = *req.Notes
		}
		deriveCosts(link)

		// Clear any other primary before persisting, the unique index on
		// primary links rejects a second one at statement time.
		if link.IsPrimary {
			if err := s.links.ClearPrimaryTx(tx, link.ItemID, link.ID); err != nil {
				return translateStoreErr(err)
			}
		}
		if err := s.links.SaveTx(tx, link); err != nil {
			return translateStoreErr(err)
		}

		changeKind := ""
		switch {
		case link.SupplierID != prevSupplier:
			changeKind = model.PriceChangeSupplierChanged
		case !decimalPtrEqual(prevUnit, link.UnitCost):
			changeKind = model.PriceChangeUpdated
		}
		if changeKind != "" {
			entry, err := s.appendLedgerTx(tx, link, changeKind, "")
			if err != nil {
				return err
			}
			appended = entry
		}

		updated = link
		return nil
	})
	if err != nil {
		return nil, err
	}

	if appended != nil {
		s.emitPriceChanged(ctx, updated, appended)
	}

	resp := toLinkResponse(updated)
	return &resp, nil
}

func (s *catalogService) GetLink(ctx context.Context, id uuid.UUID) (*dto.SupplierLinkResponse, error) {
	link, err := s.links.GetByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	resp := toLinkResponse(link)
	return &resp, nil
}

func (s *catalogService) ListLinksByItem(ctx context.Context, itemID uuid.UUID) ([]dto.SupplierLinkResponse, error) {
	links, err := s.links.ListByItem(ctx, itemID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	out := make([]dto.SupplierLinkResponse, 0, len(links))
	for i := range links {
		out = append(out, toLinkResponse(&links[i]))
	}
	return out, nil
}

func (s *catalogService) ListPriceHistory(ctx context.Context, linkID uuid.UUID, filter dto.PriceHistoryFilter) ([]dto.PriceHistoryResponse, error) {
	if _, err := s.links.GetByID(ctx, linkID); err != nil {
		return nil, translateStoreErr(err)
	}

	var from, to *time.Time
	if filter.From != "" {
		t, err := time.Parse("2006-01-02", filter.From)
		if err != nil {
			return nil, &domain.ValidationError{Field: "from", Reason: "must be YYYY-MM-DD"}
		}
		from = &t
	}
	if filter.To != "" {
		t, err := time.Parse("2006-01-02", filter.To)
		if err != nil {
			return nil, &domain.ValidationError{Field: "to", Reason: "must be YYYY-MM-DD"}
		}
		// Inclusive upper bound covers the whole day.
		end := t.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}

	entries, err := s.history.ListForLink(ctx, linkID, from, to, filter.Limit)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	out := make([]dto.PriceHistoryResponse, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		out = append(out, dto.PriceHistoryResponse{
			ID:                 e.ID.String(),
			SupplierLinkID:     e.SupplierLinkID.String(),
			UnitCost:           e.UnitCost,
			PackageCost:        e.PackageCost,
			QuantityPerPackage: e.QuantityPerPackage,
			ChangeKind:         e.ChangeKind,
			PercentChange:      e.PercentChange,
			Notes:              e.Notes,
			RecordedAt:         e.RecordedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}

func (s *catalogService) RecordCostObservationTx(tx *gorm.DB, linkID uuid.UUID, perUnit decimal.Decimal, note string) error {
	link, err := s.links.GetByIDTx(tx, linkID)
	if err != nil {
		return translateStoreErr(err)
	}
	if link.UnitCost != nil && link.UnitCost.Equal(perUnit) {
		return nil
	}

	link.UnitCost = &perUnit
	pkg := perUnit.Mul(decimal.NewFromInt(int64(link.QuantityPerPackage)))
	link.PackageCost = &pkg
	if err := s.links.SaveTx(tx, link); err != nil {
		return translateStoreErr(err)
	}

	_, err = s.appendLedgerTx(tx, link, model.PriceChangeUpdated, note)
	return err
}

// appendLedgerTx writes one immutable entry for the link's current
// costs, computing percent change against the latest prior entry.
func (s *catalogService) appendLedgerTx(tx *gorm.DB, link *model.SupplierLink, changeKind, note string) (*model.PriceHistoryEntry, error) {
	var pct *decimal.Decimal
	prev, err := s.history.LatestForLinkTx(tx, link.ID)
	if err != nil && !isNotFound(err) {
		return nil, translateStoreErr(err)
	}
	if prev != nil {
		pct = percentChange(prev.UnitCost, link.UnitCost)
	}

	entry := &model.PriceHistoryEntry{
		SupplierLinkID:     link.ID,
		UnitCost:           link.UnitCost,
		PackageCost:        link.PackageCost,
		QuantityPerPackage: link.QuantityPerPackage,
		ChangeKind:         changeKind,
		PercentChange:      pct,
		Notes:              note,
	}
	if err := s.history.CreateTx(tx, entry); err != nil {
		return nil, translateStoreErr(err)
	}
	return entry, nil
}

func (s *catalogService) emitPriceChanged(ctx context.Context, link *model.SupplierLink, entry *model.PriceHistoryEntry) {
	payload := map[string]any{
		"supplier_link_id": link.ID.String(),
		"item_id":          link.ItemID.String(),
		"supplier_id":      link.SupplierID.String(),
		"change_kind":      entry.ChangeKind,
	}
	if entry.UnitCost != nil {
		payload["unit_cost"] = entry.UnitCost.String()
	}
	if entry.PercentChange != nil {
		payload["percent_change"] = entry.PercentChange.String()
	}
	s.dispatcher.QueueEvent(ctx, EventPriceChanged, payload)
	log.Info().
		Str("supplier_link_id", link.ID.String()).
		Str("change_kind", entry.ChangeKind).
		Msg("price ledger entry appended")
}

// deriveCosts fills in whichever of unit/package cost is missing from
// the other, matching how package listings are usually priced.
func deriveCosts(link *model.SupplierLink) {
	qpp := decimal.NewFromInt(int64(link.QuantityPerPackage))
	switch {
	case link.UnitCost == nil && link.PackageCost != nil:
		unit := link.PackageCost.DivRound(qpp, 2)
		link.UnitCost = &unit
	case link.PackageCost == nil && link.UnitCost != nil:
		pkg := link.UnitCost.Mul(qpp)
		link.PackageCost = &pkg
	}
}

// percentChange is (new-prev)/prev*100 rounded to two decimals. Nil when
// either side is missing or the previous cost is zero.
func percentChange(prev, next *decimal.Decimal) *decimal.Decimal {
	if prev == nil || next == nil || prev.IsZero() {
		return nil
	}
	pct := next.Sub(*prev).Div(*prev).Mul(decimal.NewFromInt(100)).Round(2)
	return &pct
}

func decimalPtrEqual(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func toSupplierResponse(s *model.Supplier) dto.SupplierResponse {
	return dto.SupplierResponse{
		ID:      s.ID.String(),
		Name:    s.Name,
		Type:    s.Type,
		Website: s.Website,
		Notes:   s.Notes,
	}
}

func toLinkResponse(l *model.SupplierLink) dto.SupplierLinkResponse {
	resp := dto.SupplierLinkResponse{
		ID:                 l.ID.String(),
		ItemID:             l.ItemID.String(),
		SupplierID:         l.SupplierID.String(),
		SupplierSKU:        l.SupplierSKU,
		SupplierURL:        l.SupplierURL,
		QuantityPerPackage: l.QuantityPerPackage,
		UnitCost:           l.UnitCost,
		PackageCost:        l.PackageCost,
		AvgLeadTimeDays:    l.AvgLeadTimeDays,
		IsPrimary:          l.IsPrimary,
		Active:             l.Active,
	}
	if l.Supplier != nil {
		resp.SupplierName = l.Supplier.Name
	}
	return resp
}
