package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/uid0/openmakersuite/internal/model"
	"github.com/uid0/openmakersuite/internal/repository"
)

type LeadTimeService interface {
	// ProjectDelivery estimates the delivery date for an order placed at
	// orderedAt. A non-positive average falls back to the configured
	// default.
	ProjectDelivery(orderedAt time.Time, avgDays int) time.Time

	// RecomputeForItem recalculates the average lead time from the
	// item's completed reorders and stores it on the item's primary
	// supplier link. Returns the stored average and whether anything
	// changed. With no usable history the prior average is left alone.
	RecomputeForItem(ctx context.Context, itemID uuid.UUID) (int, bool, error)

	// RecomputeAll runs RecomputeForItem over every item that has
	// completed reorders. Safe to run repeatedly.
	RecomputeAll(ctx context.Context) error
}

type leadTimeService struct {
	reorders    repository.ReorderRepository
	items       repository.ItemRepository
	links       repository.SupplierLinkRepository
	defaultDays int
}

func NewLeadTimeService(
	reorders repository.ReorderRepository,
	items repository.ItemRepository,
	links repository.SupplierLinkRepository,
	defaultDays int,
) LeadTimeService {
	if defaultDays <= 0 {
		defaultDays = 7
	}
	return &leadTimeService{
		reorders:    reorders,
		items:       items,
		links:       links,
		defaultDays: defaultDays,
	}
}

func (s *leadTimeService) ProjectDelivery(orderedAt time.Time, avgDays int) time.Time {
	if avgDays <= 0 {
		avgDays = s.defaultDays
	}
	return orderedAt.AddDate(0, 0, avgDays)
}

func (s *leadTimeService) RecomputeForItem(ctx context.Context, itemID uuid.UUID) (int, bool, error) {
	completed, err := s.reorders.ListReceivedByItem(ctx, itemID)
	if err != nil {
		return 0, false, translateStoreErr(err)
	}

	avg, ok := meanLeadTimeDays(completed)
	if !ok {
		return 0, false, nil
	}

	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return 0, false, translateStoreErr(err)
	}
	link := item.PrimaryLink()
	if link == nil {
		log.Debug().Str("item_id", itemID.String()).Msg("no supplier link to store lead time on")
		return avg, false, nil
	}
	if link.AvgLeadTimeDays == avg {
		return avg, false, nil
	}

	if err := s.links.UpdateLeadTime(ctx, link.ID, avg); err != nil {
		return 0, false, translateStoreErr(err)
	}
	log.Info().
		Str("item_id", itemID.String()).
		Str("supplier_link_id", link.ID.String()).
		Int("avg_lead_time_days", avg).
		Msg("average lead time updated")
	return avg, true, nil
}

func (s *leadTimeService) RecomputeAll(ctx context.Context) error {
	completed, err := s.reorders.ListReceived(ctx)
	if err != nil {
		return translateStoreErr(err)
	}

	seen := make(map[uuid.UUID]bool)
	for i := range completed {
		itemID := completed[i].ItemID
		if seen[itemID] {
			continue
		}
		seen[itemID] = true
		if _, _, err := s.RecomputeForItem(ctx, itemID); err != nil {
			log.Error().Err(err).Str("item_id", itemID.String()).Msg("lead time recompute failed")
		}
	}
	return nil
}

// meanLeadTimeDays is the integer mean of whole days between ordering
// and delivery across completed requests. Requests with a delivery
// stamped before the order are malformed and skipped.
func meanLeadTimeDays(completed []model.ReorderRequest) (int, bool) {
	totalDays := 0
	count := 0
	for i := range completed {
		r := &completed[i]
		if r.OrderedAt == nil || r.ActualDelivery == nil {
			continue
		}
		if r.ActualDelivery.Before(*r.OrderedAt) {
			log.Warn().
				Str("request_id", r.ID.String()).
				Msg("delivery recorded before order, skipping in lead time average")
			continue
		}
		totalDays += int(r.ActualDelivery.Sub(*r.OrderedAt).Hours() / 24)
		count++
	}
	if count == 0 {
		return 0, false
	}
	return totalDays / count, true
}
