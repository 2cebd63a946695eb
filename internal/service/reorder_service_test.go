package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uid0/openmakersuite/internal/domain"
	"github.com/uid0/openmakersuite/internal/dto"
	"github.com/uid0/openmakersuite/internal/model"
)

type reorderFixture struct {
	items      *stubItemRepo
	links      *stubLinkRepo
	reorders   *stubReorderRepo
	movements  *stubMovementRepo
	history    *stubHistoryRepo
	dispatcher *stubDispatcher
	svc        ReorderService
}

func newReorderFixture() *reorderFixture {
	f := &reorderFixture{
		items:      newStubItemRepo(),
		links:      newStubLinkRepo(),
		reorders:   newStubReorderRepo(),
		movements:  newStubMovementRepo(),
		history:    newStubHistoryRepo(),
		dispatcher: &stubDispatcher{},
	}
	f.reorders.itemSource = f.items
	catalog := NewCatalogService(newStubSupplierRepo(), f.links, f.history, f.items, f.dispatcher)
	leadTimes := NewLeadTimeService(f.reorders, f.items, f.links, 7)
	f.svc = NewReorderService(f.reorders, f.items, f.movements, catalog, leadTimes, f.dispatcher)
	return f
}

var member = Actor{UserID: uuid.New(), Username: "casey", Role: model.RoleMember}
var admin = Actor{UserID: uuid.New(), Username: "jordan", Role: model.RoleAdmin}

func TestSubmitCreatesPendingRequest(t *testing.T) {
	f := newReorderFixture()
	item := seedItem(f.items, f.links, "PLA Filament", 2, 5, "24.99")

	resp, err := f.svc.Submit(context.Background(), member, dto.SubmitReorderRequest{
		ItemID:   item.ID.String(),
		Quantity: 3,
		Priority: model.PriorityHigh,
		Notes:    "almost out",
	})
	require.NoError(t, err)

	assert.Equal(t, model.ReorderPending, resp.Status)
	assert.Equal(t, 3, resp.Quantity)
	assert.Equal(t, model.PriorityHigh, resp.Priority)
	assert.Equal(t, "casey", resp.RequestedBy)
	assert.Equal(t, []string{EventReorderSubmitted}, f.dispatcher.events)

	// Estimated cost = quantity x primary link unit cost.
	require.NotNil(t, resp.EstimatedCost)
	assert.True(t, resp.EstimatedCost.Equal(decimal.RequireFromString("74.97")))
}

func TestSubmitDefaultsQuantityAndPriority(t *testing.T) {
	f := newReorderFixture()
	item := seedItem(f.items, f.links, "Wood Glue", 1, 3, "8.50")

	resp, err := f.svc.Submit(context.Background(), member, dto.SubmitReorderRequest{
		ItemID: item.ID.String(),
	})
	require.NoError(t, err)

	assert.Equal(t, item.ReorderQuantity, resp.Quantity)
	assert.Equal(t, model.PriorityNormal, resp.Priority)
}

func TestSubmitRejectsDuplicateActiveRequest(t *testing.T) {
	f := newReorderFixture()
	item := seedItem(f.items, f.links, "Sandpaper", 0, 2, "1.25")

	first, err := f.svc.Submit(context.Background(), member, dto.SubmitReorderRequest{ItemID: item.ID.String()})
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), member, dto.SubmitReorderRequest{ItemID: item.ID.String()})
	var dupErr *domain.DuplicateActiveRequestError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, first.ID, dupErr.Existing.ID.String())
}

func TestSubmitAllowedAfterTerminalRequest(t *testing.T) {
	f := newReorderFixture()
	item := seedItem(f.items, f.links, "Solder", 0, 2, "12.00")
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, member, dto.SubmitReorderRequest{ItemID: item.ID.String()})
	require.NoError(t, err)

	id := uuid.MustParse(first.ID)
	_, err = f.svc.Cancel(ctx, admin, id, dto.ReviewReorderRequest{AdminNotes: "not needed"})
	require.NoError(t, err)

	// Cancelled is terminal, so a fresh request may go through.
	_, err = f.svc.Submit(ctx, member, dto.SubmitReorderRequest{ItemID: item.ID.String()})
	assert.NoError(t, err)
}

func TestSubmitUnknownItem(t *testing.T) {
	f := newReorderFixture()
	_, err := f.svc.Submit(context.Background(), member, dto.SubmitReorderRequest{ItemID: uuid.NewString()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSubmitInactiveItem(t *testing.T) {
	f := newReorderFixture()
	item := seedItem(f.items, f.links, "Retired Widget", 0, 2, "3.00")
	item.Active = false

	_, err := f.svc.Submit(context.Background(), member, dto.SubmitReorderRequest{ItemID: item.ID.String()})
	var valErr *domain.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestLifecycleHappyPath(t *testing.T) {
	f := newReorderFixture()
	item := seedItem(f.items, f.links, "Acrylic Sheet", 1, 4, "15.00")
	ctx := context.Background()

	sub, err := f.svc.Submit(ctx, member, dto.SubmitReorderRequest{ItemID: item.ID.String(), Quantity: 4})
	require.NoError(t, err)
	id := uuid.MustParse(sub.ID)

	appr, err := f.svc.Approve(ctx, admin, id, dto.ReviewReorderRequest{AdminNotes: "go ahead"})
	require.NoError(t, err)
	assert.Equal(t, model.ReorderApproved, appr.Status)
	require.NotNil(t, appr.ReviewedBy)
	assert.Equal(t, "jordan", *appr.ReviewedBy)

	ord, err := f.svc.MarkOrdered(ctx, admin, id, dto.MarkOrderedRequest{OrderNumber: "PO-1234"})
	require.NoError(t, err)
	assert.Equal(t, model.ReorderOrdered, ord.Status)
	assert.Equal(t, "PO-1234", ord.OrderNumber)
	// Estimate comes from the link's 7 day average.
	assert.NotEqual(t, "unknown", ord.EstimatedDelivery)

	recv, err := f.svc.MarkReceived(ctx, admin, id, dto.MarkReceivedRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.ReorderReceived, recv.Status)
	assert.NotNil(t, recv.ActualDelivery)

	// Delivery restocks the item and leaves an audit trail.
	assert.Equal(t, 5, f.items.items[item.ID].CurrentStock)
	require.Len(t, f.movements.movements, 1)
	assert.Equal(t, model.MovementDelivery, f.movements.movements[0].Reason)
	assert.Equal(t, 4, f.movements.movements[0].Delta)

	// Lead time recompute queued for the item.
	assert.Equal(t, []uuid.UUID{item.ID}, f.dispatcher.leadTimes)

	assert.Equal(t, []string{
		EventReorderSubmitted,
		EventReorderApproved,
		EventReorderOrdered,
		EventReorderReceived,
	}, f.dispatcher.events)
}

func TestInvalidTransitions(t *testing.T) {
	f := newReorderFixture()
	item := seedItem(f.items, f.links, "Epoxy", 0, 1, "20.00")
	ctx := context.Background()

	sub, err := f.svc.Submit(ctx, member, dto.SubmitReorderRequest{ItemID: item.ID.String()})
	require.NoError(t, err)
	id := uuid.MustParse(sub.ID)

	// pending cannot jump straight to ordered or received.
	_, err = f.svc.MarkOrdered(ctx, admin, id, dto.MarkOrderedRequest{})
	var transErr *domain.InvalidTransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, model.ReorderPending, transErr.From)

	_, err = f.svc.MarkReceived(ctx, admin, id, dto.MarkReceivedRequest{})
	require.ErrorAs(t, err, &transErr)

	// Walk to received, then confirm terminal states refuse everything.
	_, err = f.svc.Approve(ctx, admin, id, dto.ReviewReorderRequest{})
	require.NoError(t, err)
	_, err = f.svc.MarkOrdered(ctx, admin, id, dto.MarkOrderedRequest{})
	require.NoError(t, err)

	// ordered cannot be cancelled.
	_, err = f.svc.Cancel(ctx, admin, id, dto.ReviewReorderRequest{})
	require.ErrorAs(t, err, &transErr)

	_, err = f.svc.MarkReceived(ctx, admin, id, dto.MarkReceivedRequest{})
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, admin, id, dto.ReviewReorderRequest{})
	require.ErrorAs(t, err, &transErr)
	_, err = f.svc.Cancel(ctx, admin, id, dto.ReviewReorderRequest{})
	require.ErrorAs(t, err, &transErr)
}

func TestMarkOrderedRecordsCostObservation(t *testing.T) {
	f := newReorderFixture()
	item := seedItem(f.items, f.links, "Plywood", 0, 2, "10.00")
	ctx := context.Background()

	sub, err := f.svc.Submit(ctx, member, dto.SubmitReorderRequest{ItemID: item.ID.String(), Quantity: 4})
	require.NoError(t, err)
	id := uuid.MustParse(sub.ID)

	_, err = f.svc.Approve(ctx, admin, id, dto.ReviewReorderRequest{})
	require.NoError(t, err)

	// 50.00 for 4 units = 12.50 per unit, up from 10.00.
	actual := decimal.RequireFromString("50.00")
	_, err = f.svc.MarkOrdered(ctx, admin, id, dto.MarkOrderedRequest{ActualCost: &actual})
	require.NoError(t, err)

	require.Len(t, f.history.entries, 1)
	entry := f.history.entries[0]
	assert.Equal(t, model.PriceChangeUpdated, entry.ChangeKind)
	require.NotNil(t, entry.UnitCost)
	assert.True(t, entry.UnitCost.Equal(decimal.RequireFromString("12.50")))

	// The link now carries the observed cost.
	link := item.PrimaryLink()
	stored := f.links.links[link.ID]
	assert.True(t, stored.UnitCost.Equal(decimal.RequireFromString("12.50")))
}

func TestQueueSummary(t *testing.T) {
	f := newReorderFixture()
	ctx := context.Background()

	itemA := seedItem(f.items, f.links, "Item A", 0, 1, "1.00")
	itemB := seedItem(f.items, f.links, "Item B", 0, 1, "1.00")

	subA, err := f.svc.Submit(ctx, member, dto.SubmitReorderRequest{ItemID: itemA.ID.String()})
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, member, dto.SubmitReorderRequest{ItemID: itemB.ID.String()})
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, admin, uuid.MustParse(subA.ID), dto.ReviewReorderRequest{})
	require.NoError(t, err)

	summary, err := f.svc.QueueSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Pending)
	assert.Equal(t, 1, summary.Approved)
	assert.Equal(t, 0, summary.Ordered)
}

func TestDaysPending(t *testing.T) {
	r := &model.ReorderRequest{RequestedAt: time.Now().Add(-72 * time.Hour)}
	assert.Equal(t, 3, r.DaysPending(time.Now()))
}

func TestReorderStatusDerivation(t *testing.T) {
	f := newReorderFixture()
	ctx := context.Background()

	stocked := seedItem(f.items, f.links, "Plenty", 10, 2, "1.00")
	low := seedItem(f.items, f.links, "Running Low", 1, 5, "1.00")

	status, err := f.svc.ReorderStatus(ctx, stocked.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusWellStocked, status.Status)
	assert.Nil(t, status.ActiveRequest)

	status, err = f.svc.ReorderStatus(ctx, low.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNeedsOrder, status.Status)

	// An in-flight request overrides the stock verdict.
	sub, err := f.svc.Submit(ctx, member, dto.SubmitReorderRequest{ItemID: low.ID.String()})
	require.NoError(t, err)

	status, err = f.svc.ReorderStatus(ctx, low.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReorderPending, status.Status)
	require.NotNil(t, status.ActiveRequest)
	assert.Equal(t, sub.ID, status.ActiveRequest.ID)
}

func TestActiveRequestReturnsNewest(t *testing.T) {
	f := newReorderFixture()
	item := seedItem(f.items, f.links, "Rivets", 0, 2, "0.10")

	older := &model.ReorderRequest{
		ID:          uuid.New(),
		ItemID:      item.ID,
		Status:      model.ReorderPending,
		Priority:    model.PriorityNormal,
		RequestedAt: time.Now().Add(-48 * time.Hour),
	}
	newer := &model.ReorderRequest{
		ID:          uuid.New(),
		ItemID:      item.ID,
		Status:      model.ReorderApproved,
		Priority:    model.PriorityNormal,
		RequestedAt: time.Now().Add(-1 * time.Hour),
	}
	f.reorders.reqs[older.ID] = older
	f.reorders.reqs[newer.ID] = newer

	// Two in-flight requests should never happen; the resolver still
	// answers with the newest one.
	resp, err := f.svc.ActiveRequest(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID.String(), resp.ID)
}

func TestActiveRequestNoneInFlight(t *testing.T) {
	f := newReorderFixture()
	item := seedItem(f.items, f.links, "Hinges", 3, 1, "2.00")

	_, err := f.svc.ActiveRequest(context.Background(), item.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMarkReceivedHonorsDeliveredAt(t *testing.T) {
	f := newReorderFixture()
	item := seedItem(f.items, f.links, "Bearings", 0, 2, "5.00")
	ctx := context.Background()

	sub, err := f.svc.Submit(ctx, member, dto.SubmitReorderRequest{ItemID: item.ID.String()})
	require.NoError(t, err)
	id := uuid.MustParse(sub.ID)
	_, err = f.svc.Approve(ctx, admin, id, dto.ReviewReorderRequest{})
	require.NoError(t, err)
	_, err = f.svc.MarkOrdered(ctx, admin, id, dto.MarkOrderedRequest{})
	require.NoError(t, err)

	// Logged three days after the fact.
	deliveredAt := time.Now().Add(72 * time.Hour)
	recv, err := f.svc.MarkReceived(ctx, admin, id, dto.MarkReceivedRequest{DeliveredAt: &deliveredAt})
	require.NoError(t, err)
	require.NotNil(t, recv.ActualDelivery)
	assert.Equal(t, deliveredAt.Format(time.RFC3339), *recv.ActualDelivery)

	stored := f.reorders.reqs[id]
	require.NotNil(t, stored.ActualDelivery)
	assert.True(t, stored.ActualDelivery.Equal(deliveredAt))
}

func TestMarkReceivedRejectsDeliveryBeforeOrder(t *testing.T) {
	f := newReorderFixture()
	item := seedItem(f.items, f.links, "Gaskets", 0, 2, "1.50")
	ctx := context.Background()

	sub, err := f.svc.Submit(ctx, member, dto.SubmitReorderRequest{ItemID: item.ID.String()})
	require.NoError(t, err)
	id := uuid.MustParse(sub.ID)
	_, err = f.svc.Approve(ctx, admin, id, dto.ReviewReorderRequest{})
	require.NoError(t, err)
	_, err = f.svc.MarkOrdered(ctx, admin, id, dto.MarkOrderedRequest{})
	require.NoError(t, err)

	deliveredAt := time.Now().Add(-24 * time.Hour)
	_, err = f.svc.MarkReceived(ctx, admin, id, dto.MarkReceivedRequest{DeliveredAt: &deliveredAt})
	var valErr *domain.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "delivered_at", valErr.Field)
}

func TestEstimatedDeliveryTracksLeadTimeAverage(t *testing.T) {
	f := newReorderFixture()
	item := seedItem(f.items, f.links, "Timing Belts", 0, 2, "9.00")
	ctx := context.Background()

	sub, err := f.svc.Submit(ctx, member, dto.SubmitReorderRequest{ItemID: item.ID.String()})
	require.NoError(t, err)
	id := uuid.MustParse(sub.ID)
	_, err = f.svc.Approve(ctx, admin, id, dto.ReviewReorderRequest{})
	require.NoError(t, err)
	_, err = f.svc.MarkOrdered(ctx, admin, id, dto.MarkOrderedRequest{})
	require.NoError(t, err)

	// The estimate follows the link's current average, not the snapshot
	// taken at ordering time.
	link := item.PrimaryLink()
	require.NoError(t, f.links.UpdateLeadTime(ctx, link.ID, 12))

	got, err := f.svc.Get(ctx, id)
	require.NoError(t, err)

	orderedAt := f.reorders.reqs[id].OrderedAt
	require.NotNil(t, orderedAt)
	assert.Equal(t, orderedAt.AddDate(0, 0, 12).Format("2006-01-02"), got.EstimatedDelivery)
}

func TestPendingBySupplierGroups(t *testing.T) {
	f := newReorderFixture()
	ctx := context.Background()

	itemA := seedItem(f.items, f.links, "Hex Bolts", 0, 2, "3.00")
	itemB := seedItem(f.items, f.links, "Washers", 0, 2, "4.00")
	itemC := seedItem(f.items, f.links, "O-Rings", 0, 2, "1.00")

	makerMart := &model.Supplier{ID: uuid.New(), Name: "MakerMart", Type: model.SupplierOnline}
	boltDepot := &model.Supplier{ID: uuid.New(), Name: "Bolt Depot", Type: model.SupplierNational}
	for itemID, sup := range map[uuid.UUID]*model.Supplier{
		itemA.ID: makerMart,
		itemB.ID: makerMart,
		itemC.ID: boltDepot,
	} {
		for _, link := range f.links.links {
			if link.ItemID == itemID {
				link.SupplierID = sup.ID
				link.Supplier = sup
			}
		}
	}

	// An item with no supplier link lands in the unassigned bucket.
	loose := &model.Item{ID: uuid.New(), Name: "Mystery Part", SKU: uuid.NewString(), ReorderQuantity: 1, Active: true}
	f.items.items[loose.ID] = loose

	_, err := f.svc.Submit(ctx, member, dto.SubmitReorderRequest{ItemID: itemA.ID.String(), Quantity: 2})
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, member, dto.SubmitReorderRequest{ItemID: itemB.ID.String(), Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, member, dto.SubmitReorderRequest{ItemID: itemC.ID.String(), Quantity: 5})
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, member, dto.SubmitReorderRequest{ItemID: loose.ID.String()})
	require.NoError(t, err)

	groups, err := f.svc.PendingBySupplier(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.Equal(t, "Bolt Depot", groups[0].SupplierName)
	require.Len(t, groups[0].Requests, 1)
	require.NotNil(t, groups[0].EstimatedTotal)
	assert.True(t, groups[0].EstimatedTotal.Equal(decimal.RequireFromString("5.00")))

	assert.Equal(t, "MakerMart", groups[1].SupplierName)
	require.Len(t, groups[1].Requests, 2)
	require.NotNil(t, groups[1].EstimatedTotal)
	assert.True(t, groups[1].EstimatedTotal.Equal(decimal.RequireFromString("10.00")))

	// Unassigned bucket last, with no total to estimate.
	assert.Empty(t, groups[2].SupplierID)
	require.Len(t, groups[2].Requests, 1)
	assert.Nil(t, groups[2].EstimatedTotal)
}
