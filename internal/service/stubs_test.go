package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/uid0/openmakersuite/internal/model"
	"github.com/uid0/openmakersuite/internal/repository"
)

// In-memory stubs drive the services without a database. runTx sees a
// nil DB and runs the closure directly, so the Tx variants ignore their
// tx argument.

type stubItemRepo struct {
	items map[uuid.UUID]*model.Item
	// linkSource mimics the Preload of supplier links on reads.
	linkSource *stubLinkRepo
}

var _ repository.ItemRepository = (*stubItemRepo)(nil)

func newStubItemRepo() *stubItemRepo {
	return &stubItemRepo{items: make(map[uuid.UUID]*model.Item)}
}

func (r *stubItemRepo) Create(_ context.Context, item *model.Item) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.items[item.ID] = item
	return nil
}

// GetByID returns a detached copy, like a fresh row load. Mutating the
// result must not touch the stored record until Save.
func (r *stubItemRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Item, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *item
	if r.linkSource != nil {
		cp.SupplierLinks = nil
		for _, link := range r.linkSource.links {
			if link.ItemID == id && link.Active {
				cp.SupplierLinks = append(cp.SupplierLinks, *link)
			}
		}
	}
	return &cp, nil
}

func (r *stubItemRepo) GetByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Item, error) {
	return r.GetByID(context.Background(), id)
}

func (r *stubItemRepo) List(_ context.Context, onlyActive bool) ([]model.Item, error) {
	var out []model.Item
	for _, item := range r.items {
		if onlyActive && !item.Active {
			continue
		}
		out = append(out, *item)
	}
	return out, nil
}

func (r *stubItemRepo) ListNeedingOrder(_ context.Context) ([]model.Item, error) {
	var out []model.Item
	for _, item := range r.items {
		if item.Active && item.NeedsOrder() {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *stubItemRepo) Save(_ context.Context, item *model.Item) error {
	r.items[item.ID] = item
	return nil
}

func (r *stubItemRepo) AdjustStockTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	item, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.CurrentStock += delta
	return nil
}

func (r *stubItemRepo) DB() *gorm.DB { return nil }

type stubReorderRepo struct {
	reqs map[uuid.UUID]*model.ReorderRequest
	// itemSource mimics the Item preloads on reads.
	itemSource *stubItemRepo
}

var _ repository.ReorderRepository = (*stubReorderRepo)(nil)

func newStubReorderRepo() *stubReorderRepo {
	return &stubReorderRepo{reqs: make(map[uuid.UUID]*model.ReorderRequest)}
}

// withItem reloads the request's item the way the gorm repo preloads it.
func (r *stubReorderRepo) withItem(req *model.ReorderRequest) *model.ReorderRequest {
	if r.itemSource == nil {
		return req
	}
	cp := *req
	if item, err := r.itemSource.GetByID(context.Background(), cp.ItemID); err == nil {
		cp.Item = item
	}
	return &cp
}

func (r *stubReorderRepo) CreateTx(_ *gorm.DB, req *model.ReorderRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	r.reqs[req.ID] = req
	return nil
}

func (r *stubReorderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.ReorderRequest, error) {
	req, ok := r.reqs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.withItem(req), nil
}

func (r *stubReorderRepo) GetByIDTx(_ *gorm.DB, id uuid.UUID) (*model.ReorderRequest, error) {
	return r.GetByID(context.Background(), id)
}

func (r *stubReorderRepo) FindActiveByItemTx(_ *gorm.DB, itemID uuid.UUID) (*model.ReorderRequest, error) {
	for _, req := range r.reqs {
		if req.ItemID == itemID && req.Active() {
			return req, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubReorderRepo) ListByStatus(_ context.Context, status string) ([]model.ReorderRequest, error) {
	var out []model.ReorderRequest
	for _, req := range r.reqs {
		if req.Status == status {
			out = append(out, *r.withItem(req))
		}
	}
	return out, nil
}

func (r *stubReorderRepo) ListActiveByItem(_ context.Context, itemID uuid.UUID) ([]model.ReorderRequest, error) {
	var out []model.ReorderRequest
	for _, req := range r.reqs {
		if req.ItemID == itemID && req.Active() {
			out = append(out, *r.withItem(req))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RequestedAt.After(out[j].RequestedAt)
	})
	return out, nil
}

func (r *stubReorderRepo) ListActive(_ context.Context) ([]model.ReorderRequest, error) {
	var out []model.ReorderRequest
	for _, req := range r.reqs {
		if req.Active() {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *stubReorderRepo) ListByItem(_ context.Context, itemID uuid.UUID) ([]model.ReorderRequest, error) {
	var out []model.ReorderRequest
	for _, req := range r.reqs {
		if req.ItemID == itemID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *stubReorderRepo) ListReceived(_ context.Context) ([]model.ReorderRequest, error) {
	var out []model.ReorderRequest
	for _, req := range r.reqs {
		if req.Status == model.ReorderReceived && req.OrderedAt != nil && req.ActualDelivery != nil {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *stubReorderRepo) ListReceivedByItem(_ context.Context, itemID uuid.UUID) ([]model.ReorderRequest, error) {
	var out []model.ReorderRequest
	for _, req := range r.reqs {
		if req.ItemID == itemID && req.Status == model.ReorderReceived &&
			req.OrderedAt != nil && req.ActualDelivery != nil {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *stubReorderRepo) SaveTx(_ *gorm.DB, req *model.ReorderRequest) error {
	r.reqs[req.ID] = req
	return nil
}

func (r *stubReorderRepo) CountByStatus(_ context.Context, status string) (int64, error) {
	var n int64
	for _, req := range r.reqs {
		if req.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *stubReorderRepo) DB() *gorm.DB { return nil }

type stubSupplierRepo struct {
	suppliers map[uuid.UUID]*model.Supplier
}

var _ repository.SupplierRepository = (*stubSupplierRepo)(nil)

func newStubSupplierRepo() *stubSupplierRepo {
	return &stubSupplierRepo{suppliers: make(map[uuid.UUID]*model.Supplier)}
}

func (r *stubSupplierRepo) Create(_ context.Context, s *model.Supplier) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.suppliers[s.ID] = s
	return nil
}

func (r *stubSupplierRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSupplierRepo) List(_ context.Context) ([]model.Supplier, error) {
	var out []model.Supplier
	for _, s := range r.suppliers {
		out = append(out, *s)
	}
	return out, nil
}

func (r *stubSupplierRepo) Save(_ context.Context, s *model.Supplier) error {
	r.suppliers[s.ID] = s
	return nil
}

func (r *stubSupplierRepo) DB() *gorm.DB { return nil }

type stubLinkRepo struct {
	links map[uuid.UUID]*model.SupplierLink
}

var _ repository.SupplierLinkRepository = (*stubLinkRepo)(nil)

func newStubLinkRepo() *stubLinkRepo {
	return &stubLinkRepo{links: make(map[uuid.UUID]*model.SupplierLink)}
}

// checkOnePrimary mirrors the partial unique index on primary links:
// it fires at statement time, before any later cleanup in the same tx.
func (r *stubLinkRepo) checkOnePrimary(link *model.SupplierLink) error {
	if !link.IsPrimary {
		return nil
	}
	for _, other := range r.links {
		if other.ItemID == link.ItemID && other.ID != link.ID && other.IsPrimary {
			return &pgconn.PgError{Code: "23505", ConstraintName: "idx_supplier_links_one_primary"}
		}
	}
	return nil
}

func (r *stubLinkRepo) CreateTx(_ *gorm.DB, link *model.SupplierLink) error {
	if err := r.checkOnePrimary(link); err != nil {
		return err
	}
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	r.links[link.ID] = link
	return nil
}

func (r *stubLinkRepo) GetByID(_ context.Context, id uuid.UUID) (*model.SupplierLink, error) {
	link, ok := r.links[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return link, nil
}

func (r *stubLinkRepo) GetByIDTx(_ *gorm.DB, id uuid.UUID) (*model.SupplierLink, error) {
	return r.GetByID(context.Background(), id)
}

func (r *stubLinkRepo) ListByItem(_ context.Context, itemID uuid.UUID) ([]model.SupplierLink, error) {
	var out []model.SupplierLink
	for _, link := range r.links {
		if link.ItemID == itemID {
			out = append(out, *link)
		}
	}
	return out, nil
}

func (r *stubLinkRepo) ListActive(_ context.Context) ([]model.SupplierLink, error) {
	var out []model.SupplierLink
	for _, link := range r.links {
		if link.Active {
			out = append(out, *link)
		}
	}
	return out, nil
}

func (r *stubLinkRepo) SaveTx(_ *gorm.DB, link *model.SupplierLink) error {
	if err := r.checkOnePrimary(link); err != nil {
		return err
	}
	r.links[link.ID] = link
	return nil
}

func (r *stubLinkRepo) ClearPrimaryTx(_ *gorm.DB, itemID, exceptID uuid.UUID) error {
	for _, link := range r.links {
		if link.ItemID == itemID && link.ID != exceptID {
			link.IsPrimary = false
		}
	}
	return nil
}

func (r *stubLinkRepo) UpdateLeadTime(_ context.Context, id uuid.UUID, days int) error {
	link, ok := r.links[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	link.AvgLeadTimeDays = days
	return nil
}

func (r *stubLinkRepo) DB() *gorm.DB { return nil }

type stubHistoryRepo struct {
	entries []*model.PriceHistoryEntry
}

var _ repository.PriceHistoryRepository = (*stubHistoryRepo)(nil)

func newStubHistoryRepo() *stubHistoryRepo {
	return &stubHistoryRepo{}
}

func (r *stubHistoryRepo) CreateTx(_ *gorm.DB, entry *model.PriceHistoryEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now()
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *stubHistoryRepo) LatestForLinkTx(_ *gorm.DB, linkID uuid.UUID) (*model.PriceHistoryEntry, error) {
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].SupplierLinkID == linkID {
			return r.entries[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubHistoryRepo) ListForLink(_ context.Context, linkID uuid.UUID, from, to *time.Time, limit int) ([]model.PriceHistoryEntry, error) {
	var out []model.PriceHistoryEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.SupplierLinkID != linkID {
			continue
		}
		if from != nil && e.RecordedAt.Before(*from) {
			continue
		}
		if to != nil && e.RecordedAt.After(*to) {
			continue
		}
		out = append(out, *e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *stubHistoryRepo) DB() *gorm.DB { return nil }

type stubMovementRepo struct {
	movements []*model.StockMovement
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

func newStubMovementRepo() *stubMovementRepo {
	return &stubMovementRepo{}
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, mv *model.StockMovement) error {
	if mv.ID == uuid.Nil {
		mv.ID = uuid.New()
	}
	r.movements = append(r.movements, mv)
	return nil
}

func (r *stubMovementRepo) ListByItem(_ context.Context, itemID uuid.UUID, limit int) ([]model.StockMovement, error) {
	var out []model.StockMovement
	for _, mv := range r.movements {
		if mv.ItemID == itemID {
			out = append(out, *mv)
		}
	}
	return out, nil
}

func (r *stubMovementRepo) DB() *gorm.DB { return nil }

type stubUsageRepo struct {
	logs []*model.UsageLog
}

var _ repository.UsageLogRepository = (*stubUsageRepo)(nil)

func newStubUsageRepo() *stubUsageRepo {
	return &stubUsageRepo{}
}

func (r *stubUsageRepo) CreateTx(_ *gorm.DB, log *model.UsageLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	r.logs = append(r.logs, log)
	return nil
}

func (r *stubUsageRepo) ListByItem(_ context.Context, itemID uuid.UUID, limit int) ([]model.UsageLog, error) {
	var out []model.UsageLog
	for _, l := range r.logs {
		if l.ItemID == itemID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *stubUsageRepo) DB() *gorm.DB { return nil }

type stubUserRepo struct {
	users map[string]*model.User
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*model.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.Username] = u
	return nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUserRepo) DB() *gorm.DB { return nil }

type stubCategoryRepo struct {
	categories map[uuid.UUID]*model.Category
}

var _ repository.CategoryRepository = (*stubCategoryRepo)(nil)

func newStubCategoryRepo() *stubCategoryRepo {
	return &stubCategoryRepo{categories: make(map[uuid.UUID]*model.Category)}
}

func (r *stubCategoryRepo) Create(_ context.Context, c *model.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.categories[c.ID] = c
	return nil
}

func (r *stubCategoryRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubCategoryRepo) List(_ context.Context) ([]model.Category, error) {
	var out []model.Category
	for _, c := range r.categories {
		out = append(out, *c)
	}
	return out, nil
}

func (r *stubCategoryRepo) DB() *gorm.DB { return nil }

type stubLocationRepo struct {
	locations map[uuid.UUID]*model.Location
}

var _ repository.LocationRepository = (*stubLocationRepo)(nil)

func newStubLocationRepo() *stubLocationRepo {
	return &stubLocationRepo{locations: make(map[uuid.UUID]*model.Location)}
}

func (r *stubLocationRepo) Create(_ context.Context, l *model.Location) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	r.locations[l.ID] = l
	return nil
}

func (r *stubLocationRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Location, error) {
	l, ok := r.locations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return l, nil
}

func (r *stubLocationRepo) List(_ context.Context) ([]model.Location, error) {
	var out []model.Location
	for _, l := range r.locations {
		out = append(out, *l)
	}
	return out, nil
}

func (r *stubLocationRepo) DB() *gorm.DB { return nil }

// stubDispatcher records queued jobs instead of pushing to Redis.
type stubDispatcher struct {
	events    []string
	emails    []string
	leadTimes []uuid.UUID
}

var _ Dispatcher = (*stubDispatcher)(nil)

func (d *stubDispatcher) QueueEvent(_ context.Context, eventType string, _ any) {
	d.events = append(d.events, eventType)
}

func (d *stubDispatcher) QueueEmail(_ context.Context, _ []string, subject, _ string) {
	d.emails = append(d.emails, subject)
}

func (d *stubDispatcher) QueueLeadTimeRecompute(_ context.Context, itemID uuid.UUID) {
	d.leadTimes = append(d.leadTimes, itemID)
}

// seedItem registers an item with one primary supplier link.
func seedItem(items *stubItemRepo, links *stubLinkRepo, name string, stock, minimum int, unitCost string) *model.Item {
	item := &model.Item{
		ID:              uuid.New(),
		Name:            name,
		SKU:             uuid.NewString(),
		ReorderQuantity: 5,
		CurrentStock:    stock,
		MinimumStock:    minimum,
		Active:          true,
	}

	cost := decimal.RequireFromString(unitCost)
	pkg := cost.Mul(decimal.NewFromInt(1))
	link := &model.SupplierLink{
		ID:                 uuid.New(),
		ItemID:             item.ID,
		SupplierID:         uuid.New(),
		SupplierSKU:        "SKU-" + name,
		QuantityPerPackage: 1,
		UnitCost:           &cost,
		PackageCost:        &pkg,
		AvgLeadTimeDays:    7,
		IsPrimary:          true,
		Active:             true,
	}
	links.links[link.ID] = link
	item.SupplierLinks = []model.SupplierLink{*link}
	items.items[item.ID] = item
	items.linkSource = links
	return item
}
