package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"repairshop-backend/internal/models"
	"repairshop-backend/internal/payroll"
	"repairshop-backend/internal/realtime"
	"repairshop-backend/internal/reports"
	"repairshop-backend/internal/repositories"
	"repairshop-backend/internal/ticket"
)

func deepCopy[T any](v *T) *T {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		panic(err)
	}
	return out
}

// ============================================
// Products
// ============================================

type memProducts struct {
	mu       sync.Mutex
	products map[uuid.UUID]*models.Product
}

func newMemProducts(products ...models.Product) *memProducts {
	m := &memProducts{products: map[uuid.UUID]*models.Product{}}
	for i := range products {
		p := products[i]
		if p.Version == 0 {
			p.Version = 1
		}
		m.products[p.ID] = &p
	}
	return m
}

func (m *memProducts) stock(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Stock
}

// applyLocked moves stock with the caller holding mu.
func (m *memProducts) applyLocked(deltas []ticket.StockDelta) error {
	stock := map[uuid.UUID]int{}
	for id, p := range m.products {
		stock[id] = p.Stock
	}
	apply, _, err := ticket.PlanStock(stock, deltas)
	if err != nil {
		return err
	}
	for _, d := range apply {
		m.products[d.ProductID].Stock += d.Delta
		m.products[d.ProductID].Version++
	}
	return nil
}

func (m *memProducts) Create(ctx context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Version = 1
	c := *p
	m.products[p.ID] = &c
	return nil
}

func (m *memProducts) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (m *memProducts) List(ctx context.Context, f models.ProductFilter, threshold int) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Product{}
	for _, p := range m.products {
		if f.LowStock && p.Stock > threshold {
			continue
		}
		if f.Type != "" && p.Type != f.Type {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memProducts) Update(ctx context.Context, p *models.Product, expected *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.products[p.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if expected != nil && *expected != cur.Version {
		return repositories.ErrVersionConflict
	}
	if expected == nil {
		p.Stock = cur.Stock
	}
	p.Version = cur.Version + 1
	c := *p
	m.products[p.ID] = &c
	return nil
}

func (m *memProducts) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *memProducts) BulkCreate(ctx context.Context, products []models.Product) (int, error) {
	for i := range products {
		if err := m.Create(ctx, &products[i]); err != nil {
			return i, err
		}
	}
	return len(products), nil
}

func (m *memProducts) AdjustStock(ctx context.Context, adj models.StockAdjustRequest, by *uuid.UUID) (*models.Product, error) {
	m.mu.Lock()
	if _, ok := m.products[adj.ProductID]; !ok {
		m.mu.Unlock()
		return nil, repositories.ErrNotFound
	}
	err := m.applyLocked([]ticket.StockDelta{{ProductID: adj.ProductID, Delta: adj.Delta}})
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.Get(ctx, adj.ProductID)
}

func (m *memProducts) BulkAdjustStock(ctx context.Context, adjustments []models.StockAdjustRequest, by *uuid.UUID) (int, error) {
	for i, a := range adjustments {
		if _, err := m.AdjustStock(ctx, a, by); err != nil {
			return i, err
		}
	}
	return len(adjustments), nil
}

// ============================================
// Orders
// ============================================

type memOrders struct {
	mu       sync.Mutex
	orders   map[uuid.UUID]*models.Order
	refs     map[string]uuid.UUID
	products *memProducts
}

func newMemOrders(products *memProducts) *memOrders {
	return &memOrders{orders: map[uuid.UUID]*models.Order{}, refs: map[string]uuid.UUID{}, products: products}
}

func (m *memOrders) claimLocked(orderID uuid.UUID, refs []string) error {
	for _, r := range refs {
		if _, used := m.refs[r]; used {
			return fmt.Errorf("%w: %s", repositories.ErrReferenceUsed, r)
		}
	}
	for _, r := range refs {
		m.refs[r] = orderID
	}
	return nil
}

func (m *memOrders) put(o *models.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = deepCopy(o)
}

func (m *memOrders) Checkout(ctx context.Context, productIDs []uuid.UUID, build repositories.BuildFunc) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products.mu.Lock()
	defer m.products.mu.Unlock()

	locked := map[uuid.UUID]models.Product{}
	for _, id := range productIDs {
		if p, ok := m.products.products[id]; ok {
			locked[id] = *p
		}
	}
	o, deltas, err := build(locked)
	if err != nil {
		return nil, err
	}
	if err := m.claimLocked(o.ID, ticket.OnlineReferences(o)); err != nil {
		return nil, err
	}
	if err := m.products.applyLocked(deltas); err != nil {
		return nil, err
	}
	o.Version = 1
	m.orders[o.ID] = deepCopy(o)
	return o, nil
}

func (m *memOrders) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return deepCopy(o), nil
}

func (m *memOrders) GetByTicketID(ctx context.Context, ticketID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.TicketID == ticketID {
			return deepCopy(o), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memOrders) List(ctx context.Context, f models.OrderFilter) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Order{}
	for _, o := range m.orders {
		switch {
		case f.Status != "" && o.Status != f.Status:
			continue
		case f.OrderType != "" && o.OrderType != f.OrderType:
			continue
		case f.Phone != "" && o.Customer.Phone != f.Phone:
			continue
		case f.From != nil && o.CreatedAt.Before(*f.From):
			continue
		case f.To != nil && !o.CreatedAt.Before(*f.To):
			continue
		}
		out = append(out, deepCopy(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memOrders) ListBetween(ctx context.Context, from, to time.Time) ([]*models.Order, error) {
	f := models.OrderFilter{}
	if !from.IsZero() {
		f.From = &from
	}
	if !to.IsZero() {
		f.To = &to
	}
	return m.List(ctx, f)
}

func (m *memOrders) Mutate(ctx context.Context, id uuid.UUID, expected *int, reason string, by *uuid.UUID, fn repositories.MutateFunc) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.orders[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if expected != nil && *expected != cur.Version {
		return nil, repositories.ErrVersionConflict
	}
	o := deepCopy(cur)
	before := ticket.OnlineReferences(o)
	deltas, err := fn(o)
	if err != nil {
		return nil, err
	}
	if err := m.claimLocked(id, ticket.NewReferences(before, o)); err != nil {
		return nil, err
	}
	m.products.mu.Lock()
	err = m.products.applyLocked(deltas)
	m.products.mu.Unlock()
	if err != nil {
		return nil, err
	}
	o.Version = cur.Version + 1
	m.orders[id] = deepCopy(o)
	return o, nil
}

// ============================================
// Prices
// ============================================

type memPrices struct {
	mu     sync.Mutex
	prices []models.ServicePrice
}

func (m *memPrices) Upsert(ctx context.Context, p *models.ServicePrice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.prices {
		if strings.EqualFold(m.prices[i].Model, p.Model) && strings.EqualFold(m.prices[i].Service, p.Service) {
			m.prices[i].Price = p.Price
			p.ID = m.prices[i].ID
			return nil
		}
	}
	p.ID = uuid.New()
	m.prices = append(m.prices, *p)
	return nil
}

func (m *memPrices) BulkUpsert(ctx context.Context, prices []models.ServicePrice) (int, error) {
	for i := range prices {
		if err := m.Upsert(ctx, &prices[i]); err != nil {
			return i, err
		}
	}
	return len(prices), nil
}

func (m *memPrices) List(ctx context.Context, model string) ([]models.ServicePrice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.ServicePrice{}
	for _, p := range m.prices {
		if model == "" || strings.EqualFold(p.Model, model) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPrices) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.prices {
		if p.ID == id {
			m.prices = append(m.prices[:i], m.prices[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

// ============================================
// Users and invites
// ============================================

type memUsers struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*models.User
	invites *memInvites
}

func newMemUsers(invites *memInvites) *memUsers {
	return &memUsers{users: map[uuid.UUID]*models.User{}, invites: invites}
}

func (m *memUsers) createLocked(u *models.User) error {
	for _, x := range m.users {
		if strings.EqualFold(x.Email, u.Email) {
			return repositories.ErrDuplicate
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = models.RolePending
	}
	if u.Status == "" {
		u.Status = models.UserStatusActive
	}
	u.Version = 1
	c := *u
	m.users[u.ID] = &c
	return nil
}

func (m *memUsers) Create(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked(u)
}

func (m *memUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			c := *u
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memUsers) List(ctx context.Context) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.User{}
	for _, u := range m.users {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memUsers) ListTechnicians(ctx context.Context) ([]*models.User, error) {
	all, _ := m.List(ctx)
	out := []*models.User{}
	for _, u := range all {
		if u.IsTechnician && u.IsActive() {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUsers) Update(ctx context.Context, u *models.User, expected *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.users[u.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if expected != nil && *expected != cur.Version {
		return repositories.ErrVersionConflict
	}
	u.Version = cur.Version + 1
	c := *u
	c.PasswordHash = cur.PasswordHash
	m.users[u.ID] = &c
	return nil
}

func (m *memUsers) edit(id uuid.UUID, fn func(u *models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	fn(u)
	return nil
}

func (m *memUsers) SetStatus(ctx context.Context, id uuid.UUID, status models.UserStatus) error {
	return m.edit(id, func(u *models.User) { u.Status = status; u.Version++ })
}

func (m *memUsers) SetPassword(ctx context.Context, id uuid.UUID, hash string) error {
	return m.edit(id, func(u *models.User) { u.PasswordHash = hash })
}

func (m *memUsers) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	return m.edit(id, func(u *models.User) { u.EmailVerified = true })
}

func (m *memUsers) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memUsers) CreateFromInvite(ctx context.Context, inviteID uuid.UUID, u *models.User, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invites.mu.Lock()
	defer m.invites.mu.Unlock()
	inv, ok := m.invites.invites[inviteID]
	if !ok || inv.AcceptedAt != nil || !at.Before(inv.ExpiresAt) {
		return repositories.ErrNotFound
	}
	if err := m.createLocked(u); err != nil {
		return err
	}
	inv.AcceptedAt = &at
	return nil
}

type memInvites struct {
	mu      sync.Mutex
	invites map[uuid.UUID]*models.PendingInvite
}

func newMemInvites() *memInvites {
	return &memInvites{invites: map[uuid.UUID]*models.PendingInvite{}}
}

func (m *memInvites) Create(ctx context.Context, inv *models.PendingInvite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *inv
	m.invites[inv.ID] = &c
	return nil
}

func (m *memInvites) Get(ctx context.Context, id uuid.UUID) (*models.PendingInvite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invites[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *inv
	return &c, nil
}

func (m *memInvites) ListOpen(ctx context.Context, now time.Time) ([]*models.PendingInvite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.PendingInvite{}
	for _, inv := range m.invites {
		if inv.AcceptedAt == nil && now.Before(inv.ExpiresAt) {
			c := *inv
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memInvites) RevokeOpen(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, inv := range m.invites {
		if strings.EqualFold(inv.Email, email) && inv.AcceptedAt == nil {
			delete(m.invites, id)
		}
	}
	return nil
}

func (m *memInvites) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invites[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.invites, id)
	return nil
}

// ============================================
// Payroll
// ============================================

type memPayroll struct {
	mu          sync.Mutex
	adjustments []models.PayrollAdjustment
	records     map[string]*models.PayrollRecord

	// onConfirm runs while Confirm holds the store lock.
	onConfirm func()
}

func newMemPayroll() *memPayroll {
	return &memPayroll{records: map[string]*models.PayrollRecord{}}
}

func weekKey(techID uuid.UUID, week time.Time) string {
	return techID.String() + "|" + week.Format("2006-01-02")
}

func (m *memPayroll) AddAdjustment(ctx context.Context, a *models.PayrollAdjustment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[weekKey(a.TechnicianID, a.WeekStart)]; ok {
		return payroll.ErrLocked
	}
	a.ID = uuid.New()
	m.adjustments = append(m.adjustments, *a)
	return nil
}

func (m *memPayroll) DeleteAdjustment(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.adjustments {
		if a.ID != id {
			continue
		}
		if _, ok := m.records[weekKey(a.TechnicianID, a.WeekStart)]; ok {
			return payroll.ErrLocked
		}
		m.adjustments = append(m.adjustments[:i], m.adjustments[i+1:]...)
		return nil
	}
	return repositories.ErrNotFound
}

func (m *memPayroll) Adjustments(ctx context.Context, techID uuid.UUID, weekStart time.Time) ([]models.PayrollAdjustment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.PayrollAdjustment{}
	for _, a := range m.adjustments {
		if a.TechnicianID == techID && weekKey(techID, a.WeekStart) == weekKey(techID, weekStart) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memPayroll) Record(ctx context.Context, techID uuid.UUID, weekStart time.Time) (*models.PayrollRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[weekKey(techID, weekStart)], nil
}

func (m *memPayroll) Confirm(ctx context.Context, techID uuid.UUID, weekStart time.Time, freeze repositories.FreezeFunc) (*models.PayrollRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.onConfirm != nil {
		m.onConfirm()
	}
	k := weekKey(techID, weekStart)
	adjustments := []models.PayrollAdjustment{}
	for _, a := range m.adjustments {
		if weekKey(a.TechnicianID, a.WeekStart) == k {
			adjustments = append(adjustments, a)
		}
	}
	rec, err := freeze(m.records[k], adjustments)
	if err != nil {
		return nil, err
	}
	m.records[k] = rec
	return rec, nil
}

func (m *memPayroll) DeleteRecord(ctx context.Context, techID uuid.UUID, weekStart time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := weekKey(techID, weekStart)
	if _, ok := m.records[k]; !ok {
		return payroll.ErrNotPaid
	}
	delete(m.records, k)
	return nil
}

// ============================================
// Events and payments
// ============================================

type recorder struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *recorder) Publish(ctx context.Context, ev realtime.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ev := range r.events {
		out = append(out, ev.Topic+"/"+ev.Type)
	}
	return out
}

type fakeVerifier struct {
	ok    bool
	calls int
}

func (f *fakeVerifier) Verify(ctx context.Context, paymentID string, amount decimal.Decimal) error {
	f.calls++
	if !f.ok {
		return ErrPaymentUnverified
	}
	return nil
}

func reportsShop() reports.ShopInfo {
	return reports.ShopInfo{Name: "Fix Shop", Phone: "0800", Currency: "NGN"}
}

// ============================================
// Object storage, photos and issues
// ============================================

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (m *memStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut != "" && strings.Contains(key, m.failPut) {
		return fmt.Errorf("put %s: refused", key)
	}
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return data, nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://objects.test/" + key + "?ttl=" + ttl.String(), nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type memProofs struct {
	mu     sync.Mutex
	photos map[uuid.UUID]*models.ProofOfWork
}

func (m *memProofs) Create(ctx context.Context, p *models.ProofOfWork) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.photos == nil {
		m.photos = map[uuid.UUID]*models.ProofOfWork{}
	}
	c := *p
	m.photos[p.ID] = &c
	return nil
}

func (m *memProofs) Get(ctx context.Context, id uuid.UUID) (*models.ProofOfWork, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.photos[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (m *memProofs) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*models.ProofOfWork, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.ProofOfWork{}
	for _, p := range m.photos {
		if p.OrderID == orderID {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memProofs) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.photos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.photos, id)
	return nil
}

type memIssues struct {
	mu     sync.Mutex
	issues []*models.IssueReport
}

func (m *memIssues) Create(ctx context.Context, i *models.IssueReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i.ID = uuid.New()
	i.Status = models.IssueStatusOpen
	c := *i
	m.issues = append(m.issues, &c)
	return nil
}

func (m *memIssues) Get(ctx context.Context, id uuid.UUID) (*models.IssueReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, i := range m.issues {
		if i.ID == id {
			c := *i
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memIssues) List(ctx context.Context, status models.IssueStatus) ([]*models.IssueReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.IssueReport{}
	for _, i := range m.issues {
		if status == "" || i.Status == status {
			c := *i
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memIssues) Resolve(ctx context.Context, id uuid.UUID, resolution string, by *uuid.UUID, at time.Time) (*models.IssueReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, i := range m.issues {
		if i.ID == id {
			i.Status = models.IssueStatusResolved
			i.Resolution = resolution
			i.ResolvedBy = by
			i.ResolvedAt = &at
			c := *i
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}
