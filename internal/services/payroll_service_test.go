package services

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repairshop-backend/internal/models"
	"repairshop-backend/internal/payroll"
)

type payrollFixture struct {
	svc   *PayrollService
	store *memPayroll
	tunde *models.User
	bola  *models.User
	week  time.Time
}

func completedRepair(worker string, created, done time.Time) *models.Order {
	return &models.Order{
		ID:        uuid.New(),
		TicketID:  "T-" + worker,
		OrderType: models.OrderTypeRepair,
		Status:    models.OrderStatusCompleted,
		CreatedAt: created,
		Items: []models.OrderItem{{
			ID:    uuid.NewString(),
			Type:  models.ItemTypeRepair,
			Model: "iPhone 13",
			Services: []models.ServiceLine{
				{ID: uuid.NewString(), Service: "Screen", Cost: dec(1000), Worker: worker, Status: models.ServiceStatusCompleted, CompletedAt: &done},
				{ID: uuid.NewString(), Service: "Battery", Cost: dec(500), Worker: worker, Status: models.ServiceStatusCompleted, CompletedAt: &done},
			},
		}},
	}
}

func newPayrollFixture(t *testing.T) *payrollFixture {
	t.Helper()
	ctx := context.Background()
	week, err := ParseWeek("2026-10-14")
	require.NoError(t, err)

	users := newMemUsers(newMemInvites())
	tunde := &models.User{Name: "Tunde", Email: "tunde@shop.test", Role: models.RoleWorker, IsTechnician: true, BaseSalary: dec(5000), FixedPerJob: dec(300)}
	bola := &models.User{Name: "Bola", Email: "bola@shop.test", Role: models.RoleWorker, IsTechnician: true, BaseSalary: dec(4000), FixedPerJob: dec(250)}
	clerk := &models.User{Name: "Clerk", Email: "clerk@shop.test", Role: models.RoleSecretary}
	for _, u := range []*models.User{tunde, bola, clerk} {
		require.NoError(t, users.Create(ctx, u))
	}

	orders := newMemOrders(newMemProducts())
	orders.put(completedRepair("Tunde", week.Add(24*time.Hour), week.Add(48*time.Hour)))
	orders.put(completedRepair("tunde", week.AddDate(0, 0, -7), week.AddDate(0, 0, -6)))

	store := newMemPayroll()
	return &payrollFixture{
		svc:   NewPayrollService(store, users, orders, &recorder{}, reportsShop()),
		store: store,
		tunde: tunde,
		bola:  bola,
		week:  week,
	}
}

func TestParseWeek(t *testing.T) {
	monday, err := ParseWeek("2026-10-18")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, monday.Weekday())
	assert.Equal(t, 12, monday.Day())

	_, err = ParseWeek("18/10/2026")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestStatementCountsWeekJobs(t *testing.T) {
	f := newPayrollFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddAdjustment(ctx, models.AdjustmentRequest{TechnicianID: f.tunde.ID, Week: "2026-10-15", Reason: "late", Amount: dec(-200)}, nil)
	require.NoError(t, err)

	st, err := f.svc.Statement(ctx, f.tunde.ID, f.week.Add(72*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, st.JobCount)
	assert.True(t, st.JobsTotal.Equal(dec(600)))
	assert.True(t, st.AdjustmentsTotal.Equal(dec(-200)))
	assert.True(t, st.Total.Equal(dec(5400)), st.Total.String())
	assert.Equal(t, models.PayrollStatusOpen, st.Status)

	overview, err := f.svc.Overview(ctx, f.week)
	require.NoError(t, err)
	assert.Len(t, overview, 2)
}

func TestAdjustmentNeedsReasonAndTechnician(t *testing.T) {
	f := newPayrollFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddAdjustment(ctx, models.AdjustmentRequest{TechnicianID: f.tunde.ID, Reason: " ", Amount: dec(10)}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	clerk, err := f.svc.Users.GetByEmail(ctx, "clerk@shop.test")
	require.NoError(t, err)
	_, err = f.svc.AddAdjustment(ctx, models.AdjustmentRequest{TechnicianID: clerk.ID, Reason: "bonus", Amount: dec(10)}, nil)
	assert.ErrorIs(t, err, payroll.ErrNotTech)
}

func TestConfirmFreezesWeek(t *testing.T) {
	f := newPayrollFixture(t)
	ctx := context.Background()
	boss := &models.User{ID: uuid.New(), Name: "Owner", Role: models.RoleCEO}

	rec, err := f.svc.Confirm(ctx, f.tunde.ID, f.week, boss)
	require.NoError(t, err)
	assert.True(t, rec.Total.Equal(dec(5600)))
	assert.Equal(t, models.PayrollStatusPaid, rec.Snapshot.Status)

	_, err = f.svc.Confirm(ctx, f.tunde.ID, f.week, boss)
	assert.ErrorIs(t, err, payroll.ErrAlreadyPaid)

	_, err = f.svc.AddAdjustment(ctx, models.AdjustmentRequest{TechnicianID: f.tunde.ID, Week: "2026-10-14", Reason: "bonus", Amount: dec(100)}, boss)
	assert.ErrorIs(t, err, payroll.ErrLocked)

	st, err := f.svc.Statement(ctx, f.tunde.ID, f.week)
	require.NoError(t, err)
	assert.Equal(t, models.PayrollStatusPaid, st.Status)
	require.NotNil(t, st.PaidBy)
	assert.Equal(t, boss.ID, *st.PaidBy)

	require.NoError(t, f.svc.Revoke(ctx, f.tunde.ID, f.week, boss))
	assert.ErrorIs(t, f.svc.Revoke(ctx, f.tunde.ID, f.week, boss), payroll.ErrNotPaid)

	_, err = f.svc.AddAdjustment(ctx, models.AdjustmentRequest{TechnicianID: f.tunde.ID, Week: "2026-10-14", Reason: "bonus", Amount: dec(100)}, boss)
	assert.NoError(t, err)
}

func TestAdjustmentDuringConfirmIsRefused(t *testing.T) {
	f := newPayrollFixture(t)
	ctx := context.Background()
	boss := &models.User{ID: uuid.New(), Name: "Owner", Role: models.RoleCEO}
	bonus := models.AdjustmentRequest{TechnicianID: f.tunde.ID, Week: "2026-10-14", Reason: "bonus", Amount: dec(200)}

	_, err := f.svc.AddAdjustment(ctx, bonus, boss)
	require.NoError(t, err)

	late := make(chan error, 1)
	f.store.onConfirm = func() {
		go func() {
			_, err := f.svc.AddAdjustment(ctx, models.AdjustmentRequest{TechnicianID: f.tunde.ID, Week: "2026-10-14", Reason: "late", Amount: dec(500)}, boss)
			late <- err
		}()
	}
	rec, err := f.svc.Confirm(ctx, f.tunde.ID, f.week, boss)
	require.NoError(t, err)
	assert.True(t, rec.Total.Equal(dec(5800)), rec.Total.String())
	assert.ErrorIs(t, <-late, payroll.ErrLocked)

	stored, err := f.store.Adjustments(ctx, f.tunde.ID, f.week)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "bonus", stored[0].Reason)
	assert.Len(t, rec.Snapshot.Adjustments, 1)
}

func TestPayslipArchive(t *testing.T) {
	f := newPayrollFixture(t)
	data, err := f.svc.PayslipArchive(context.Background(), f.week)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, file := range zr.File {
		names = append(names, file.Name)
		rc, err := file.Open()
		require.NoError(t, err)
		head := make([]byte, 4)
		_, err = io.ReadFull(rc, head)
		rc.Close()
		require.NoError(t, err)
		assert.Equal(t, "%PDF", string(head))
	}
	assert.ElementsMatch(t, []string{
		"payslip_tunde_" + f.tunde.ID.String()[:8] + "_2026-10-12.pdf",
		"payslip_bola_" + f.bola.ID.String()[:8] + "_2026-10-12.pdf",
	}, names)
}

func TestPayslipArchiveSameNames(t *testing.T) {
	f := newPayrollFixture(t)
	other := &models.User{Name: "TUNDE", Email: "tunde2@shop.test", Role: models.RoleWorker, IsTechnician: true, BaseSalary: dec(3000)}
	require.NoError(t, f.svc.Users.Create(context.Background(), other))

	data, err := f.svc.PayslipArchive(context.Background(), f.week)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, file := range zr.File {
		assert.False(t, seen[file.Name], "duplicate entry %s", file.Name)
		seen[file.Name] = true
	}
	assert.Len(t, seen, 3)
}

func TestPayslipArchiveWithoutTechnicians(t *testing.T) {
	orders := newMemOrders(newMemProducts())
	svc := NewPayrollService(newMemPayroll(), newMemUsers(newMemInvites()), orders, nil, reportsShop())
	_, err := svc.PayslipArchive(context.Background(), time.Now())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "ada_obi", slug(" Ada Obi "))
	assert.Equal(t, "technician", slug("!!!"))
	assert.True(t, strings.HasPrefix(slug("Jo-Ann"), "jo_ann"))
}
