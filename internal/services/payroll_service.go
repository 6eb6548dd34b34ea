package services

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"repairshop-backend/internal/metrics"
	"repairshop-backend/internal/models"
	"repairshop-backend/internal/payroll"
	"repairshop-backend/internal/realtime"
	"repairshop-backend/internal/reports"
	"repairshop-backend/internal/timeutil"
)

// payslipWorkers bounds concurrent PDF rendering for the weekly archive.
const payslipWorkers = 5

type PayrollService struct {
	Payroll PayrollStore
	Users   UserStore
	Orders  OrderStore
	Events  realtime.Publisher
	Shop    reports.ShopInfo
}

func NewPayrollService(store PayrollStore, users UserStore, orders OrderStore, events realtime.Publisher, shop reports.ShopInfo) *PayrollService {
	return &PayrollService{Payroll: store, Users: users, Orders: orders, Events: events, Shop: shop}
}

// ParseWeek accepts any date inside the week; empty means the current week.
func ParseWeek(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return timeutil.WeekStart(timeutil.Now()), nil
	}
	d, err := timeutil.ParseDate(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: week must be YYYY-MM-DD", ErrInvalidInput)
	}
	return timeutil.WeekStart(d), nil
}

func (s *PayrollService) technician(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsTechnician {
		return nil, payroll.ErrNotTech
	}
	return u, nil
}

func (s *PayrollService) changed(ctx context.Context, event string, techID uuid.UUID) {
	if s.Events != nil {
		s.Events.Publish(ctx, realtime.Event{Topic: realtime.TopicPayroll, Type: event, ID: techID.String(), At: timeutil.Now()})
	}
}

// live computes the unfrozen statement. Orders created after the week ended
// cannot hold work completed inside it.
func (s *PayrollService) live(ctx context.Context, tech *models.User, week time.Time, orders []*models.Order) (models.PayrollStatement, error) {
	_, end := payroll.Week(week)
	if orders == nil {
		var err error
		if orders, err = s.Orders.ListBetween(ctx, time.Time{}, end); err != nil {
			return models.PayrollStatement{}, err
		}
	}
	adjustments, err := s.Payroll.Adjustments(ctx, tech.ID, week)
	if err != nil {
		return models.PayrollStatement{}, err
	}
	return payroll.Compute(tech, week, orders, adjustments), nil
}

func (s *PayrollService) statement(ctx context.Context, tech *models.User, week time.Time, orders []*models.Order) (models.PayrollStatement, error) {
	rec, err := s.Payroll.Record(ctx, tech.ID, week)
	if err != nil {
		return models.PayrollStatement{}, err
	}
	var liveErr error
	st := payroll.Resolve(rec, func() models.PayrollStatement {
		st, err := s.live(ctx, tech, week, orders)
		liveErr = err
		return st
	})
	return st, liveErr
}

// Statement is the frozen snapshot for a paid week, otherwise the live figure.
func (s *PayrollService) Statement(ctx context.Context, techID uuid.UUID, week time.Time) (models.PayrollStatement, error) {
	tech, err := s.technician(ctx, techID)
	if err != nil {
		return models.PayrollStatement{}, err
	}
	return s.statement(ctx, tech, timeutil.WeekStart(week), nil)
}

// Overview lists every technician's statement for the week.
func (s *PayrollService) Overview(ctx context.Context, week time.Time) ([]models.PayrollStatement, error) {
	week = timeutil.WeekStart(week)
	techs, err := s.Users.ListTechnicians(ctx)
	if err != nil {
		return nil, err
	}
	_, end := payroll.Week(week)
	orders, err := s.Orders.ListBetween(ctx, time.Time{}, end)
	if err != nil {
		return nil, err
	}
	out := make([]models.PayrollStatement, 0, len(techs))
	for _, t := range techs {
		st, err := s.statement(ctx, t, week, orders)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *PayrollService) AddAdjustment(ctx context.Context, req models.AdjustmentRequest, actor *models.User) (*models.PayrollAdjustment, error) {
	if strings.TrimSpace(req.Reason) == "" || req.Amount.IsZero() {
		return nil, fmt.Errorf("%w: reason and a non-zero amount are required", ErrInvalidInput)
	}
	if _, err := s.technician(ctx, req.TechnicianID); err != nil {
		return nil, err
	}
	week, err := ParseWeek(req.Week)
	if err != nil {
		return nil, err
	}
	date := week
	if req.Date != "" {
		if date, err = timeutil.ParseDate(req.Date); err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
		}
	}
	a := &models.PayrollAdjustment{
		TechnicianID: req.TechnicianID,
		WeekStart:    week,
		Reason:       strings.TrimSpace(req.Reason),
		Amount:       req.Amount,
		Date:         date,
		CreatedBy:    actorID(actor),
	}
	if err := s.Payroll.AddAdjustment(ctx, a); err != nil {
		return nil, err
	}
	s.changed(ctx, "adjustment_added", a.TechnicianID)
	return a, nil
}

func (s *PayrollService) DeleteAdjustment(ctx context.Context, id uuid.UUID) error {
	if err := s.Payroll.DeleteAdjustment(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, "adjustment_deleted", uuid.Nil)
	return nil
}

// Confirm freezes the week's live statement as paid. The adjustments are
// read inside the store transaction that writes the record.
func (s *PayrollService) Confirm(ctx context.Context, techID uuid.UUID, week time.Time, actor *models.User) (*models.PayrollRecord, error) {
	tech, err := s.technician(ctx, techID)
	if err != nil {
		return nil, err
	}
	week = timeutil.WeekStart(week)
	_, end := payroll.Week(week)
	orders, err := s.Orders.ListBetween(ctx, time.Time{}, end)
	if err != nil {
		return nil, err
	}
	rec, err := s.Payroll.Confirm(ctx, techID, week, func(existing *models.PayrollRecord, adjustments []models.PayrollAdjustment) (*models.PayrollRecord, error) {
		st := payroll.Compute(tech, week, orders, adjustments)
		return payroll.Freeze(st, existing, actor, timeutil.Now())
	})
	if err != nil {
		return nil, err
	}
	metrics.PayrollConfirmations.Inc()
	log.Printf("[Payroll] %s paid %s for week %s: %s", actorName(actor), tech.Name, timeutil.WeekKey(week), rec.Total.StringFixed(2))
	s.changed(ctx, "confirmed", techID)
	return rec, nil
}

// Revoke deletes the frozen record and reopens the week.
func (s *PayrollService) Revoke(ctx context.Context, techID uuid.UUID, week time.Time, actor *models.User) error {
	week = timeutil.WeekStart(week)
	if err := s.Payroll.DeleteRecord(ctx, techID, week); err != nil {
		return err
	}
	log.Printf("[Payroll] %s revoked payment for %s week %s", actorName(actor), techID, timeutil.WeekKey(week))
	s.changed(ctx, "revoked", techID)
	return nil
}

func (s *PayrollService) Payslip(ctx context.Context, techID uuid.UUID, week time.Time) (models.PayrollStatement, []byte, error) {
	st, err := s.Statement(ctx, techID, week)
	if err != nil {
		return st, nil, err
	}
	pdf, err := reports.PayslipPDF(st, s.Shop)
	return st, pdf, err
}

// PayslipArchive renders every technician's payslip for the week into one zip.
func (s *PayrollService) PayslipArchive(ctx context.Context, week time.Time) ([]byte, error) {
	statements, err := s.Overview(ctx, week)
	if err != nil {
		return nil, err
	}
	if len(statements) == 0 {
		return nil, fmt.Errorf("%w: no technicians to pay", ErrInvalidInput)
	}

	pdfs := make([][]byte, len(statements))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(payslipWorkers)
	for i := range statements {
		i := i
		g.Go(func() error {
			data, err := reports.PayslipPDF(statements[i], s.Shop)
			if err != nil {
				return fmt.Errorf("payslip for %s: %w", statements[i].TechnicianName, err)
			}
			pdfs[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, st := range statements {
		name := fmt.Sprintf("payslip_%s_%s_%s.pdf", slug(st.TechnicianName), st.TechnicianID.String()[:8], timeutil.WeekKey(st.WeekStart))
		w, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(pdfs[i]); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "technician"
	}
	return b.String()
}
