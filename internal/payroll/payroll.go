// Package payroll computes weekly technician payouts from completed work.
package payroll

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"repairshop-backend/internal/models"
	"repairshop-backend/internal/timeutil"
)

var (
	ErrAlreadyPaid = errors.New("payroll week is already paid")
	ErrNotPaid     = errors.New("payroll week is not paid")
	ErrLocked      = errors.New("payroll week is locked; revoke the payment first")
	ErrNotTech     = errors.New("user is not a technician")
)

// Week returns the [start, end) range of the payroll week containing t.
func Week(t time.Time) (time.Time, time.Time) {
	start := timeutil.WeekStart(t)
	return start, start.AddDate(0, 0, 7)
}

// Jobs lists the completed, non-void services credited to the technician
// within [from, to). Services are matched on the worker name. Completion
// time falls back to the order's creation time for legacy records.
func Jobs(orders []*models.Order, technician string, from, to time.Time) []models.PayrollJob {
	var jobs []models.PayrollJob
	for _, o := range orders {
		if o.Status == models.OrderStatusVoid {
			continue
		}
		for _, it := range o.Items {
			if it.Type != models.ItemTypeRepair {
				continue
			}
			for _, s := range it.Services {
				if s.Status != models.ServiceStatusCompleted || !sameWorker(s.Worker, technician) {
					continue
				}
				done := o.CreatedAt
				if s.CompletedAt != nil {
					done = *s.CompletedAt
				}
				if done.Before(from) || !done.Before(to) {
					continue
				}
				jobs = append(jobs, models.PayrollJob{
					OrderID:     o.ID,
					TicketID:    o.TicketID,
					Model:       it.Model,
					Service:     s.Service,
					Cost:        s.Cost,
					CompletedAt: done,
				})
			}
		}
	}
	sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].CompletedAt.Before(jobs[j].CompletedAt) })
	return jobs
}

func sameWorker(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Compute builds the live statement for one technician week:
// base salary + fixed rate per job + signed adjustments.
func Compute(tech *models.User, weekStart time.Time, orders []*models.Order, adjustments []models.PayrollAdjustment) models.PayrollStatement {
	start, end := Week(weekStart)
	jobs := Jobs(orders, tech.Name, start, end)

	adjTotal := decimal.Zero
	for _, a := range adjustments {
		adjTotal = adjTotal.Add(a.Amount)
	}
	jobsTotal := tech.FixedPerJob.Mul(decimal.NewFromInt(int64(len(jobs))))

	if jobs == nil {
		jobs = []models.PayrollJob{}
	}
	if adjustments == nil {
		adjustments = []models.PayrollAdjustment{}
	}
	return models.PayrollStatement{
		TechnicianID:     tech.ID,
		TechnicianName:   tech.Name,
		WeekStart:        start,
		WeekEnd:          end,
		BaseSalary:       tech.BaseSalary,
		FixedPerJob:      tech.FixedPerJob,
		JobCount:         len(jobs),
		JobsTotal:        jobsTotal,
		AdjustmentsTotal: adjTotal,
		Total:            tech.BaseSalary.Add(jobsTotal).Add(adjTotal),
		Jobs:             jobs,
		Adjustments:      adjustments,
		Status:           models.PayrollStatusOpen,
	}
}

// Resolve returns the frozen snapshot when the week has been paid, otherwise
// the live computation.
func Resolve(record *models.PayrollRecord, live func() models.PayrollStatement) models.PayrollStatement {
	if record != nil {
		return record.Snapshot
	}
	return live()
}

// Freeze turns a live statement into the record stored on confirmation.
func Freeze(st models.PayrollStatement, record *models.PayrollRecord, paidBy *models.User, at time.Time) (*models.PayrollRecord, error) {
	if record != nil {
		return nil, ErrAlreadyPaid
	}
	st.Status = models.PayrollStatusPaid
	st.PaidAt = &at
	rec := &models.PayrollRecord{
		TechnicianID: st.TechnicianID,
		WeekStart:    st.WeekStart,
		Total:        st.Total,
		PaidAt:       at,
	}
	if paidBy != nil {
		id := paidBy.ID
		st.PaidBy = &id
		rec.PaidBy = &id
	}
	rec.Snapshot = st
	return rec, nil
}
