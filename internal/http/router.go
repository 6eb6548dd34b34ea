package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"repairshop-backend/internal/handlers"
	"repairshop-backend/internal/middleware"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Users     *handlers.UserHandler
	Invites   *handlers.InviteHandler
	Orders    *handlers.OrderHandler
	Inventory *handlers.InventoryHandler
	Prices    *handlers.ServicePriceHandler
	Payroll   *handlers.PayrollHandler
	Reports   *handlers.ReportHandler
	Photos    *handlers.ProofOfWorkHandler
	Issues    *handlers.IssueHandler
	WS        *handlers.WSHandler
	Health    *handlers.HealthHandler
}

func NewRouter(h Handlers, authMiddleware *middleware.AuthMiddleware, authLimiter *middleware.RateLimiter) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger, middleware.MetricsMiddleware)

	frontDesk := func(f http.HandlerFunc) http.HandlerFunc {
		return authMiddleware.RequireFrontDesk(f).ServeHTTP
	}
	admin := func(f http.HandlerFunc) http.HandlerFunc {
		return authMiddleware.RequireAdminAccess(f).ServeHTTP
	}

	// Public API routes - Authentication (throttled per IP)
	authAPI := r.PathPrefix("/auth").Subrouter()
	authAPI.Use(authLimiter.Limit)
	authAPI.HandleFunc("/signup", h.Auth.Signup).Methods("POST")
	authAPI.HandleFunc("/login", h.Auth.Login).Methods("POST")
	authAPI.HandleFunc("/verify-email", h.Auth.VerifyEmail).Methods("POST")
	authAPI.HandleFunc("/sign-in-link", h.Auth.SendSignInLink).Methods("POST")
	authAPI.HandleFunc("/sign-in-link/confirm", h.Auth.SignInWithEmailLink).Methods("POST")
	authAPI.HandleFunc("/invites/accept", h.Invites.Accept).Methods("POST")

	// Signed-in account, pending users included
	meAPI := r.PathPrefix("/api/me").Subrouter()
	meAPI.Use(authMiddleware.Authenticate)
	meAPI.HandleFunc("", h.Auth.Me).Methods("GET")
	meAPI.HandleFunc("/verify-email", h.Auth.SendEmailVerification).Methods("POST")
	meAPI.HandleFunc("/password", h.Auth.UpdatePassword).Methods("PUT")
	meAPI.HandleFunc("/profile", h.Auth.UpdateProfile).Methods("PUT")
	meAPI.HandleFunc("/signout", h.Auth.SignOut).Methods("POST")

	// Orders - staff read and work the bench, front desk handles money
	ordersAPI := r.PathPrefix("/api/orders").Subrouter()
	ordersAPI.Use(authMiddleware.Authenticate, authMiddleware.RequireStaff)
	ordersAPI.HandleFunc("", h.Orders.ListOrders).Methods("GET")
	ordersAPI.HandleFunc("", frontDesk(h.Orders.Checkout)).Methods("POST")
	ordersAPI.HandleFunc("/mine", h.Orders.MyJobs).Methods("GET")
	ordersAPI.HandleFunc("/ticket/{ticket}", h.Orders.GetByTicket).Methods("GET")
	ordersAPI.HandleFunc("/{id}", h.Orders.GetOrder).Methods("GET")
	ordersAPI.HandleFunc("/{id}/receipt", h.Orders.Receipt).Methods("GET")
	ordersAPI.HandleFunc("/{id}/warranty", frontDesk(h.Orders.CreateWarranty)).Methods("POST")
	ordersAPI.HandleFunc("/{id}/payments", frontDesk(h.Orders.RecordPayment)).Methods("POST")
	ordersAPI.HandleFunc("/{id}/refund", frontDesk(h.Orders.Refund)).Methods("POST")
	ordersAPI.HandleFunc("/{id}/void", admin(h.Orders.VoidOrder)).Methods("POST")
	ordersAPI.HandleFunc("/{id}/status", frontDesk(h.Orders.SetStatus)).Methods("PUT")
	ordersAPI.HandleFunc("/{id}/collect", frontDesk(h.Orders.MarkCollected)).Methods("POST")
	ordersAPI.HandleFunc("/{id}/uncollect", frontDesk(h.Orders.UndoCollected)).Methods("POST")
	ordersAPI.HandleFunc("/{id}/items/{itemId}/return", frontDesk(h.Orders.ReturnProduct)).Methods("POST")
	ordersAPI.HandleFunc("/{id}/items/{itemId}/services", frontDesk(h.Orders.AddService)).Methods("POST")
	ordersAPI.HandleFunc("/{id}/items/{itemId}/services/{serviceId}/status", h.Orders.SetServiceStatus).Methods("PUT")
	ordersAPI.HandleFunc("/{id}/items/{itemId}/services/{serviceId}/assign", frontDesk(h.Orders.AssignService)).Methods("PUT")
	ordersAPI.HandleFunc("/{id}/items/{itemId}/services/{serviceId}/void", admin(h.Orders.VoidService)).Methods("POST")
	ordersAPI.HandleFunc("/{id}/parts", h.Orders.AddPartUsage).Methods("POST")
	ordersAPI.HandleFunc("/{id}/parts/{itemId}", h.Orders.UndoPartUsage).Methods("DELETE")
	ordersAPI.HandleFunc("/{id}/photos", h.Photos.List).Methods("GET")
	ordersAPI.HandleFunc("/{id}/photos", h.Photos.Upload).Methods("POST")

	photosAPI := r.PathPrefix("/api/photos").Subrouter()
	photosAPI.Use(authMiddleware.Authenticate, authMiddleware.RequireAdminAccess)
	photosAPI.HandleFunc("/{photoId}", h.Photos.Delete).Methods("DELETE")

	// Inventory
	inventoryAPI := r.PathPrefix("/api/inventory").Subrouter()
	inventoryAPI.Use(authMiddleware.Authenticate, authMiddleware.RequireStaff)
	inventoryAPI.HandleFunc("", h.Inventory.ListProducts).Methods("GET")
	inventoryAPI.HandleFunc("", admin(h.Inventory.CreateProduct)).Methods("POST")
	inventoryAPI.HandleFunc("/low-stock", h.Inventory.LowStock).Methods("GET")
	inventoryAPI.HandleFunc("/export", admin(h.Inventory.ExportXLSX)).Methods("GET")
	inventoryAPI.HandleFunc("/import", admin(h.Inventory.ImportXLSX)).Methods("POST")
	inventoryAPI.HandleFunc("/bulk-generate", admin(h.Inventory.BulkGenerate)).Methods("POST")
	inventoryAPI.HandleFunc("/stock", frontDesk(h.Inventory.BulkAdjustStock)).Methods("POST")
	inventoryAPI.HandleFunc("/{id}", h.Inventory.GetProduct).Methods("GET")
	inventoryAPI.HandleFunc("/{id}", admin(h.Inventory.UpdateProduct)).Methods("PUT")
	inventoryAPI.HandleFunc("/{id}", admin(h.Inventory.DeleteProduct)).Methods("DELETE")
	inventoryAPI.HandleFunc("/{id}/stock", frontDesk(h.Inventory.AdjustStock)).Methods("POST")

	// Service price list
	pricesAPI := r.PathPrefix("/api/prices").Subrouter()
	pricesAPI.Use(authMiddleware.Authenticate, authMiddleware.RequireStaff)
	pricesAPI.HandleFunc("", h.Prices.List).Methods("GET")
	pricesAPI.HandleFunc("", admin(h.Prices.Upsert)).Methods("PUT")
	pricesAPI.HandleFunc("/lookup", h.Prices.Lookup).Methods("GET")
	pricesAPI.HandleFunc("/bulk-generate", admin(h.Prices.BulkGenerate)).Methods("POST")
	pricesAPI.HandleFunc("/{id}", admin(h.Prices.Delete)).Methods("DELETE")

	// Staff administration
	usersAPI := r.PathPrefix("/api/users").Subrouter()
	usersAPI.Use(authMiddleware.Authenticate, authMiddleware.RequireAdminAccess)
	usersAPI.HandleFunc("", h.Users.ListUsers).Methods("GET")
	usersAPI.HandleFunc("/technicians", h.Users.ListTechnicians).Methods("GET")
	usersAPI.HandleFunc("/{id}", h.Users.GetUser).Methods("GET")
	usersAPI.HandleFunc("/{id}", h.Users.UpdateUser).Methods("PUT")
	usersAPI.HandleFunc("/{id}", h.Users.DeleteUser).Methods("DELETE")
	usersAPI.HandleFunc("/{id}/suspend", h.Users.SuspendUser).Methods("POST")
	usersAPI.HandleFunc("/{id}/reactivate", h.Users.ReactivateUser).Methods("POST")

	invitesAPI := r.PathPrefix("/api/invites").Subrouter()
	invitesAPI.Use(authMiddleware.Authenticate, authMiddleware.RequireAdminAccess)
	invitesAPI.HandleFunc("", h.Invites.List).Methods("GET")
	invitesAPI.HandleFunc("", h.Invites.Create).Methods("POST")
	invitesAPI.HandleFunc("/{id}", h.Invites.Revoke).Methods("DELETE")

	// Payroll - technicians may read their own statement
	payrollAPI := r.PathPrefix("/api/payroll").Subrouter()
	payrollAPI.Use(authMiddleware.Authenticate, authMiddleware.RequireStaff)
	payrollAPI.HandleFunc("/me", h.Payroll.MyStatement).Methods("GET")
	payrollAPI.HandleFunc("", admin(h.Payroll.Overview)).Methods("GET")
	payrollAPI.HandleFunc("/payslips", admin(h.Payroll.PayslipArchive)).Methods("GET")
	payrollAPI.HandleFunc("/adjustments", admin(h.Payroll.AddAdjustment)).Methods("POST")
	payrollAPI.HandleFunc("/adjustments/{id}", admin(h.Payroll.DeleteAdjustment)).Methods("DELETE")
	payrollAPI.HandleFunc("/{id}", admin(h.Payroll.Statement)).Methods("GET")
	payrollAPI.HandleFunc("/{id}/confirm", admin(h.Payroll.Confirm)).Methods("POST")
	payrollAPI.HandleFunc("/{id}/revoke", admin(h.Payroll.Revoke)).Methods("POST")
	payrollAPI.HandleFunc("/{id}/payslip", admin(h.Payroll.Payslip)).Methods("GET")

	// Reports
	reportsAPI := r.PathPrefix("/api/reports").Subrouter()
	reportsAPI.Use(authMiddleware.Authenticate, authMiddleware.RequireAdminAccess)
	reportsAPI.HandleFunc("/performance", h.Reports.Performance).Methods("GET")
	reportsAPI.HandleFunc("/debt", h.Reports.Debt).Methods("GET")
	reportsAPI.HandleFunc("/workers", h.Reports.Workers).Methods("GET")
	reportsAPI.HandleFunc("/jobs", h.Reports.Jobs).Methods("GET")
	reportsAPI.HandleFunc("/export/{kind}", h.Reports.Export).Methods("GET")
	reportsAPI.HandleFunc("/archive/{kind}", h.Reports.Archive).Methods("POST")

	dashboardAPI := r.PathPrefix("/api/dashboard").Subrouter()
	dashboardAPI.Use(authMiddleware.Authenticate, authMiddleware.RequireStaff)
	dashboardAPI.HandleFunc("/admin", admin(h.Reports.AdminDashboard)).Methods("GET")
	dashboardAPI.HandleFunc("/secretary", frontDesk(h.Reports.SecretaryDashboard)).Methods("GET")
	dashboardAPI.HandleFunc("/worker", h.Reports.WorkerDashboard).Methods("GET")

	// Issue reports
	issuesAPI := r.PathPrefix("/api/issues").Subrouter()
	issuesAPI.Use(authMiddleware.Authenticate, authMiddleware.RequireStaff)
	issuesAPI.HandleFunc("", h.Issues.Report).Methods("POST")
	issuesAPI.HandleFunc("", admin(h.Issues.List)).Methods("GET")
	issuesAPI.HandleFunc("/{id}/resolve", admin(h.Issues.Resolve)).Methods("POST")

	// Live updates
	r.Handle("/ws", authMiddleware.Authenticate(authMiddleware.RequireStaff(http.HandlerFunc(h.WS.Serve)))).Methods("GET")

	// Health check endpoints (no auth)
	r.HandleFunc("/health", h.Health.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", h.Health.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", h.Health.DetailedHealth).Methods("GET")

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	return r
}
