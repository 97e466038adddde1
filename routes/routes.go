package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"repairdesk/config"
	"repairdesk/handler"
	"repairdesk/middleware"
	"repairdesk/models"
	"repairdesk/service"
)

// SetupRoutes configures all API routes
func SetupRoutes(
	authService *service.AuthService,
	otpService *service.OTPService,
	complaintService *service.ComplaintService,
	healthHandler *handler.HealthHandler,
	authCfg config.AuthConfig,
	serverCfg config.ServerConfig,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.Metrics)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	otpHandler := handler.NewOTPHandler(otpService)
	complaintHandler := handler.NewComplaintHandler(complaintService)
	userHandler := handler.NewUserHandler(authService)

	authMiddleware := middleware.NewAuthMiddleware(authService, authCfg.JWTSecret)
	auth := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.RequireAuth(h)
	}
	ownerOnly := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.RequireAuth(middleware.RequireRole(models.RoleOwner)(h))
	}

	// Auth and recovery (public)
	router.HandleFunc("/login", authHandler.Login).Methods("POST")
	router.HandleFunc("/register", authHandler.Register).Methods("POST")
	router.HandleFunc("/otp/send", otpHandler.SendOTP).Methods("POST")
	router.HandleFunc("/forgot-username", authHandler.ForgotUsername).Methods("POST")
	router.HandleFunc("/validate-user", authHandler.ValidateUser).Methods("POST")
	router.HandleFunc("/forgot-password", authHandler.ForgotPassword).Methods("POST")

	// Complaint routes (require auth); per-record rules live in the service
	complaints := router.PathPrefix("/complaint").Subrouter()
	complaints.Handle("/register", auth(complaintHandler.RegisterComplaint)).Methods("POST")
	complaints.Handle("/by-id", auth(complaintHandler.GetComplaintByID)).Methods("GET")
	complaints.Handle("/raised-by", auth(complaintHandler.GetRaisedBy)).Methods("GET")
	complaints.Handle("/assigned-to", auth(complaintHandler.GetAssignedTo)).Methods("GET")
	complaints.Handle("/list", ownerOnly(complaintHandler.ListComplaints)).Methods("GET")
	complaints.Handle("/update", auth(complaintHandler.UpdateComplaint)).Methods("PUT")
	complaints.Handle("/resolved-list", auth(complaintHandler.GetResolvedList)).Methods("GET")
	complaints.Handle("/user-feedback", auth(complaintHandler.UserFeedback)).Methods("POST")
	complaints.Handle("/reopen", auth(complaintHandler.ReopenComplaint)).Methods("POST")
	complaints.Handle("/{id}/permissions", auth(complaintHandler.GetPermissions)).Methods("GET")

	// Users
	router.Handle("/me", auth(userHandler.Me)).Methods("GET")
	router.Handle("/users/employee", ownerOnly(userHandler.CreateEmployee)).Methods("POST")
	router.Handle("/users/employees", ownerOnly(userHandler.ListEmployees)).Methods("GET")

	// Operational
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/live", healthHandler.Live).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")
	router.Handle("/metrics", middleware.RequireStaticToken(serverCfg.MetricsToken)(promhttp.Handler())).Methods("GET")

	return router
}
