package api

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"parkeaya-panel/internal/auth"
	"parkeaya-panel/internal/metrics"
)

// RemoteMonitor reports the last health check of the remote backend.
type RemoteMonitor interface {
	RemoteUp() (up, ok bool)
}

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Auth         *AuthHandler
	Approval     *ApprovalHandler
	Registration *RegistrationHandler
	Settings     *SettingsHandler
	Parking      *OwnerParkingHandler
	Dashboard    *DashboardHandler
	Webhook      *ApprovalWebhookHandler
	Monitor      RemoteMonitor
}

type RouterOptions struct {
	Sessions    *auth.SessionManager
	Resolver    auth.SessionResolver
	CORSOrigins []string
}

func NewRouter(h Handlers, opts RouterOptions) http.Handler {
	r := mux.NewRouter()
	r.Use(RequestIDMiddleware, AccessLogMiddleware)

	// Public endpoints
	r.HandleFunc("/login", h.Auth.Login).Methods("POST")
	r.HandleFunc("/logout", h.Auth.Logout).Methods("POST")
	r.HandleFunc("/api/health", h.health).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")
	r.HandleFunc("/api/parking/webhook/approval-update", h.Webhook.HandleWebhook).Methods("POST")

	// Session endpoints (protected)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(auth.SessionMiddleware(opts.Sessions, opts.Resolver))
	api.HandleFunc("/session", h.Auth.Session).Methods("GET")

	api.HandleFunc("/parking/register-parkea", h.Approval.SubmitApproval).Methods("POST")
	api.HandleFunc("/parking/send-approval-request", h.Approval.SubmitApproval).Methods("POST")
	api.HandleFunc("/parking/save-and-register", h.Registration.SaveAndRegister).Methods("POST")
	api.HandleFunc("/parking/approval-requests", h.Approval.ListApprovalRequests).Methods("GET")
	api.HandleFunc("/parking/approval-requests/remote", h.Approval.RemoteApprovalRequests).Methods("GET")
	api.HandleFunc("/parking/approval-requests/{requestId}/resubmit", h.Approval.Resubmit).Methods("POST")
	api.HandleFunc("/parking/approval-status/latest", h.Approval.LatestApprovalStatus).Methods("GET")
	api.HandleFunc("/parking/approval-status/{requestId}", h.Approval.ApprovalStatus).Methods("GET")

	api.HandleFunc("/parking/settings", h.Settings.GetSettings).Methods("GET")
	api.HandleFunc("/parking/settings", h.Settings.SaveSettings).Methods("PUT")
	api.HandleFunc("/parking/settings/visibility", h.Settings.UpdateVisibility).Methods("PUT")
	api.HandleFunc("/parking/settings/test-connection", h.Settings.TestConnection).Methods("GET")

	api.HandleFunc("/owner/dashboard", h.Dashboard.Stats).Methods("GET")
	api.HandleFunc("/owner/parkings", h.Parking.ListParkings).Methods("GET")
	api.HandleFunc("/owner/parkings", h.Parking.CreateParking).Methods("POST")
	api.HandleFunc("/owner/parkings/{id}", h.Parking.GetParking).Methods("GET")
	api.HandleFunc("/owner/parkings/{id}", h.Parking.UpdateParking).Methods("PUT")
	api.HandleFunc("/owner/parkings/{id}", h.Parking.DeleteParking).Methods("DELETE")
	api.HandleFunc("/owner/parkings/{id}/availability", h.Parking.UpdateAvailability).Methods("PUT")
	api.HandleFunc("/owner/parkings/{id}/image", h.Parking.UploadImage).Methods("POST")

	var handler http.Handler = r
	if len(opts.CORSOrigins) > 0 {
		handler = handlers.CORS(
			handlers.AllowedOrigins(opts.CORSOrigins),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization", RequestIDHeader}),
			handlers.AllowCredentials(),
		)(handler)
	}
	return handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}))(handler)
}

func (h Handlers) health(w http.ResponseWriter, r *http.Request) {
	remoteState := "unknown"
	if h.Monitor != nil {
		if up, ok := h.Monitor.RemoteUp(); ok {
			remoteState = "down"
			if up {
				remoteState = "up"
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "remote": remoteState})
}
