package handlers

import (
	"net/http"

	"repairshop-backend/internal/middleware"
	"repairshop-backend/internal/realtime"
)

// WSHandler streams live events. Authentication runs before it, reading the
// session token from ?token= since browsers cannot set headers on upgrades.
type WSHandler struct {
	Hub *realtime.Hub
}

func NewWSHandler(hub *realtime.Hub) *WSHandler {
	return &WSHandler{Hub: hub}
}

// Serve handles GET /ws?topics=orders,inventory&token=...
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	var session string
	if claims, ok := middleware.GetClaimsFromContext(r.Context()); ok {
		session = claims.ID
	}
	h.Hub.ServeWS(w, r, user.ID, session, realtime.ParseTopics(r.URL.Query().Get("topics"), user.ID))
}
