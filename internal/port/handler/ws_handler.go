package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mamacare/triagedesk/internal/events/casebus"
	"github.com/mamacare/triagedesk/internal/infra/firebase"
	"github.com/mamacare/triagedesk/internal/store/escalation"
	"github.com/mamacare/triagedesk/pkg/errorx"
	"github.com/mamacare/triagedesk/pkg/logger"
)

// WSHandler upgrades and serves the per-case live event stream
// (status updates and pushed advice) to connected PHW and specialist
// clients. A connection's role is derived from whichever credential
// it actually presents, never from a client-asserted query parameter:
// a Firebase bearer token resolves to phw, a valid escalation token
// scoped to this case resolves to specialist.
type WSHandler struct {
	bus          *casebus.Bus
	firebaseAuth *firebase.FirebaseAuth
	tokens       *escalation.Service
	upgrader     websocket.Upgrader
	log          logger.Logger
}

// NewWSHandler constructs a WSHandler. The upgrader accepts any Origin;
// the CORS middleware earlier in the chain only sets response headers
// and does not reject requests from other origins.
func NewWSHandler(bus *casebus.Bus, firebaseAuth *firebase.FirebaseAuth, tokens *escalation.Service, log logger.Logger) *WSHandler {
	return &WSHandler{
		bus:          bus,
		firebaseAuth: firebaseAuth,
		tokens:       tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// authenticate resolves the role of an incoming connection to caseID
// from whichever of the two accepted credentials is present: a
// Firebase bearer token, or an escalation token carried as a query
// parameter. A token that validates but is scoped to a different case
// is rejected.
func (h *WSHandler) authenticate(r *http.Request, caseID uuid.UUID) (casebus.Role, error) {
	if bearer := bearerToken(r); bearer != "" {
		if _, err := h.firebaseAuth.VerifyIDToken(r.Context(), bearer); err != nil {
			return "", errorx.Wrap(err, errorx.Unauthorized, "invalid phw bearer token")
		}
		return casebus.RolePHW, nil
	}

	if plaintext := r.URL.Query().Get("token"); plaintext != "" {
		token, err := h.tokens.Validate(r.Context(), plaintext)
		if err != nil {
			return "", err
		}
		if token.CaseID != caseID {
			return "", errorx.New(errorx.Unauthorized, "escalation token not scoped to this case")
		}
		return casebus.RoleSpecialist, nil
	}

	return "", errorx.New(errorx.Unauthorized, "missing phw bearer token or escalation token")
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// HandleCaseEvents handles GET /ws/case/{case_id}.
func (h *WSHandler) HandleCaseEvents(w http.ResponseWriter, r *http.Request) error {
	idStr := strings.TrimPrefix(r.URL.Path, "/ws/case/")
	caseID, err := uuid.Parse(idStr)
	if err != nil {
		return errorx.Wrap(err, errorx.InvalidRequest, "invalid case id")
	}

	role, err := h.authenticate(r, caseID)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return errorx.Wrap(err, errorx.InvalidRequest, "websocket upgrade failed")
	}
	defer conn.Close()

	sub, cancel := h.bus.Subscribe(caseID, role)
	defer cancel()

	ticker := time.NewTicker(casebus.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := conn.WriteJSON(ev); err != nil {
				return nil
			}
		case <-ticker.C:
			if err := conn.WriteJSON(casebus.NewPing(caseID)); err != nil {
				return nil
			}
		case <-r.Context().Done():
			return nil
		}
	}
}
