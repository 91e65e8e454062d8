package realtime

import (
	"context"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/yukikurage/household-api/internal/auth"
	"github.com/yukikurage/household-api/internal/constants"
	apierrors "github.com/yukikurage/household-api/internal/errors"
	"github.com/yukikurage/household-api/internal/metrics"
	"github.com/yukikurage/household-api/internal/models"
	"go.uber.org/zap"
)

// TokenVerifier verifies the access token presented on the handshake.
type TokenVerifier interface {
	ParseAccess(token string) (*auth.Claims, error)
}

// MembershipChecker decides which household channels a user may join.
type MembershipChecker interface {
	Verify(ctx context.Context, householdID, userID uint64, allowedRoles ...models.HouseholdRole) (*models.HouseholdMember, error)
	ActiveHouseholdIDs(ctx context.Context, userID uint64) ([]uint64, error)
}

// Inbound frame types.
const (
	FrameJoinHousehold  = "join_household"
	FrameLeaveHousehold = "leave_household"
	FramePing           = "ping"
	FramePong           = "pong"
)

// Handler upgrades authenticated requests on /ws.
type Handler struct {
	hub            *Hub
	tokens         TokenVerifier
	members        MembershipChecker
	logger         *zap.Logger
	originPatterns []string
}

// NewHandler creates a websocket Handler. originPatterns lists the hosts
// allowed in the Origin header besides the request host.
func NewHandler(hub *Hub, tokens TokenVerifier, members MembershipChecker, logger *zap.Logger, originPatterns []string) *Handler {
	return &Handler{
		hub:            hub,
		tokens:         tokens,
		members:        members,
		logger:         logger,
		originPatterns: originPatterns,
	}
}

// ServeHTTP authenticates the handshake, joins the user and household
// channels and blocks until the connection closes. It is mounted on the
// plain net/http mux because the upgrade needs a hijackable writer.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, err := h.tokens.ParseAccess(handshakeToken(r))
	if err != nil {
		apierrors.WriteHTTP(w, http.StatusUnauthorized, apierrors.NewAPIError(apierrors.ErrCodeUnauthorized, "Authentication required."))
		return
	}
	userID, _ := claims.UserID()

	ctx := r.Context()
	householdIDs, err := h.members.ActiveHouseholdIDs(ctx, userID)
	if err != nil {
		h.logger.Error("load households for websocket", zap.Uint64("user_id", userID), zap.Error(err))
		apierrors.WriteHTTP(w, http.StatusInternalServerError, apierrors.NewAPIError(apierrors.ErrCodeInternalError, apierrors.InternalMessage))
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Uint64("user_id", userID), zap.Error(err))
		return
	}
	defer conn.CloseNow()
	defer metrics.ConnectionOpened()()

	client := NewClient(h.hub, conn, userID)
	h.hub.Register(client)
	h.hub.Join(client, UserChannel(userID))
	for _, id := range householdIDs {
		h.hub.Join(client, HouseholdChannel(id))
	}

	h.logger.Debug("websocket connected", zap.Uint64("user_id", userID), zap.Int("households", len(householdIDs)))
	client.Run(ctx, h.handleInbound)
	h.logger.Debug("websocket disconnected", zap.Uint64("user_id", userID))
}

func (h *Handler) handleInbound(ctx context.Context, c *Client, msg Inbound) {
	switch msg.Type {
	case FrameJoinHousehold:
		if _, err := h.members.Verify(ctx, msg.HouseholdID, c.UserID, models.RoleAdmin, models.RoleMember); err != nil {
			c.Reply(Frame{Event: "error", Data: map[string]string{"message": "Access denied."}})
			return
		}
		h.hub.Join(c, HouseholdChannel(msg.HouseholdID))
	case FrameLeaveHousehold:
		h.hub.Leave(c, HouseholdChannel(msg.HouseholdID))
	case FramePing:
		c.Reply(Frame{Event: FramePong})
	}
}

// handshakeToken reads the access token from the cookie, the token query
// parameter or a bearer Authorization header, in that order.
func handshakeToken(r *http.Request) string {
	if cookie, err := r.Cookie(constants.AccessTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return token
	}
	return ""
}
