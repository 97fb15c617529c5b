// Package adminapi is the gin HTTP surface behind the relay's CLI
// delegate commands: authorize-key, ban/unban, whitelist, kick, list,
// and announce all reduce to a handler here that calls straight into
// the shared relay.Manager and access-list collaborators already
// running the websocket side of the process.
package adminapi

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/duskward/relay/internal/v1/middleware"
	"github.com/duskward/relay/internal/v1/relay"
	"github.com/gin-gonic/gin"
)

// BanList is the subset of accesslists.Service the admin surface
// drives directly; a narrower interface than the full Service so
// tests can fake it without a Redis connection.
type BanList interface {
	Ban(ctx context.Context, remoteAddrOrKey string) error
	Unban(ctx context.Context, remoteAddrOrKey string) error
	Whitelist(ctx context.Context, authKey string) error
	PreList(ctx context.Context, username string) error
}

// Kicker is the subset of transport.Hub the admin surface needs to
// force-disconnect a connected player.
type Kicker interface {
	Kick(id relay.PlayerID, reason relay.DisconnectReason) bool
}

// KeyAuthorizer grants a key elevated in-chat command authority; the
// admin surface's authorize-key operation delegates to auth.KeyStore.
type KeyAuthorizer interface {
	Add(authKey string)
}

// Handler implements the CLI-delegate operations as HTTP endpoints.
type Handler struct {
	manager    *relay.Manager
	lists      BanList
	kicker     Kicker
	authorizer KeyAuthorizer
	apiKey     string
}

// NewHandler wires the admin surface to its collaborators. apiKey is
// the shared secret every request must present via the X-Admin-Key
// header.
func NewHandler(manager *relay.Manager, lists BanList, kicker Kicker, authorizer KeyAuthorizer, apiKey string) *Handler {
	return &Handler{manager: manager, lists: lists, kicker: kicker, authorizer: authorizer, apiKey: apiKey}
}

// RegisterRoutes mounts the admin surface under group, with
// correlation-ID tagging and API-key authorization applied to every
// route.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	admin := router.Group("/admin")
	admin.Use(middleware.CorrelationID(), h.authorize)

	admin.POST("/ban", h.Ban)
	admin.POST("/unban", h.Unban)
	admin.POST("/whitelist", h.Whitelist)
	admin.POST("/authorize-key", h.AuthorizeKey)
	admin.POST("/kick", h.Kick)
	admin.GET("/list", h.List)
	admin.POST("/announce", h.Announce)
}

// authorize rejects any admin request that doesn't present the
// configured API key, compared in constant time to avoid a timing
// side channel on the comparison itself.
func (h *Handler) authorize(c *gin.Context) {
	presented := c.GetHeader("X-Admin-Key")
	if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(h.apiKey)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid admin key"})
		return
	}
	c.Next()
}

type keyRequest struct {
	Key string `json:"key" binding:"required"`
}

// Ban adds a remote address or auth key to the ban list.
func (h *Handler) Ban(c *gin.Context) {
	var req keyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.lists.Ban(c.Request.Context(), req.Key); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "banned", "key": req.Key})
}

// Unban removes a remote address or auth key from the ban list.
func (h *Handler) Unban(c *gin.Context) {
	var req keyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.lists.Unban(c.Request.Context(), req.Key); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unbanned", "key": req.Key})
}

// Whitelist adds an auth key to the whitelist.
func (h *Handler) Whitelist(c *gin.Context) {
	var req keyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.lists.Whitelist(c.Request.Context(), req.Key); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "whitelisted", "key": req.Key})
}

type authorizeKeyRequest struct {
	Username string `json:"username" binding:"required"`
	Key      string `json:"key" binding:"required"`
}

// AuthorizeKey pre-lists username/key for whitelist promotion on next
// login, and grants key elevated in-chat command authority
// immediately.
func (h *Handler) AuthorizeKey(c *gin.Context) {
	var req authorizeKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.lists.PreList(c.Request.Context(), req.Username); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if h.authorizer != nil {
		h.authorizer.Add(req.Key)
	}
	c.JSON(http.StatusOK, gin.H{"status": "authorized", "username": req.Username})
}

type kickRequest struct {
	PlayerID uint16 `json:"playerId" binding:"required"`
}

// Kick forcibly disconnects a connected player with DisconnectKicked.
func (h *Handler) Kick(c *gin.Context) {
	var req kickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.kicker.Kick(relay.PlayerID(req.PlayerID), relay.DisconnectKicked) {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not connected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "kicked", "playerId": req.PlayerID})
}

type playerSummary struct {
	PlayerID uint16 `json:"playerId"`
	Username string `json:"username"`
	Scene    string `json:"scene"`
}

// List reports every currently-connected player.
func (h *Handler) List(c *gin.Context) {
	records := h.manager.Sessions.Snapshot()
	players := make([]playerSummary, 0, len(records))
	for _, rec := range records {
		players = append(players, playerSummary{
			PlayerID: uint16(rec.ID),
			Username: rec.Username,
			Scene:    string(rec.Scene()),
		})
	}
	c.JSON(http.StatusOK, gin.H{"players": players})
}

type announceRequest struct {
	Text string `json:"text" binding:"required"`
}

// Announce broadcasts a server-originated chat message to every
// connected player.
func (h *Handler) Announce(c *gin.Context) {
	var req announceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.manager.Announce(req.Text)
	c.JSON(http.StatusOK, gin.H{"status": "announced"})
}
