package handlers

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"

	"github.com/sahil-darj/Rewear/internal/market"
	"github.com/sahil-darj/Rewear/internal/models"
	"github.com/sahil-darj/Rewear/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the marketplace over JSON.
type Handler struct {
	svc      *market.Service
	sessions *session.Manager
	log      *zap.Logger
}

func New(svc *market.Service, sessions *session.Manager, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, sessions: sessions, log: log}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.Use(h.requestLogger())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "rewear"})
	})
	r.GET("/options", listOptions)

	r.POST("/auth/signup", h.signup)
	r.POST("/auth/login", h.login)

	r.GET("/items", h.browse)
	r.GET("/items/:id", h.getItem)
	r.GET("/users/:id/items", h.userItems)

	auth := r.Group("/", h.requireSession())
	auth.POST("/auth/logout", h.logout)
	auth.GET("/auth/me", h.me)
	auth.PATCH("/auth/me", h.updateMe)
	auth.GET("/users/:id/ledger", h.userLedger)

	auth.POST("/items", h.createItem)
	auth.PATCH("/items/:id", h.updateItem)

	auth.POST("/items/:id/requests", h.createRequest)
	auth.GET("/requests", h.listRequests)
	auth.POST("/requests/:id/accept", h.acceptRequest)
	auth.POST("/requests/:id/decline", h.declineRequest)

	admin := auth.Group("/admin", h.requireAdmin())
	admin.GET("/items", h.moderationQueue)
	admin.GET("/stats", h.stats)
	admin.POST("/items/:id/approve", h.approve)
	admin.POST("/items/:id/reject", h.reject)
}

// writeError maps marketplace errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, market.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, market.ErrAlreadyExists), errors.Is(err, market.ErrInsufficientPoints):
		status = http.StatusConflict
	case errors.Is(err, market.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, market.ErrNotOwner), errors.Is(err, market.ErrForbidden), errors.Is(err, market.ErrOwnItem):
		status = http.StatusForbidden
	case errors.Is(err, market.ErrNotPending), errors.Is(err, market.ErrUnavailable):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, market.ErrInvalidInput):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func listOptions(c *gin.Context) {
	conditions := []gin.H{}
	for _, cond := range []models.Condition{models.ConditionNew, models.ConditionLikeNew, models.ConditionGood, models.ConditionFair} {
		conditions = append(conditions, gin.H{"value": cond, "points": cond.PointValue()})
	}
	c.JSON(http.StatusOK, gin.H{
		"categories": market.Categories,
		"sizes":      market.Sizes,
		"conditions": conditions,
	})
}

// Auth handlers
type signupReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type sessionResp struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (h *Handler) signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.svc.Signup(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	h.startSession(c, http.StatusCreated, u)
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	h.startSession(c, http.StatusOK, u)
}

func (h *Handler) startSession(c *gin.Context, status int, u models.User) {
	token, _, err := h.sessions.Issue(u.ID, u.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, sessionResp{Token: token, User: u})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.sessions.Logout(bearerToken(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (h *Handler) updateMe(c *gin.Context) {
	var patch market.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.svc.UpdateProfile(c.Request.Context(), currentUser(c).ID, patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) userLedger(c *gin.Context) {
	id := c.Param("id")
	me := currentUser(c)
	if id != me.ID && !me.IsAdmin {
		writeError(c, market.ErrForbidden)
		return
	}
	page := 1
	pageSize := 20
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if ps := c.Query("pageSize"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 200 {
			pageSize = v
		}
	}
	entries, err := h.svc.Ledger(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	// newest first
	slices.Reverse(entries)
	total := len(entries)
	// page-1 is compared before multiplying so huge pages cannot overflow.
	start := total
	if page-1 <= (total-1)/pageSize {
		start = (page - 1) * pageSize
	}
	end := min(start+pageSize, total)
	data := append([]models.PointLedger{}, entries[start:end]...)
	c.JSON(http.StatusOK, gin.H{"data": data, "page": page, "pageSize": pageSize, "total": total})
}

// Item handlers
type itemCreateReq struct {
	Title       string           `json:"title" binding:"required"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Type        string           `json:"type"`
	Size        string           `json:"size"`
	Condition   models.Condition `json:"condition" binding:"omitempty,oneof=new like-new good fair"`
	Tags        []string         `json:"tags"`
	Images      []string         `json:"images"`
}

func (h *Handler) browse(c *gin.Context) {
	f := market.BrowseFilter{
		Query:     c.Query("q"),
		Category:  c.Query("category"),
		Condition: models.Condition(c.Query("condition")),
	}
	if l := c.Query("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		f.Limit = v
	}
	c.JSON(http.StatusOK, gin.H{"data": h.svc.Browse(f)})
}

func (h *Handler) getItem(c *gin.Context) {
	item, ok := h.svc.Item(c.Param("id"))
	if !ok {
		writeError(c, market.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) userItems(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.svc.ItemsByUploader(c.Param("id"))})
}

func (h *Handler) createItem(c *gin.Context) {
	var req itemCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.svc.ListItem(c.Request.Context(), currentUser(c).ID, market.ItemInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Type:        req.Type,
		Size:        req.Size,
		Condition:   req.Condition,
		Tags:        req.Tags,
		Images:      req.Images,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) updateItem(c *gin.Context) {
	var patch market.ItemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.svc.EditItem(c.Request.Context(), currentUser(c).ID, c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Swap request handlers
type requestCreateReq struct {
	Type    models.SwapKind `json:"type" binding:"required,oneof=swap points"`
	Message string          `json:"message"`
}

func (h *Handler) createRequest(c *gin.Context) {
	var req requestCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sr, err := h.svc.RequestItem(c.Request.Context(), currentUser(c).ID, c.Param("id"), req.Type, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sr)
}

func (h *Handler) listRequests(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.svc.RequestsForUser(currentUser(c).ID)})
}

func (h *Handler) acceptRequest(c *gin.Context) {
	res, err := h.svc.AcceptRequest(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) declineRequest(c *gin.Context) {
	sr, err := h.svc.DeclineRequest(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sr)
}

// Admin handlers
func (h *Handler) moderationQueue(c *gin.Context) {
	status := models.ItemStatus(c.Query("status"))
	switch status {
	case "", models.ItemPending, models.ItemApproved, models.ItemRejected:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.svc.ModerationQueue(status)})
}

func (h *Handler) stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Stats())
}

func (h *Handler) approve(c *gin.Context) {
	h.moderate(c, h.svc.Approve)
}

func (h *Handler) reject(c *gin.Context) {
	h.moderate(c, h.svc.Reject)
}

func (h *Handler) moderate(c *gin.Context, action func(ctx context.Context, actorID, itemID string) error) {
	id := c.Param("id")
	if _, ok := h.svc.Item(id); !ok {
		writeError(c, market.ErrNotFound)
		return
	}
	if err := action(c.Request.Context(), currentUser(c).ID, id); err != nil {
		writeError(c, err)
		return
	}
	item, _ := h.svc.Item(id)
	c.JSON(http.StatusOK, item)
}
