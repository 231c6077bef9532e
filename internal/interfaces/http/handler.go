package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"

	"rsvpbot/internal/entities"
	"rsvpbot/internal/infrastructure"
	"rsvpbot/internal/interfaces"
	"rsvpbot/internal/repository"
	"rsvpbot/internal/usecases"
)

type Handler struct {
	engine       *usecases.ConversationEngine
	orchestrator *usecases.BroadcastOrchestrator
	sender       interfaces.MessageSender
	profiles     interfaces.ProfileGateway
	sessions     *infrastructure.SessionStore
	deliveries   *repository.DeliveryRepository
	verifyToken  string
	log          zerolog.Logger
}

func NewHandler(engine *usecases.ConversationEngine, orchestrator *usecases.BroadcastOrchestrator, sender interfaces.MessageSender, profiles interfaces.ProfileGateway, sessions *infrastructure.SessionStore, deliveries *repository.DeliveryRepository, verifyToken string, log zerolog.Logger) *Handler {
	return &Handler{
		engine:       engine,
		orchestrator: orchestrator,
		sender:       sender,
		profiles:     profiles,
		sessions:     sessions,
		deliveries:   deliveries,
		verifyToken:  verifyToken,
		log:          log.With().Str("component", "http").Logger(),
	}
}

func SetupRoutes(r *gin.Engine, h *Handler, auth *usecases.AuthUsecase, middleware *Middleware) {
	// Apply Security Middleware
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(1 << 20))
	r.Use(middleware.CORSMiddleware())

	// WhatsApp webhook (public; the provider calls it)
	r.GET("/webhook", h.VerifyWebhook)
	r.POST("/webhook", h.ReceiveWebhook)

	// Public Auth Routes
	r.POST("/api/auth/login", func(c *gin.Context) {
		var loginReq struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&loginReq); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		token, err := auth.Login(loginReq.Username, loginReq.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	})

	// Protected Operator Routes
	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	api.Use(middleware.RateLimitPerUser(5, 10))
	{
		api.POST("/broadcast/start", h.StartBroadcast)
		api.GET("/broadcast/status", h.BroadcastStatus)

		api.GET("/invites/:waid", h.GetInvite)
		api.GET("/invites/:waid/qr", h.GetInviteQR)

		api.POST("/sessions/:waid/reset", h.ResetSession)
		api.GET("/deliveries", h.RecentDeliveries)

		api.POST("/auth/register", func(c *gin.Context) {
			if role, _ := c.Get("role"); role != "admin" {
				c.JSON(http.StatusForbidden, gin.H{"error": "Admin only"})
				return
			}
			var regReq struct {
				Username string `json:"username"`
				Password string `json:"password"`
			}
			if err := c.ShouldBindJSON(&regReq); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
				return
			}
			if !ValidSlug(regReq.Username) || len(regReq.Password) < 6 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid username or password (min 6 chars)"})
				return
			}
			if err := auth.Register(regReq.Username, regReq.Password); err != nil {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusCreated, gin.H{"status": "registered"})
		})
	}
}

// VerifyWebhook answers the provider's subscription handshake.
func (h *Handler) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		c.String(http.StatusOK, challenge)
		return
	}
	c.Status(http.StatusForbidden)
}

// ReceiveWebhook handles one inbound delivery. It always answers 200:
// a non-2xx would only make the provider retry a payload we already
// know we cannot use.
func (h *Handler) ReceiveWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(body) == 0 {
		c.Status(http.StatusOK)
		return
	}

	for _, event := range DecodeInboundEvents(body) {
		switch evt := event.(type) {
		case entities.TextMessage:
			h.dispatch(evt.From, evt.Body)
		case entities.ButtonReply:
			// Buttons carry their caption; the engine matches on it
			// the same way it matches typed text.
			text := evt.Title
			if text == "" {
				text = evt.ID
			}
			h.dispatch(evt.From, text)
		case entities.StatusUpdate:
			h.log.Debug().Str("message_id", evt.MessageID).Str("status", evt.Status).Msg("status update")
		case entities.Unrecognized:
			h.log.Debug().Str("from", evt.From).Msg("unhandled message type")
		}
	}

	c.Status(http.StatusOK)
}

func (h *Handler) dispatch(from, text string) {
	for _, reply := range h.engine.Handle(from, text) {
		if _, err := h.sender.SendText(from, reply); err != nil {
			h.log.Error().Err(err).Str("to", from).Msg("reply send failed")
		}
	}
}

func (h *Handler) StartBroadcast(c *gin.Context) {
	var cfg entities.BroadcastConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if !ValidTemplateName(cfg.TemplateName) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template name"})
		return
	}

	job, err := h.orchestrator.Start(cfg)
	switch {
	case errors.Is(err, usecases.ErrJobRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, usecases.ErrNoRecipients),
		errors.Is(err, usecases.ErrSenderNotConfigured),
		errors.Is(err, usecases.ErrGatewayNotConfigured),
		errors.Is(err, usecases.ErrTemplateRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusAccepted, job)
	}
}

func (h *Handler) BroadcastStatus(c *gin.Context) {
	job, ok := h.orchestrator.Status()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"running": false, "status": "idle"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) GetInvite(c *gin.Context) {
	waid := c.Param("waid")
	if !ValidWaID(waid) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid waid"})
		return
	}
	profile, err := h.lookupProfile(waid)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invite not found"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetInviteQR renders the guest's invitation link as a PNG QR code,
// sized for printed cards.
func (h *Handler) GetInviteQR(c *gin.Context) {
	waid := c.Param("waid")
	if !ValidWaID(waid) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid waid"})
		return
	}
	profile, err := h.lookupProfile(waid)
	if err != nil || profile.InvitationURL == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invite not found"})
		return
	}

	png, err := qrcode.Encode(profile.InvitationURL, qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "QR generation failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// lookupProfile prefers the conversation cache over a backend round trip.
func (h *Handler) lookupProfile(waid string) (*entities.Profile, error) {
	if session := h.sessions.Get(waid); session != nil && session.Profile != nil {
		return session.Profile, nil
	}
	return h.profiles.FetchProfile(waid)
}

func (h *Handler) ResetSession(c *gin.Context) {
	waid := c.Param("waid")
	if !ValidWaID(waid) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid waid"})
		return
	}
	h.sessions.Reset(waid)
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func (h *Handler) RecentDeliveries(c *gin.Context) {
	if h.deliveries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Delivery log not available"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	records, err := h.deliveries.Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deliveries": records, "count": len(records)})
}
