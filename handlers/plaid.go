package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"income-bridge/api/config"
	"income-bridge/api/logger"
	"income-bridge/api/models"
	"income-bridge/api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthReporter is notified of rejected client credential checks.
type AuthReporter interface {
	AuthFailure(route, clientID string)
}

// Handler exposes the onboarding workflow over HTTP. Callers are services
// presenting a static client id/secret pair in the request body.
type Handler struct {
	cfg      *config.Config
	svc      *service.Service
	reporter AuthReporter
}

func New(cfg *config.Config, svc *service.Service, reporter AuthReporter) *Handler {
	return &Handler{cfg: cfg, svc: svc, reporter: reporter}
}

type CreateLinkTokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	FirebaseID   string `json:"firebase_id"`
}

type ExchangeTokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	FirebaseID   string `json:"firebase_id"`
	PublicToken  string `json:"public_token"`
}

type CheckIncomeRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	FirebaseID   string `json:"firebase_id"`
}

// fieldError mirrors the validation error list callers already parse.
type fieldError struct {
	Msg   string `json:"msg"`
	Param string `json:"param"`
}

func requireFields(fields map[string]string) []fieldError {
	// Deterministic order so the error list is stable.
	order := []string{"client_id", "client_secret", "firebase_id", "public_token"}
	messages := map[string]string{
		"client_id":     "Invalid Client ID",
		"client_secret": "Invalid Client Secret",
		"firebase_id":   "Firebase UID is required",
		"public_token":  "Public Token is required",
	}

	var errs []fieldError
	for _, param := range order {
		value, checked := fields[param]
		if checked && value == "" {
			errs = append(errs, fieldError{Msg: messages[param], Param: param})
		}
	}
	return errs
}

// checkClientCredentials runs the credential gate. It writes the response
// itself on mismatch and reports the attempt; no workflow step executes
// after a failed gate.
func (h *Handler) checkClientCredentials(c *gin.Context, clientID, clientSecret string) bool {
	if clientID != h.cfg.OnboardClientID || clientSecret != h.cfg.OnboardClientSecret {
		if h.reporter != nil {
			h.reporter.AuthFailure(c.FullPath(), clientID)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Client ID or Secret"})
		return false
	}
	return true
}

// CreateLinkToken lazily provisions the user's Plaid identity and returns
// a fresh link token for the client application's Link flow.
func (h *Handler) CreateLinkToken(c *gin.Context) {
	var req CreateLinkTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if errs := requireFields(map[string]string{
		"client_id":     req.ClientID,
		"client_secret": req.ClientSecret,
		"firebase_id":   req.FirebaseID,
	}); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	if !h.checkClientCredentials(c, req.ClientID, req.ClientSecret) {
		return
	}

	token, err := h.svc.CreateLinkToken(c.Request.Context(), req.FirebaseID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, token)
}

// ExchangePublicToken swaps the one-time public token for the durable
// credential pair. The response acknowledges success only; the access
// token is never echoed back.
func (h *Handler) ExchangePublicToken(c *gin.Context) {
	var req ExchangeTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if errs := requireFields(map[string]string{
		"client_id":     req.ClientID,
		"client_secret": req.ClientSecret,
		"firebase_id":   req.FirebaseID,
		"public_token":  req.PublicToken,
	}); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	if !h.checkClientCredentials(c, req.ClientID, req.ClientSecret) {
		return
	}

	if _, err := h.svc.ExchangePublicToken(c.Request.Context(), req.FirebaseID, req.PublicToken); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "success"})
}

// CheckIncome evaluates the user's most recent bank income against the
// configured threshold.
func (h *Handler) CheckIncome(c *gin.Context) {
	var req CheckIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if errs := requireFields(map[string]string{
		"client_id":     req.ClientID,
		"client_secret": req.ClientSecret,
		"firebase_id":   req.FirebaseID,
	}); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	if !h.checkClientCredentials(c, req.ClientID, req.ClientSecret) {
		return
	}

	decision, err := h.svc.CheckIncome(c.Request.Context(), req.FirebaseID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if !decision.Approved {
		c.JSON(http.StatusForbidden, gin.H{
			"error": fmt.Sprintf("Income is less than $%.0f", decision.Threshold),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "success", "income": decision.Income})
}

// writeError translates workflow errors into the response contract:
// 400 for client-correctable preconditions, 500 for upstream and
// persistence faults.
func (h *Handler) writeError(c *gin.Context, err error) {
	var unknownUser *models.UnknownUserError
	var notLinked *models.AccountNotLinkedError
	var persistence *models.PersistenceError

	switch {
	case errors.As(err, &unknownUser):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Firebase ID"})
	case errors.As(err, &notLinked):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Plaid Access Token, account not connected"})
	case errors.As(err, &persistence):
		// The upstream mutation landed but the record write did not.
		// Flagged loudly so operators can reconcile.
		logger.Get().Error("record out of sync with plaid state",
			zap.String("operation", persistence.Op),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("something went wrong : %s", err.Error())})
	default:
		logger.Get().Error("onboarding request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("something went wrong : %s", err.Error())})
	}
}
