package v1

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"strings"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/imanix/b2b-storefront/internal/core/domain"
	logicv1 "github.com/imanix/b2b-storefront/internal/logic/v1"
	"github.com/imanix/b2b-storefront/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Client-facing messages. Unknown email and wrong password share one.
const (
	msgLoginSuccess     = "Login successful"
	msgEmailRequired    = "Email is required"
	msgEmailInvalid     = "Please enter a valid email address"
	msgPasswordRequired = "Password is required"
	msgInvalidLogin     = "Invalid email or password"
	msgPasswordNotSet   = "This account has no password yet. Please contact your account manager."
	msgInternal         = "Something went wrong. Please try again later."
	msgMethodNotAllowed = "Method not allowed"
	msgNotAuthenticated = "Not authenticated"
	msgLoggedOut        = "Logged out"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	MaxAge int // seconds
	Secure bool
}

func (c CookieConfig) sameSite() http.SameSite {
	if c.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// Handler groups HTTP handlers for the storefront auth API v1.
// Dependencies are injected via the constructor, no global state.
type Handler struct {
	auth     *logicv1.AuthService
	sessions *logicv1.SessionStore
	cookie   CookieConfig
	debug    bool
}

// NewHandler creates a new Handler. With debug set, server error responses
// carry the internal error under "debug".
func NewHandler(auth *logicv1.AuthService, sessions *logicv1.SessionStore, cookie CookieConfig, debug bool) *Handler {
	return &Handler{auth: auth, sessions: sessions, cookie: cookie, debug: debug}
}

// RegisterRoutes registers all auth API v1 routes on the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.Any("/auth/login", h.Login)
	rg.POST("/auth/logout", h.Logout)
	rg.GET("/auth/session", h.Session)
	rg.GET("/auth/sessions", h.Sessions)
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := pkgzerolog.FromContext(ctx)

	if c.Request.Method != http.MethodPost {
		c.Header("Allow", http.MethodPost)
		c.JSON(http.StatusMethodNotAllowed, gin.H{"success": false, "message": msgMethodNotAllowed})
		return
	}

	inboundID := h.cookieValue(c)
	sess := h.sessions.Load(ctx, inboundID)
	span.SetAttributes(attribute.Bool("session.resumed", !sess.IsNew()))

	req := readLoginRequest(c)

	result, err := h.auth.Login(ctx, sess, req)
	if err != nil {
		span.RecordError(err)
		status, message, outcome := loginFailure(err)
		middleware.LoginAttempts.WithLabelValues(outcome).Inc()

		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).Msg("Login failed")
		} else {
			logger.Warn().Err(err).Str("outcome", outcome).Msg("Login rejected")
		}

		c.JSON(status, h.failureBody(c, status, message, err))
		return
	}

	middleware.LoginAttempts.WithLabelValues("success").Inc()
	if sess.Saved() && sess.ID() != inboundID {
		h.setCookie(c, sess.ID())
	}

	logger.Info().
		Bool("profile_completed", result.ProfileCompleted).
		Msg("Login successful")

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"message":          msgLoginSuccess,
		"nextStep":         result.NextStep,
		"profileCompleted": result.ProfileCompleted,
		"customerData":     result.Customer,
		"redirect":         result.Redirect,
		"shouldRedirect":   true,
	})
}

// Logout handles POST /api/v1/auth/logout. It succeeds without a session.
func (h *Handler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	logger := pkgzerolog.FromContext(ctx)

	id := h.cookieValue(c)
	if id != "" {
		if err := h.auth.Logout(ctx, h.sessions.Load(ctx, id)); err != nil {
			logger.Error().Err(err).Msg("Logout failed")
			c.JSON(http.StatusInternalServerError, h.failureBody(c, http.StatusInternalServerError, msgInternal, err))
			return
		}
	}

	h.clearCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msgLoggedOut})
}

// Session handles GET /api/v1/auth/session.
func (h *Handler) Session(c *gin.Context) {
	customer, ok := h.currentCustomer(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "customer": customer})
}

// Sessions handles GET /api/v1/auth/sessions and lists the caller's
// active sessions.
func (h *Handler) Sessions(c *gin.Context) {
	customer, ok := h.currentCustomer(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	sessions, err := h.sessions.GetUserSessions(ctx, customer.Email)
	if err != nil {
		pkgzerolog.FromContext(ctx).Error().Err(err).Msg("List sessions failed")
		c.JSON(http.StatusInternalServerError, h.failureBody(c, http.StatusInternalServerError, msgInternal, err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sessions": sessions})
}

func (h *Handler) currentCustomer(c *gin.Context) (domain.SessionCustomer, bool) {
	id := h.cookieValue(c)
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": msgNotAuthenticated})
		return domain.SessionCustomer{}, false
	}

	sess := h.sessions.Load(c.Request.Context(), id)
	customer, err := h.auth.CurrentCustomer(sess)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": msgNotAuthenticated})
		return domain.SessionCustomer{}, false
	}
	return customer, true
}

// failureBody builds an error response. Only server errors carry detail:
// the trace id always, the internal error when debug is on. Client errors
// stay identical across causes.
func (h *Handler) failureBody(c *gin.Context, status int, message string, err error) gin.H {
	body := gin.H{"success": false, "message": message}
	if status < http.StatusInternalServerError {
		return body
	}
	if traceID := middleware.TraceIDFromGinContext(c); traceID != "" {
		body["traceId"] = traceID
	}
	if h.debug && err != nil {
		body["debug"] = gin.H{"error": err.Error()}
	}
	return body
}

func (h *Handler) cookieValue(c *gin.Context) string {
	v, err := c.Cookie(h.cookie.Name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(v)
}

func (h *Handler) setCookie(c *gin.Context, id string) {
	c.SetSameSite(h.cookie.sameSite())
	c.SetCookie(h.cookie.Name, id, h.cookie.MaxAge, "/", "", h.cookie.Secure, true)
}

func (h *Handler) clearCookie(c *gin.Context) {
	c.SetSameSite(h.cookie.sameSite())
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
}

// readLoginRequest never fails: an unreadable or malformed body yields an
// empty request, which validation then rejects. Form encoding is used only
// when declared or when the body cannot be JSON; a JSON body with a wrongly
// typed field keeps the fields that did decode.
func readLoginRequest(c *gin.Context) domain.LoginRequest {
	var req domain.LoginRequest

	body, err := c.GetRawData()
	if err != nil {
		return req
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return req
	}

	if c.ContentType() != binding.MIMEPOSTForm && (trimmed[0] == '{' || trimmed[0] == '[') {
		_ = binding.JSON.BindBody(trimmed, &req)
		return req
	}

	values, err := url.ParseQuery(string(trimmed))
	if err != nil {
		return req
	}
	req.Email = values.Get("email")
	req.Password = values.Get("password")
	return req
}

// loginFailure maps a login error to status, client message and metric label.
func loginFailure(err error) (int, string, string) {
	switch {
	case errors.Is(err, logicv1.ErrEmailRequired):
		return http.StatusBadRequest, msgEmailRequired, "invalid_input"
	case errors.Is(err, logicv1.ErrEmailInvalid):
		return http.StatusBadRequest, msgEmailInvalid, "invalid_input"
	case errors.Is(err, logicv1.ErrPasswordRequired):
		return http.StatusBadRequest, msgPasswordRequired, "invalid_input"
	case errors.Is(err, logicv1.ErrInvalidCredentials),
		errors.Is(err, logicv1.ErrUserNotFound):
		return http.StatusUnauthorized, msgInvalidLogin, "invalid_credentials"
	case errors.Is(err, logicv1.ErrPasswordNotSet):
		return http.StatusUnauthorized, msgPasswordNotSet, "password_not_set"
	default:
		return http.StatusInternalServerError, msgInternal, "error"
	}
}
