package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/domain"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/repository"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/service"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/auth"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/config"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/logger"
	mw "github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/middleware"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 64 << 10

type Deps struct {
	Invitations    service.InvitationService
	Recovery       service.RecoveryService
	AccessRequests service.AccessRequestService
	RSVP           service.RSVPService
	Photos         service.PhotoService
	Admin          service.AdminService
	Limiter        repository.RateLimiter
	Idempotency    mw.IdempotencyStore // optional
}

type Handlers struct {
	invitationService    service.InvitationService
	recoveryService      service.RecoveryService
	accessRequestService service.AccessRequestService
	rsvpService          service.RSVPService
	photoService         service.PhotoService
	adminService         service.AdminService
	limiter              repository.RateLimiter
	idempotency          mw.IdempotencyStore
	config               *config.Config
}

func New(deps Deps, config *config.Config) *Handlers {
	return &Handlers{
		invitationService:    deps.Invitations,
		recoveryService:      deps.Recovery,
		accessRequestService: deps.AccessRequests,
		rsvpService:          deps.RSVP,
		photoService:         deps.Photos,
		adminService:         deps.Admin,
		limiter:              deps.Limiter,
		idempotency:          deps.Idempotency,
		config:               config,
	}
}

// Routes mounts the API under r.
func (h *Handlers) Routes(r chi.Router) {
	rl := h.config.RateLimit

	r.Route("/api", func(r chi.Router) {
		r.With(h.RateLimit("validate_code", rl.CodeAttempts, rl.CodeWindow)).
			Post("/auth/validate-code", h.ValidateCode)
		r.Post("/auth/recover-invitation", h.RecoverInvitation)
		r.With(mw.Idempotency(h.idempotency, 24*time.Hour)).
			Post("/access-requests", h.SubmitAccessRequest)

		// Member pages
		r.Group(func(r chi.Router) {
			r.Use(h.RequireGuestSession)
			r.Get("/guest/me", h.Me)
			r.Post("/rsvp", h.SubmitRSVP)
			r.Post("/photos/upload-url", h.CreatePhotoUploadURL)
		})

		r.Route("/admin", func(r chi.Router) {
			r.With(h.RateLimit("admin_login", rl.CodeAttempts, rl.CodeWindow)).
				Post("/login", h.AdminLogin)

			r.Group(func(r chi.Router) {
				r.Use(h.RequireAdmin)
				r.Get("/access-requests", h.ListAccessRequests)
				r.Post("/access-requests/{id}/approve", h.ApproveAccessRequest)
				r.Post("/access-requests/{id}/deny", h.DenyAccessRequest)
			})
		})
	})
}

type contextKey string

const (
	guestKey  contextKey = "guest"
	claimsKey contextKey = "claims"
)

// RequireGuestSession verifies the session token and re-loads the guest it
// names. Missing, invalid or orphaned sessions all get 401 so the front end
// sends the visitor back to the code gate.
func (h *Handlers) RequireGuestSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("session_token")
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Please enter your invitation code", "UNAUTHORIZED")
			return
		}

		claims, err := auth.Parse(token, h.config.Auth.JWTSecret)
		if err != nil || claims.Role != auth.RoleGuest {
			writeError(w, http.StatusUnauthorized, "Your session has expired. Please enter your invitation code again", "UNAUTHORIZED")
			return
		}

		ctx := context.WithValue(r.Context(), logger.GuestIDKey, claims.Subject)
		guest, err := h.invitationService.GuestFromSession(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, domain.ErrGuestNotFound) {
				writeError(w, http.StatusUnauthorized, "Your session is no longer valid. Please enter your invitation code again", "UNAUTHORIZED")
				return
			}
			logger.ErrorContext(ctx, "Failed to load session guest", "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR")
			return
		}

		ctx = context.WithValue(ctx, guestKey, guest)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Missing or invalid authorization header", "UNAUTHORIZED")
			return
		}

		claims, err := auth.Parse(token, h.config.Auth.JWTSecret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token", "INVALID_TOKEN")
			return
		}
		if claims.Role != auth.RoleAdmin {
			writeError(w, http.StatusForbidden, "Insufficient permissions", "FORBIDDEN")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RateLimit allows requests per client IP per window under the given bucket.
// Limiter failures let the request through.
func (h *Handlers) RateLimit(bucket string, requests int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := bucket + ":" + getClientIP(r)

			allowed, err := h.limiter.CheckRateLimit(r.Context(), key, requests, window)
			if err != nil {
				logger.ErrorContext(r.Context(), "Rate limit check failed", "error", err, "bucket", bucket)
			} else if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				writeError(w, http.StatusTooManyRequests, "Too many attempts. Please try again later.", "RATE_LIMIT_EXCEEDED")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Helper functions
func sessionGuest(r *http.Request) *domain.Guest {
	if g, ok := r.Context().Value(guestKey).(*domain.Guest); ok {
		return g
	}
	return nil
}

func getClaims(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(claimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// decodeJSON reads a bounded JSON body. An empty body is allowed when
// allowEmpty is set and leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if allowEmpty && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

type errorResponse struct {
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Details []domain.FieldError `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message, code string) {
	writeJSON(w, statusCode, errorResponse{Error: message, Code: code})
}

// writeServiceError maps domain errors onto status codes. Anything it does not
// recognize is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Please correct the highlighted fields",
			Code:    "VALIDATION_ERROR",
			Details: verr.Fields,
		})
	case errors.Is(err, domain.ErrInvalidCode):
		writeError(w, http.StatusUnauthorized, "Invalid invitation code. Please check your code and try again.", "INVALID_CODE")
	case errors.Is(err, domain.ErrBotDetected):
		writeError(w, http.StatusBadRequest, "Submission rejected", "BOT_DETECTED")
	case errors.Is(err, domain.ErrStaleSubmission):
		writeError(w, http.StatusBadRequest, "This form has expired. Please refresh the page and try again.", "STALE_SUBMISSION")
	case errors.Is(err, domain.ErrDuplicateRequest):
		writeError(w, http.StatusConflict, "A request for this email address was already submitted in the last 24 hours.", "DUPLICATE_REQUEST")
	case errors.Is(err, domain.ErrRequestNotFound):
		writeError(w, http.StatusNotFound, "Access request not found", "NOT_FOUND")
	case errors.Is(err, domain.ErrNotPending):
		writeError(w, http.StatusConflict, "This access request has already been decided", "ALREADY_DECIDED")
	case errors.Is(err, domain.ErrPlusOneNotAllowed):
		writeError(w, http.StatusBadRequest, "Your invitation does not include a plus-one", "PLUS_ONE_NOT_ALLOWED")
	case errors.Is(err, domain.ErrGuestNotFound):
		writeError(w, http.StatusUnauthorized, "Your session is no longer valid. Please enter your invitation code again", "UNAUTHORIZED")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password", "INVALID_CREDENTIALS")
	case errors.Is(err, domain.ErrUploadsDisabled):
		writeError(w, http.StatusServiceUnavailable, "Photo uploads are not available right now", "UPLOADS_DISABLED")
	default:
		logger.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR")
	}
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
