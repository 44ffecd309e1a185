package adminauth

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"
	"time"

	"taxibooking/internal/api"
	"taxibooking/internal/clock"
	"taxibooking/pkg/config"
)

type Handlers struct {
	Cfg   config.AdminConfig
	Clock clock.Clock
}

type LoginRequest struct {
	Password string `json:"password" validate:"required,max=200"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !api.Decode(w, r, &req) {
		return
	}
	if err := checkPassword(h.Cfg.Password, req.Password); err != nil {
		log.Printf("admin login rejected err=%v", err)
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthorized, "invalid credentials")
		return
	}
	token, exp, err := Issue(h.Cfg.TokenSecret, h.now(), h.Cfg.TokenTTL)
	if err != nil {
		log.Printf("admin token issue failed err=%v", err)
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthorized, "admin login is not configured")
		return
	}
	api.WriteJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: exp})
}

func (h Handlers) now() time.Time {
	if h.Clock == nil {
		return time.Now().UTC()
	}
	return h.Clock.Now()
}

func checkPassword(want, got string) error {
	if want == "" {
		return ErrNotConfigured
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(strings.TrimSpace(got))) != 1 {
		return ErrBadPassword
	}
	return nil
}

// Middleware admits requests carrying a valid "Authorization: Bearer <token>".
//
// Outside prod the shared password is also accepted in X-Admin-Password, which keeps curl scripts simple.
func Middleware(cfg config.Config, c clock.Clock) func(http.Handler) http.Handler {
	if c == nil {
		c = clock.NewSystem()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				s, err := Verify(strings.TrimSpace(authz[7:]), cfg.Admin.TokenSecret, c.Now())
				if err != nil {
					api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthorized, "invalid session token")
					return
				}
				ctx := api.WithAdmin(r.Context(), &api.AdminSession{Subject: s.Subject, ExpiresAt: s.ExpiresAt})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if !cfg.IsProd() {
				if pw := r.Header.Get("X-Admin-Password"); pw != "" && checkPassword(cfg.Admin.Password, pw) == nil {
					ctx := api.WithAdmin(r.Context(), &api.AdminSession{Subject: Subject})
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthorized, "missing session token")
		})
	}
}
