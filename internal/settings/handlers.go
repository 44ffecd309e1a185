package settings

import (
	"context"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"taxibooking/internal/api"
	"taxibooking/internal/audit"
	"taxibooking/pkg/db"
)

// Invalidator drops cached public responses after a write.
type Invalidator interface {
	Invalidate(ctx context.Context, prefixes ...string)
}

// Store is the settings table as the handlers use it.
type Store interface {
	Provider
	Save(ctx context.Context, changes map[string]string) error
}

type Handlers struct {
	DB    *pgxpool.Pool
	Repo  Store
	Audit *audit.Repository
	Cache Invalidator
}

func (h Handlers) Public(w http.ResponseWriter, r *http.Request) {
	s, err := h.Repo.Get(r.Context())
	if err != nil {
		log.Printf("public settings failed err=%v", err)
		api.WriteInternal(w)
		return
	}
	api.WriteJSON(w, http.StatusOK, s.Public())
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.Repo.Get(r.Context())
	if err != nil {
		log.Printf("settings get failed err=%v", err)
		api.WriteInternal(w)
		return
	}
	api.WriteJSON(w, http.StatusOK, s)
}

func (h Handlers) Put(w http.ResponseWriter, r *http.Request) {
	var req Update
	if !api.Decode(w, r, &req) {
		return
	}
	changes := req.Changes()
	if len(changes) == 0 {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "no settings to update")
		return
	}

	err := db.RunInTx(r.Context(), h.DB, func(ctx context.Context) error {
		if err := h.Repo.Save(ctx, changes); err != nil {
			return err
		}
		return h.Audit.Record(ctx, "SETTINGS_UPDATED", "settings", "", api.Actor(ctx), changes)
	})
	if err != nil {
		log.Printf("settings update failed err=%v", err)
		api.WriteInternal(w)
		return
	}
	if h.Cache != nil {
		h.Cache.Invalidate(r.Context(), "settings", "availability")
	}

	s, err := h.Repo.Get(r.Context())
	if err != nil {
		log.Printf("settings reload failed err=%v", err)
		api.WriteInternal(w)
		return
	}
	api.WriteJSON(w, http.StatusOK, s)
}
