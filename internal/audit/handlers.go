package audit

import (
	"net/http"
	"strconv"

	"taxibooking/internal/api"
)

type Handlers struct {
	Repo *Repository
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.Repo.List(r.Context(), r.URL.Query().Get("entity"), limit)
	if err != nil {
		api.WriteInternal(w)
		return
	}
	api.WriteItems(w, items)
}
