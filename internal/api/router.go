package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/campaignjournal/internal/auth"
	"github.com/starford/campaignjournal/internal/journal"
	"github.com/starford/campaignjournal/internal/models"
	"github.com/starford/campaignjournal/internal/routepath"
)

// NewRouter creates a chi router with all journal routes mounted.
// requireLogin makes every write route reject anonymous requests; reads stay
// public. sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *journal.Service, authn *auth.Service, requireLogin bool, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)
	ah := NewAuthHandler(authn)
	write := RequireUser(requireLogin)

	r := chi.NewRouter()
	r.Use(Authenticate(authn))

	r.Post(routepath.AuthRegister, ah.Register)
	r.Post(routepath.AuthLogin, ah.Login)
	r.Post(routepath.AuthLogout, ah.Logout)
	r.Get(routepath.AuthMe, ah.Me)

	for _, c := range models.Categories {
		base := routepath.Collection(c)
		item := base + "/{" + routepath.SlugParam + "}"

		r.Get(base, h.List(c))
		r.Get(base+"/all", h.List(c))
		r.Get(item, h.Get(c))
		r.With(write).Post(base, h.Create(c))
		r.With(write).Put(item, h.Update(c))
		r.With(write).Delete(item, h.Delete(c))
	}
	r.Get(routepath.LocationTree("{"+routepath.SlugParam+"}"), h.LocationTree)

	r.Get(routepath.Search, h.Search)
	r.Post(routepath.Render, h.Render)

	if sseHandler != nil {
		r.Get(routepath.Events, sseHandler.ServeHTTP)
	}

	return r
}
