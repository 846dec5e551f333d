package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appMiddleware "github.com/hubb-app/bantadthong/app/middleware"
	"github.com/hubb-app/bantadthong/internal/api/chat"
	"github.com/hubb-app/bantadthong/internal/api/geoposition"
	"github.com/hubb-app/bantadthong/internal/api/itinerary"
	"github.com/hubb-app/bantadthong/internal/api/navigation"
	"github.com/hubb-app/bantadthong/internal/api/recommend"
	"github.com/hubb-app/bantadthong/internal/api/route"
	"github.com/hubb-app/bantadthong/internal/api/venue"
)

// Config carries the handlers the router mounts.
type Config struct {
	VenueHandler       *venue.Handler
	RecommendHandler   *recommend.Handler
	ItineraryHandler   *itinerary.Handler
	RouteHandler       *route.Handler
	NavigationHandler  *navigation.Handler
	ChatHandler        *chat.Handler
	GeopositionHandler *geoposition.Handler
}

// SetupRouter wires all API routes. Server-wide middleware (request id,
// logger, recoverer, timeouts) is applied in main.go before mounting.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Session-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Venue catalog
		r.Get("/venues", cfg.VenueHandler.ListVenues)
		r.Get("/venues/{venueID}", cfg.VenueHandler.GetVenue)
		r.Get("/landmarks", cfg.VenueHandler.ListLandmarks)

		// Recommendations
		r.Post("/recommend", cfg.RecommendHandler.Recommend)

		// Itinerary plans
		r.Route("/itinerary", func(r chi.Router) {
			r.Post("/plan", cfg.ItineraryHandler.Plan)
			r.Post("/generate", cfg.ItineraryHandler.Generate)
			r.Get("/plans/{planID}", cfg.ItineraryHandler.GetPlan)
			r.Delete("/plans/{planID}/stops/{order}", cfg.ItineraryHandler.RemoveStop)
		})

		// Routing
		r.Get("/route", cfg.RouteHandler.Resolve)
		r.Get("/route/all", cfg.RouteHandler.ResolveAll)

		// Navigation sessions
		r.Route("/navigation", func(r chi.Router) {
			r.Post("/start", cfg.NavigationHandler.Start)
			r.Post("/pause", cfg.NavigationHandler.Pause)
			r.Post("/resume", cfg.NavigationHandler.Resume)
			r.Post("/reset", cfg.NavigationHandler.Reset)
			r.Post("/position", cfg.NavigationHandler.UpdatePosition)
			r.Get("/state", cfg.NavigationHandler.State)
			r.Delete("/", cfg.NavigationHandler.End)
		})

		// Chat sessions
		r.Route("/chat/sessions", func(r chi.Router) {
			r.Use(appMiddleware.ChatSession)
			r.Post("/", cfg.ChatHandler.CreateSession)
			r.Get("/", cfg.ChatHandler.ListSessions)
			r.Get("/current", cfg.ChatHandler.CurrentSession)
			r.Post("/{sessionID}/messages", cfg.ChatHandler.SendMessage)
			r.Post("/{sessionID}/activate", cfg.ChatHandler.SwitchSession)
			r.Delete("/{sessionID}", cfg.ChatHandler.DeleteSession)
		})

		// Position boundary
		r.Route("/position", func(r chi.Router) {
			r.Get("/", cfg.GeopositionHandler.Get)
			r.Post("/", cfg.GeopositionHandler.Report)
			r.Post("/failure", cfg.GeopositionHandler.ReportFailure)
		})
	})

	return r
}
