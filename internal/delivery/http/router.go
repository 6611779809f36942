package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventmanager/internal/delivery/http/controllers"
	"eventmanager/internal/delivery/http/helpers"
	"eventmanager/internal/delivery/http/middleware"
	"eventmanager/internal/domain"
	"eventmanager/internal/metrics"
)

// RouterDeps holds everything NewRouter needs.
type RouterDeps struct {
	Logger         *slog.Logger
	Verifier       domain.TokenVerifier
	RateLimiter    *middleware.RateLimiter
	CORSOrigins    []string
	Events         *controllers.EventController
	Categories     *controllers.CategoryController
	Registrations  *controllers.RegistrationController
	Images         *controllers.ImageController
	ImageURLPrefix string
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(d RouterDeps) http.Handler {
	mux := http.NewServeMux()

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return middleware.RequireAuth(d.Verifier, d.Logger)(d.RateLimiter.Wrap(next))
	}

	// Events
	mux.HandleFunc("GET /events", d.Events.ListEvents)
	mux.HandleFunc("POST /events", authed(d.Events.CreateEvent))
	mux.HandleFunc("GET /events/{eventID}", d.Events.GetEvent)
	mux.HandleFunc("PATCH /events/{eventID}", authed(d.Events.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", authed(d.Events.DeleteEvent))

	// Registrations
	mux.HandleFunc("GET /events/{eventID}/participants", authed(d.Registrations.ListParticipants))
	mux.HandleFunc("POST /events/{eventID}/participants", authed(d.Registrations.Register))
	mux.HandleFunc("DELETE /events/{eventID}/participants/me", authed(d.Registrations.Cancel))
	mux.HandleFunc("GET /users/me/registrations", authed(d.Registrations.ListMyRegistrations))

	// Images
	mux.HandleFunc("POST /events/{eventID}/images", authed(d.Images.UploadImage))
	mux.HandleFunc("GET /events/{eventID}/images/{filename}", d.Images.GetImage)
	mux.HandleFunc("DELETE /events/{eventID}/images/{filename}", authed(d.Images.DeleteImage))
	if d.ImageURLPrefix != "" && d.ImageURLPrefix != "/events" {
		// Stored image URLs point here; serve them through the cached image service.
		mux.HandleFunc("GET "+d.ImageURLPrefix+"/{eventID}/{filename}", d.Images.GetImage)
	}

	// Categories
	mux.HandleFunc("GET /categories", d.Categories.ListCategories)
	mux.HandleFunc("POST /categories", authed(d.Categories.CreateCategory))
	mux.HandleFunc("PATCH /categories/{categoryID}", authed(d.Categories.RenameCategory))
	mux.HandleFunc("DELETE /categories/{categoryID}", authed(d.Categories.DeleteCategory))

	// Ops
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", metrics.Handler())

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	var handler http.Handler = mux
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.CORS(d.CORSOrigins)(handler)
	handler = middleware.Logging(d.Logger)(handler)
	return handler
}
