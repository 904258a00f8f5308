package api

import (
	"net/http"

	"github.com/cvisual/server/internal/api/handlers"
	"github.com/cvisual/server/internal/api/middleware"
	"github.com/cvisual/server/internal/api/problem"
	"github.com/cvisual/server/internal/audit"
	"github.com/cvisual/server/internal/auth"
	"github.com/cvisual/server/internal/config"
	"github.com/cvisual/server/internal/domain/blog"
	"github.com/cvisual/server/internal/domain/contact"
	"github.com/cvisual/server/internal/domain/newsletter"
	"github.com/cvisual/server/internal/domain/offerings"
	"github.com/cvisual/server/internal/domain/projects"
	"github.com/cvisual/server/internal/domain/testimonials"
	"github.com/cvisual/server/internal/domain/users"
	"github.com/cvisual/server/internal/media"
	"github.com/cvisual/server/internal/metrics"
	"github.com/cvisual/server/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// maxUploadFiles bounds the request size of a multipart project create or
// gallery append.
const maxUploadFiles = 20

// Dependencies are built by the serve command and shared by every handler.
type Dependencies struct {
	Repo storage.Repository
	// DB backs the health checks. It is usually the same pool as Repo.
	DB handlers.HealthDB
	// Media is nil when uploads are not configured.
	Media    projects.MediaStore
	Notifier contact.Notifier
	Build    BuildInfo
}

// Router is the HTTP entry point. Close releases the rate limiter.
type Router struct {
	Handler http.Handler
	limiter *middleware.RateLimiter
}

func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Stop()
	}
}

func NewRouter(cfg config.Config, logger zerolog.Logger, deps Dependencies) *Router {
	env := cfg.Environment
	build := deps.Build.withDefaults()

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.JWTIssuer)
	limiter := middleware.NewRateLimiter(cfg.RateLimit)
	auditLogger := audit.NewLogger(logger, limiter.ClientIP)

	maxFile := cfg.Media.MaxUploadSize
	if maxFile <= 0 {
		maxFile = media.DefaultMaxSize
	}

	repo := deps.Repo
	authHandler := handlers.NewAdminAuthHandler(users.NewService(repo.Users(), logger), jwtManager, auditLogger, env)
	projectsHandler := handlers.NewProjectsHandler(
		projects.NewService(repo.Projects(), deps.Media, logger), deps.Media, auditLogger, maxFile, env)
	blogHandler := handlers.NewBlogHandler(blog.NewService(repo.Blog()), auditLogger, env)
	servicesHandler := handlers.NewServicesHandler(offerings.NewService(repo.Offerings(), logger), auditLogger, env)
	testimonialsHandler := handlers.NewTestimonialsHandler(testimonials.NewService(repo.Testimonials()), auditLogger, env)
	contactHandler := handlers.NewContactHandler(
		contact.NewService(repo.Contact(), deps.Notifier, logger), auditLogger, limiter.ClientIP, env)
	newsletterHandler := handlers.NewNewsletterHandler(newsletter.NewService(repo.Newsletter()), env)
	health := handlers.NewHealthChecker(deps.DB, build.Version, build.GitCommit).Health()

	// Per-route stacks. The tier has to be set before Limit reads it.
	publicRead := func(h http.HandlerFunc) http.Handler {
		return stack(h,
			middleware.WithRateLimitTierHandler(middleware.TierPublic),
			limiter.Limit,
			middleware.OptionalAuth(jwtManager, env))
	}
	publicWrite := func(h http.HandlerFunc) http.Handler {
		return stack(h,
			middleware.WithRateLimitTierHandler(middleware.TierPublic),
			limiter.Limit,
			middleware.PublicRequestSize())
	}
	adminRead := func(h http.HandlerFunc) http.Handler {
		return stack(h,
			middleware.WithRateLimitTierHandler(middleware.TierAdmin),
			limiter.Limit,
			middleware.JWTAuth(jwtManager, env))
	}
	adminWrite := func(h http.HandlerFunc) http.Handler {
		return stack(h,
			middleware.WithRateLimitTierHandler(middleware.TierAdmin),
			limiter.Limit,
			middleware.AdminRequestSize(),
			middleware.JWTAuth(jwtManager, env))
	}
	adminUpload := func(h http.HandlerFunc) http.Handler {
		return stack(h,
			middleware.WithRateLimitTierHandler(middleware.TierAdmin),
			limiter.Limit,
			middleware.UploadRequestSize(maxFile, maxUploadFiles),
			middleware.JWTAuth(jwtManager, env))
	}

	mux := http.NewServeMux()

	mux.Handle("GET /health", health)
	mux.Handle("GET /api/health", health)
	mux.Handle("GET /version", versionHandler(build))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.Handle("POST /api/auth/login", stack(http.HandlerFunc(authHandler.Login),
		middleware.WithRateLimitTierHandler(middleware.TierLogin),
		limiter.Limit,
		middleware.PublicRequestSize()))
	mux.Handle("GET /api/auth/me", adminRead(authHandler.Me))

	mux.Handle("GET /api/projects", publicRead(projectsHandler.List))
	mux.Handle("GET /api/projects/{id}", publicRead(projectsHandler.Get))
	mux.Handle("POST /api/projects", adminUpload(projectsHandler.Create))
	mux.Handle("PUT /api/projects/{id}", adminUpload(projectsHandler.Update))
	mux.Handle("DELETE /api/projects/{id}", adminWrite(projectsHandler.Delete))
	mux.Handle("POST /api/projects/upload-image", adminUpload(projectsHandler.UploadImage))
	mux.Handle("POST /api/projects/{id}/gallery", adminUpload(projectsHandler.AddGallery))

	mux.Handle("GET /api/blog", publicRead(blogHandler.List))
	mux.Handle("GET /api/blog/{slug}", publicRead(blogHandler.View))
	mux.Handle("POST /api/blog", adminWrite(blogHandler.Create))
	mux.Handle("PUT /api/blog/{id}", adminWrite(blogHandler.Update))
	mux.Handle("DELETE /api/blog/{id}", adminWrite(blogHandler.Delete))

	mux.Handle("GET /api/services", publicRead(servicesHandler.List))
	mux.Handle("GET /api/services/{id}", publicRead(servicesHandler.Get))
	mux.Handle("POST /api/services", adminWrite(servicesHandler.Create))
	mux.Handle("PUT /api/services/{id}", adminWrite(servicesHandler.Update))
	mux.Handle("DELETE /api/services/{id}", adminWrite(servicesHandler.Delete))

	mux.Handle("GET /api/testimonials", publicRead(testimonialsHandler.List))
	mux.Handle("GET /api/testimonials/{id}", publicRead(testimonialsHandler.Get))
	mux.Handle("POST /api/testimonials", adminWrite(testimonialsHandler.Create))
	mux.Handle("PUT /api/testimonials/{id}", adminWrite(testimonialsHandler.Update))
	mux.Handle("DELETE /api/testimonials/{id}", adminWrite(testimonialsHandler.Delete))

	mux.Handle("POST /api/contact", publicWrite(contactHandler.Submit))
	mux.Handle("POST /api/contact/submit", publicWrite(contactHandler.Submit))
	mux.Handle("GET /api/contact", adminRead(contactHandler.List))
	mux.Handle("GET /api/contact/stats", adminRead(contactHandler.Stats))
	mux.Handle("GET /api/contact/{id}", adminRead(contactHandler.Get))
	mux.Handle("PUT /api/contact/{id}", adminWrite(contactHandler.UpdateStatus))
	mux.Handle("DELETE /api/contact/{id}", adminWrite(contactHandler.Delete))

	mux.Handle("POST /api/newsletter", publicWrite(newsletterHandler.Subscribe))
	mux.Handle("GET /api/newsletter", adminRead(newsletterHandler.List))

	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not Found", nil, env)
	}))

	handler := stack(mux,
		middleware.SecurityHeaders(env == "production"),
		middleware.CORS(cfg.CORS, logger),
		middleware.CorrelationID(logger),
		middleware.Tracing,
		middleware.RequestLogging(logger),
		metrics.HTTPMiddleware,
	)
	return &Router{Handler: handler, limiter: limiter}
}

// stack wraps h so that the first middleware runs first.
func stack(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
