package server

import (
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fliqk/internal/ai"
	"fliqk/internal/composer"
	"fliqk/internal/config"
	"fliqk/internal/export"
	"fliqk/internal/handlers"
	"fliqk/internal/handlers/api"
	"fliqk/internal/middleware"
	"fliqk/internal/storage"
)

// Store is everything the routes read and write. *db.DB implements it.
type Store interface {
	middleware.UserLoader
	handlers.Pinger
	api.AccountStore
	api.PostStore
	api.CollectionStore
	api.AdminStore
	composer.PostStore
}

// Deps are the services the routes are built from.
type Deps struct {
	Store     Store
	YAML      *config.YAMLConfig // Optional
	Fetcher   api.PageFetcher
	Analyzer  *ai.Analyzer
	Suggester *ai.Suggester
	Composer  *composer.Service
	Uploader  storage.Uploader // nil disables uploads
	Exporter  *export.Renderer
}

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(d Deps) {
	// Initialize middleware
	auth := middleware.NewAuthMiddleware(d.Store)
	admin := middleware.RequireAdmin

	// Initialize handlers
	probeHandler := handlers.NewProbeHandler(d.Store)
	dashboardHandler := handlers.NewAdminHandler(d.Store, s.Cfg)
	metaHandler := api.NewMetaHandler(d.Fetcher, d.Analyzer, d.Suggester, s.Logger)
	authHandler := api.NewAuthHandler(d.Store, s.Cfg, d.YAML, s.Logger)
	postHandler := api.NewPostHandler(d.Store)
	collectionHandler := api.NewCollectionHandler(d.Store)
	composerHandler := api.NewComposerHandler(d.Composer, api.SessionDrafts{}, s.Logger)
	uploadHandler := api.NewUploadHandler(d.Uploader, s.Logger)
	exportHandler := api.NewExportHandler(d.Store, d.Exporter)
	adminHandler := api.NewAdminHandler(d.Store, s.Logger)
	bookmarkletHandler := api.NewBookmarkletHandler(s.Cfg.BaseURL)

	// Ops
	s.App.Get("/healthz", probeHandler.Liveness)
	s.App.Get("/readyz", probeHandler.Readiness)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Pages
	s.App.Get("/new", auth.RequireAuth, composerHandler.StartFromURL)
	s.App.Get("/admin", auth.RequireAuth, admin, dashboardHandler.Dashboard)

	// Auth
	s.App.Post("/api/auth/register", authHandler.Register)
	s.App.Post("/api/auth/login", authHandler.Login)
	s.App.Post("/api/auth/logout", authHandler.Logout)
	s.App.Get("/api/me", auth.RequireAuth, authHandler.Me)
	s.App.Put("/api/me/preferences", auth.RequireAuth, authHandler.UpdatePreferences)

	// URL analysis
	s.App.Post("/api/analyze", auth.RequireAuth, metaHandler.Analyze)
	s.App.Get("/api/meta", auth.RequireAuth, metaHandler.Meta)
	s.App.Post("/api/suggest-domains", auth.RequireAuth, metaHandler.SuggestDomains)

	// Posts
	s.App.Get("/api/posts", auth.RequireAuth, postHandler.List)
	s.App.Post("/api/posts", auth.RequireAuth, postHandler.Create)
	s.App.Get("/api/posts/:id", auth.RequireAuth, postHandler.Get)
	s.App.Put("/api/posts/:id", auth.RequireAuth, postHandler.Update)
	s.App.Delete("/api/posts/:id", auth.RequireAuth, postHandler.Delete)
	s.App.Post("/api/posts/:id/open", auth.RequireAuth, postHandler.Open)
	s.App.Put("/api/posts/:id/collection", auth.RequireAuth, postHandler.SetCollection)
	s.App.Get("/api/tags", auth.RequireAuth, postHandler.Tags)

	// Collections
	s.App.Get("/api/collections", auth.RequireAuth, collectionHandler.List)
	s.App.Post("/api/collections", auth.RequireAuth, collectionHandler.Create)
	s.App.Put("/api/collections/:id", auth.RequireAuth, collectionHandler.Update)
	s.App.Delete("/api/collections/:id", auth.RequireAuth, collectionHandler.Delete)

	// Composer
	s.App.Get("/api/composer", auth.RequireAuth, composerHandler.Get)
	s.App.Post("/api/composer", auth.RequireAuth, composerHandler.Start)
	s.App.Put("/api/composer", auth.RequireAuth, composerHandler.Update)
	s.App.Delete("/api/composer", auth.RequireAuth, composerHandler.Discard)
	s.App.Post("/api/composer/preview", auth.RequireAuth, composerHandler.Preview)
	s.App.Post("/api/composer/edit", auth.RequireAuth, composerHandler.Edit)
	s.App.Post("/api/composer/save", auth.RequireAuth, composerHandler.Save)
	s.App.Post("/api/composer/share", auth.RequireAuth, composerHandler.Share)

	// Uploads, export, bookmarklet
	s.App.Post("/api/uploads", auth.RequireAuth, uploadHandler.Upload)
	s.App.Get("/api/export", auth.RequireAuth, exportHandler.Export)
	s.App.Get("/api/bookmarklet", bookmarkletHandler.Get)

	// Admin API (admin only, role re-read from the database on every request)
	s.App.Get("/api/admin/users", auth.RequireAuth, admin, adminHandler.ListUsers)
	s.App.Put("/api/admin/users/:id/role", auth.RequireAuth, admin, adminHandler.UpdateRole)
	s.App.Post("/api/admin/users/:id/reset-device", auth.RequireAuth, admin, adminHandler.ResetDevice)
	s.App.Delete("/api/admin/users/:id", auth.RequireAuth, admin, adminHandler.DeleteUser)
	s.App.Get("/api/admin/tokens", auth.RequireAuth, admin, adminHandler.ListTokens)
	s.App.Post("/api/admin/tokens", auth.RequireAuth, admin, adminHandler.CreateTokens)
	s.App.Delete("/api/admin/tokens/:id", auth.RequireAuth, admin, adminHandler.DeleteToken)
}
