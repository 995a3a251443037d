// Package dashboard serves the ribbon lot log as a web UI and a JSON API.
package dashboard

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/ribbonlog/internal/confirm"
	"github.com/zulandar/ribbonlog/internal/form"
	"github.com/zulandar/ribbonlog/internal/lot"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed assets
var assetsFS embed.FS

// StartOpts holds configuration for the dashboard server.
type StartOpts struct {
	Store          *lot.Store
	Port           int
	Out            io.Writer
	Site           string
	MaxUploadBytes int64
}

// Start launches the dashboard HTTP server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Store == nil {
		return fmt.Errorf("dashboard: store is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	router, err := NewRouter(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Dashboard running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// NewRouter builds the gin engine with templates and routes registered.
func NewRouter(opts StartOpts) (*gin.Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("dashboard: store is required")
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = form.DefaultMaxAttachment
	}
	if opts.Site == "" {
		opts.Site = "Ribbon"
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = opts.MaxUploadBytes

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	h := &handler{
		store:     opts.Store,
		site:      opts.Site,
		maxUpload: opts.MaxUploadBytes,
		confirms:  confirm.NewRegistry(),
	}
	registerRoutes(router, h)
	return router, nil
}

// parseTemplates loads the embedded HTML templates.
func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}
