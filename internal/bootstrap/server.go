package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/avilov/drivebook/api"
	"github.com/avilov/drivebook/config"
	"github.com/avilov/drivebook/internal/service/booking"
	"github.com/avilov/drivebook/internal/service/packages"
	"github.com/avilov/drivebook/internal/service/schedule"
	"github.com/gin-gonic/gin"
)

// Run starts the HTTP server and blocks until the context is canceled
// or the server fails.
func Run(ctx context.Context, cfg *config.Config, scheduleSvc schedule.ScheduleUseCase, bookingSvc booking.BookingUseCase, packageSvc packages.PackageUseCase) error {
	router := gin.New()
	router.Use(gin.Recovery())

	api.NewScheduleHandler(scheduleSvc).Register(router.Group("/schedule"))
	api.NewBookingHandler(bookingSvc).Register(router.Group("/bookings"))
	api.NewPackageHandler(packageSvc).Register(router.Group("/packages"))

	if cfg.HTTP.SwaggerDir != "" {
		router.StaticFS("/swagger", http.Dir(cfg.HTTP.SwaggerDir))
		router.GET("/docs", func(c *gin.Context) {
			renderSwaggerUI(c.Writer, "/swagger/drivebook.swagger.json")
		})
	}

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func renderSwaggerUI(w http.ResponseWriter, jsonURL string) {
	html := fmt.Sprintf(`<!DOCTYPE html>
    <html>
    <head>
        <title>API Docs</title>
        <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@latest/swagger-ui.css">
    </head>
    <body>
        <div id="swagger-ui"></div>
        <script src="https://unpkg.com/swagger-ui-dist@latest/swagger-ui-bundle.js"></script>
        <script>
            window.onload = function() {
                window.ui = SwaggerUIBundle({
                    url: "%s",
                    dom_id: '#swagger-ui'
                });
            };
        </script>
    </body>
    </html>`, jsonURL)

	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(html))
}
