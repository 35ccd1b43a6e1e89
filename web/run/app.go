package webapp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tiaanhavenga/DriveCatalogue/app"
)

// WebApp exposes the catalogue engine over a local JSON API. It is meant
// to sit on a loopback address as the backend of the desktop UI or
// scripts on the same machine.
type WebApp struct {
	Engine *app.Engine
	Addr   string
	Log    *zap.SugaredLogger
}

func NewWebApp(engine *app.Engine, addr string, log *zap.SugaredLogger) *WebApp {
	return &WebApp{Engine: engine, Addr: addr, Log: log}
}

// Serve blocks until ctx is cancelled, then shuts the server down
// gracefully.
func (wa *WebApp) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         wa.Addr,
		Handler:      wa.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		wa.Log.Infow("server listening", "addr", wa.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	wa.Log.Infow("server stopped")
	return nil
}
