package telegram

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 10 * time.Second

// Handler serves the webhook endpoint and a health check.
func (a *Adapter) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Post(a.webhookPath(), a.handleWebhook)

	return r
}

func (a *Adapter) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := a.api.HandleUpdate(r)
	if err != nil {
		a.logger.Warn("rejected webhook payload",
			"request_id", middleware.GetReqID(r.Context()),
			"error", err)
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}

	select {
	case a.webhook <- *update:
		w.WriteHeader(http.StatusOK)
	case <-r.Context().Done():
		// Telegram redelivers unacknowledged updates.
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}
}

// webhookPath is the path component of the configured webhook URL.
func (a *Adapter) webhookPath() string {
	u, err := url.Parse(a.cfg.WebhookURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return defaultWebhookPath
	}
	return u.Path
}

// Serve runs the HTTP server on the configured listen address until ctx is
// cancelled.
func (a *Adapter) Serve(ctx context.Context) error {
	if a.cfg.Listen == "" {
		return nil
	}

	srv := &http.Server{
		Addr:              a.cfg.Listen,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if a.certs != nil {
		cert, err := a.certs.GetOrCreateCertificate()
		if err != nil {
			return fmt.Errorf("failed to load webhook certificate: %w", err)
		}
		srv.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening",
			"addr", a.cfg.Listen,
			"webhook_path", a.webhookPath(),
			"tls", srv.TLSConfig != nil)
		if srv.TLSConfig != nil {
			errCh <- srv.ListenAndServeTLS("", "")
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		return nil
	}
}
