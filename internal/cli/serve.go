package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/suPer8Hu/chat-app/internal/httpapi"
	"github.com/suPer8Hu/chat-app/internal/httpapi/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat page on HTTP_ADDR",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		conv, lister, err := newConversation(ctx, historyProvider)
		if err != nil {
			return err
		}
		defer conv.History().Close()

		gin.SetMode(gin.ReleaseMode)
		h := handlers.NewHandler(conv, store, lister, logger)
		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           httpapi.NewRouter(h, logger),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errs := make(chan error, 1)
		go func() {
			logger.Info("chat page available", "url", "http://"+cfg.HTTPAddr+"/")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- err
			}
			close(errs)
		}()

		select {
		case err := <-errs:
			return err
		case <-ctx.Done():
		}

		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

var historyProvider string

func init() {
	for _, c := range []*cobra.Command{serveCmd, chatCmd, historyCmd} {
		c.Flags().StringVar(&historyProvider, "provider", "", "history provider (sqlite, postgres, mysql, redis); defaults to database_provider")
	}
}
