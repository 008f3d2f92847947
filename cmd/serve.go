package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/docintake/internal/config"
	"github.com/sells-group/docintake/internal/server"
)

var servePort int

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the document upload server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		env, err := initPipeline(ctx, cfg, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		srv, err := newHTTPServer(env.Pipeline, cfg.Server)
		if err != nil {
			return err
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// newHTTPServer builds the upload server for proc from the server config.
func newHTTPServer(proc server.Processor, sc config.ServerConfig) (*http.Server, error) {
	s, err := server.New(proc, server.Options{
		UploadDir:      sc.UploadDir,
		MaxUploadBytes: int64(sc.MaxUploadMB) << 20,
		MaxWorkers:     int64(sc.MaxWorkers),
		KeepUploads:    sc.KeepUploads,
		AllowedOrigins: sc.CORSOrigins,
	})
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", sc.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}
