package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sitecms/pkg/config"
	"sitecms/pkg/content"
	"sitecms/pkg/handlers"
	"sitecms/pkg/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the editing API server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	cms, err := services.LoadCMSConfig(config.CMSConfigPath)
	if err != nil {
		return err
	}
	locs, err := locales(cms.Locales)
	if err != nil {
		return err
	}
	mediaDir, publicPath := config.MediaDir, config.MediaPublicPath
	if cms.MediaFolder != "" {
		mediaDir = cms.MediaFolder
	}
	if cms.PublicFolder != "" {
		publicPath = cms.PublicFolder
	}

	backend, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer backend.Close()
	store := services.NewCachedStore(backend)

	media, err := services.NewMediaStore(mediaDir, publicPath, logger.Named("media"))
	if err != nil {
		return err
	}

	var notifier services.Notifier
	if config.RedisAddr != "" {
		notifier, err = services.NewRedisNotifier(ctx, config.RedisAddr, config.RedisChannel, logger.Named("notify"))
		if err != nil {
			return err
		}
	} else {
		notifier = services.NewLocalNotifier(logger.Named("notify"))
	}
	defer notifier.Close()

	sessions := services.NewSessionManager(store, notifier, &content.Editor{Uploader: media},
		locs, config.SessionIdleTimeout, logger.Named("sessions"))
	if err := sessions.Start(ctx); err != nil {
		return err
	}

	var git *services.GitRepo
	if config.StoreDriver == "file" {
		if _, err := os.Stat(filepath.Join(config.StoreDSN, ".git")); err == nil {
			git = &services.GitRepo{
				Dir:         config.StoreDSN,
				Remote:      config.GitRemote,
				Branch:      config.GitBranch,
				AuthorName:  config.GitUserName,
				AuthorEmail: config.GitUserEmail,
				Log:         logger.Named("git"),
				OnSync:      func() { sessions.ResyncAll(ctx) },
			}
		}
	}

	secret := config.SessionSecret
	if secret == "" {
		// logins do not survive a restart
		secret = uuid.NewString()
		logger.Warn("SESSION_SECRET not set, using a random one")
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(&handlers.Handler{
		Store:           store,
		Sessions:        sessions,
		Media:           media,
		Git:             git,
		CMS:             cms,
		Locales:         locs,
		Log:             logger.Named("http"),
		AuthDisabled:    config.AuthDisabled,
		SessionSecret:   secret,
		MediaPublicPath: publicPath,
	})
	if config.AuthDisabled {
		logger.Warn("authentication disabled")
	}

	srv := &http.Server{Addr: config.Addr, Handler: router}
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", config.Addr), zap.Any("locales", locs))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
