package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"wedding/auth"
	"wedding/config"
	"wedding/db"
	"wedding/handlers"
	"wedding/messaging"
	"wedding/models"
	"wedding/processing"
	"wedding/storage"
	"wedding/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-gonic/autotls"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const (
	sessionCookieName     = "token"
	sessionExpirationTime = 90 * 86400
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the background face matching",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("bind", "", "Listen address, overrides BIND_ADDRESS")
}

func runServe(cmd *cobra.Command, args []string) error {
	if bind, _ := cmd.Flags().GetString("bind"); bind != "" {
		config.BIND_ADDRESS = bind
	}
	db.Init()
	models.Init()
	storage.Init()

	recognizer := newRecognizer()
	defer recognizer.Close()
	processor := processing.NewProcessor(recognizer, config.FACE_MATCH_THRESHOLD)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	waitProcessing := func() {}
	if config.FACE_DETECT {
		waitProcessing = startProcessing(ctx, processor, time.Duration(config.PROCESSING_INTERVAL)*time.Second)
	}

	h := handlers.New(recognizer, processor, messaging.NewWhatsApp(), config.FACE_MATCH_THRESHOLD)
	router := newRouter(h)

	var err error
	if config.TLS_DOMAINS != "" {
		err = autotls.Run(router, strings.Split(config.TLS_DOMAINS, ",")...)
	} else {
		err = runWithContext(ctx, router)
	}
	log.Printf("Server stopped: %v", err)
	// The recognizer is closed on return, the background pass must be done with it by then
	stop()
	waitProcessing()
	return err
}

// startProcessing runs background face matching until ctx is done. The returned func waits for it to stop.
func startProcessing(ctx context.Context, processor *processing.Processor, interval time.Duration) (wait func()) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		processor.Start(ctx, interval)
	}()
	return wg.Wait
}

func newRouter(h *handlers.Handlers) *gin.Engine {
	if !config.DEBUG_MODE {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	_ = router.SetTrustedProxies([]string{})
	if config.DEBUG_MODE {
		router.Use(utils.ErrorLogMiddleware)
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.PUBLIC_URL},
		AllowMethods:     []string{"GET", "PUT", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           30 * 24 * time.Hour,
	}))
	cookieStore := gormsessions.NewStore(db.Instance, true, []byte(config.SESSION_KEY))
	cookieStore.Options(sessions.Options{Path: "/", MaxAge: sessionExpirationTime, HttpOnly: true})
	router.Use(sessions.Sessions(sessionCookieName, cookieStore))
	if !config.DEBUG_MODE {
		// Photos are already compressed
		router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/photo/fetch", "/w/invite/"})))
	}
	router.Use((&utils.CacheRouter{CacheTime: utils.CacheNoCache}).Handler()) // No cache by default, individual end-points can override that
	h.Register(&auth.Router{Base: router})
	return router
}
