package main

import (
	"context"
	"image"
	"image/color"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kiosk/internal/apiclient"
	"kiosk/internal/capture"
	"kiosk/internal/config"
	"kiosk/internal/httpmiddleware"
	"kiosk/internal/metrics"
	"kiosk/internal/push"
	"kiosk/internal/recognition"
	"kiosk/internal/render"
	"kiosk/internal/session"
	"kiosk/internal/status"
	"kiosk/internal/throttle"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("kiosk failed: %v", err)
	}
}

func run(cfg config.App) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := apiclient.New(cfg.BackendURL, cfg.DeviceID)
	if err := api.RegisterDevice(ctx); err != nil {
		log.Printf("warning: device registration failed, will retry on demand: %v", err)
	}

	channel, err := newChannel(ctx, cfg, api)
	if err != nil {
		return err
	}
	defer channel.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	source := newSource(cfg)
	view := &render.ScreenView{Modals: render.LogModals{}}

	queue := recognition.NewQueue(cfg.CooldownWindow)
	presenter := recognition.NewPresenter(queue, view, cfg.AnnounceDuration)
	thr := throttle.New(source, channel, cfg.MinFrameInterval, cfg.FrameQuality, m)
	reconciler := status.NewReconciler(render.LogIndicator{}, cfg.StatusRevertAfter)

	ctrl := session.NewController(session.Config{
		Channel:    channel,
		API:        api,
		Queue:      queue,
		Presenter:  presenter,
		Throttle:   thr,
		Reconciler: reconciler,
		Metrics:    m,
		Tick:       cfg.TickInterval,
	})

	go func() {
		if err := ctrl.Run(ctx); err != nil {
			log.Printf("session loop exited: %v", err)
		}
	}()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		snap, err := ctrl.Snapshot(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "running": snap.Running})
	})

	v1 := r.Group("/v1")

	v1.POST("/session/start", func(c *gin.Context) {
		if err := ctrl.Start(c.Request.Context()); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "attendance started"})
	})

	v1.POST("/session/stop", func(c *gin.Context) {
		if err := ctrl.Stop(c.Request.Context()); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "attendance stopped"})
	})

	v1.POST("/session/dismiss", func(c *gin.Context) {
		if err := ctrl.Dismiss(c.Request.Context()); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "dismissed"})
	})

	v1.GET("/session/status", func(c *gin.Context) {
		snap, err := ctrl.Snapshot(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, snap)
	})

	// Attendance breakdown for the subject currently on screen.
	v1.GET("/session/calendar", func(c *gin.Context) {
		snap, err := ctrl.Snapshot(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, render.MonthGrid(snap.AttendedDates, time.Now()))
	})

	v1.GET("/users", func(c *gin.Context) {
		users, err := api.Users(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users})
	})

	v1.POST("/users", func(c *gin.Context) {
		var req struct {
			Name       string `json:"name" binding:"required"`
			RollNumber string `json:"roll_number" binding:"required"`
			Department string `json:"department" binding:"required"`
			Role       string `json:"role" binding:"required"`
			Frame      string `json:"frame" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		err := api.RegisterUser(c.Request.Context(), apiclient.RegisterRequest{
			Name:       req.Name,
			RollNumber: req.RollNumber,
			Department: req.Department,
			Role:       req.Role,
			FrameData:  req.Frame,
		})
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "user registered"})
	})

	v1.DELETE("/users/:id", func(c *gin.Context) {
		if err := api.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
	})

	v1.GET("/users/:id/history", func(c *gin.Context) {
		history, err := api.UserHistory(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, history)
	})

	v1.GET("/history", func(c *gin.Context) {
		records, err := api.History(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"history": records})
	})

	v1.GET("/export", func(c *gin.Context) {
		data, err := api.ExportCSV(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="attendance_export.csv"`)
		c.Data(http.StatusOK, "text/csv", data)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.AdminPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("kiosk admin listening on :%s", cfg.AdminPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("admin server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("admin server forced shutdown: %v", err)
	}

	log.Println("kiosk exited")
	return nil
}

// newChannel selects the push transport. The websocket handshake carries the
// device token when one is available.
func newChannel(ctx context.Context, cfg config.App, api *apiclient.Client) (push.Channel, error) {
	switch cfg.PushBackend {
	case "memory":
		return push.NewInMemory(64), nil
	case "redis":
		return push.NewRedisChannel(push.NewRedisClient(cfg.RedisAddr), cfg.PushInbound, cfg.PushOutbound), nil
	default:
		header := http.Header{}
		if token := api.Token(); token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
		return push.DialWebSocket(ctx, cfg.PushURL, header)
	}
}

// newSource picks the camera seam. Real camera drivers implement
// capture.Source; the synthetic source keeps the pipeline exercisable on
// hosts without video hardware.
func newSource(cfg config.App) capture.Source {
	src := &capture.StaticSource{}
	if cfg.FrameSource == "synthetic" {
		img := image.NewRGBA(image.Rect(0, 0, 320, 240))
		for y := 0; y < 240; y++ {
			for x := 0; x < 320; x++ {
				img.Set(x, y, color.Gray{Y: uint8((x + y) % 256)})
			}
		}
		src.SetFrame(img)
	} else {
		log.Println("no camera source configured; frames idle until one is attached")
	}
	return src
}
