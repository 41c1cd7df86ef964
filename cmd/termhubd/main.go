package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/den-labs/termhub/docs" // swagger generated docs
	"github.com/den-labs/termhub/internal/api"
	"github.com/den-labs/termhub/internal/config"
	"github.com/den-labs/termhub/internal/registry"
	"github.com/den-labs/termhub/internal/sshbridge"
	"github.com/den-labs/termhub/internal/webui"
	"github.com/den-labs/termhub/internal/wsbridge"
)

// @title           termhubd
// @version         0.1.0
// @description     Browser- and SSH-accessible terminal multiplexer.

// @host      localhost:8080
// @BasePath  /
func main() {
	if len(os.Args) > 1 && os.Args[1] == "attach" {
		runAttach(os.Args[2:])
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	docs.SwaggerInfo.Host = cfg.HTTPAddr

	reg := registry.New(cfg.Shell)

	for _, name := range cfg.Sessions {
		if _, err := reg.Create(name, cfg.DefaultCols, cfg.DefaultRows); err != nil {
			logrus.WithError(err).WithField("session", name).Warn("failed to preload session")
		}
	}

	ws := wsbridge.New(reg)
	router := setupRouter(reg, ws)

	ssh := sshbridge.New(reg, cfg.SSHPassword)
	sshServer, err := ssh.Server(cfg.SSHAddr, cfg.DataDir)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize SSH server")
	}

	go func() {
		logrus.WithField("addr", cfg.SSHAddr).Info("starting SSH server")
		if err := sshServer.ListenAndServe(); err != nil {
			logrus.WithError(err).Fatal("SSH server failed")
		}
	}()

	logrus.WithField("addr", cfg.HTTPAddr).Info("starting HTTP server")
	if err := router.Run(cfg.HTTPAddr); err != nil {
		logrus.WithError(err).Fatal("HTTP server failed")
	}
}

func setupRouter(reg *registry.Registry, ws *wsbridge.Bridge) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())
	r.Use(logrusMiddleware())

	r.GET("/swagger", func(c *gin.Context) {
		c.Redirect(301, "/swagger/index.html")
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/terminal/ws", func(c *gin.Context) { ws.ServeHTTP(c.Writer, c.Request) })
	r.GET("/terminal", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(200, webui.GetTerminalHTML(c.DefaultQuery("session", "default")))
	})

	api.New(reg).Register(r)

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

func logrusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		c.Next()
		status := c.Writer.Status()
		msg := fmt.Sprintf("%s %s %d", c.Request.Method, path, status)
		if status >= 500 {
			logrus.Error(msg)
		} else {
			logrus.Info(msg)
		}
	}
}
