package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/customer-api/internal/api"
	"github.com/hypernova-labs/customer-api/internal/cache"
	"github.com/hypernova-labs/customer-api/internal/config"
	"github.com/hypernova-labs/customer-api/internal/database"
	"github.com/hypernova-labs/customer-api/internal/services"
	"github.com/hypernova-labs/customer-api/internal/validation"
	"github.com/sirupsen/logrus"
)

func main() {
	// Cargar configuración
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	// Configurar logging
	logger := setupLogger(cfg)
	logger.Info("Starting Customer API...")

	// Configurar modo de Gin
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Registrar reglas de validación propias (cpf, fecha de nacimiento)
	if err := validation.Register(); err != nil {
		logger.Fatalf("Error registering validations: %v", err)
	}

	// Conectar a la base de datos
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatalf("Error connecting to database: %v", err)
	}
	defer db.Close()

	// Crear el esquema si no existe
	if err := database.Migrate(db); err != nil {
		logger.Fatalf("Error migrating database schema: %v", err)
	}

	// Conectar a Redis; sin Redis el servicio opera sin cache
	redis, err := database.ConnectRedis(cfg)
	if err != nil {
		logger.Warnf("Error connecting to Redis, running without cache: %v", err)
		redis = nil
	} else {
		defer redis.Close()
	}

	// Inicializar el cache de clientes
	var customerCache *cache.CustomerCache
	if redis != nil {
		customerCache = cache.New(redis, cfg.Cache.TTL, logger)
	}

	// Inicializar servicios
	customerService := services.NewCustomerService(db, customerCache, logger)

	// Inicializar API
	apiHandler := api.NewAPI(customerService, cfg, logger)

	// Configurar router
	router := setupRouter(apiHandler, cfg, db, redis)

	// Crear servidor HTTP
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Canal para señales de terminación
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Iniciar servidor en goroutine
	go func() {
		logger.Infof("Server starting on %s:%s", cfg.Server.Host, cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	// Esperar señal de terminación
	<-quit
	logger.Info("Shutting down server...")

	// Contexto con timeout para shutdown graceful
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown graceful del servidor
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// setupLogger configura el logger según la configuración
func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	// Configurar nivel de log
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Configurar formato
	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

// setupRouter configura el router principal
func setupRouter(apiHandler *api.API, cfg *config.Config, db *database.DB, redis *database.Redis) *gin.Engine {
	router := gin.New()

	// Middleware global
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(api.RequestID())

	// Middleware de CORS para desarrollo
	if cfg.IsDevelopment() {
		router.Use(func(c *gin.Context) {
			c.Header("Access-Control-Allow-Origin", "*")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Request-ID")

			if c.Request.Method == "OPTIONS" {
				c.AbortWithStatus(204)
				return
			}

			c.Next()
		})
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		dbStatus := "ok"
		if err := db.HealthCheck(); err != nil {
			dbStatus = "down"
		}

		cacheStatus := "disabled"
		if redis != nil {
			cacheStatus = "ok"
			if err := redis.HealthCheck(); err != nil {
				cacheStatus = "down"
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "customer-api",
			"database":  dbStatus,
			"cache":     cacheStatus,
		})
	})

	// Rutas de clientes. Las variantes /new y /update/{id} se conservan
	// junto con las rutas REST planas; ambas llegan al mismo handler.
	customers := router.Group("/customers")
	{
		customers.GET("", apiHandler.ListCustomers)
		customers.GET("/:id", apiHandler.GetCustomer)
		customers.POST("", apiHandler.CreateCustomer)
		customers.POST("/new", apiHandler.CreateCustomer)
		customers.PUT("/:id", apiHandler.UpdateCustomer)
		customers.PUT("/update/:id", apiHandler.UpdateCustomer)

		// Solo la eliminación está protegida
		customers.DELETE("/:id", apiHandler.AdminAuthMiddleware(), apiHandler.DeleteCustomer)
	}

	return router
}
