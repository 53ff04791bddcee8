package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/checkout"
	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/config"
	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/database"
	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/delivery"
	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/handlers"
	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/location"
	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/recommend"
	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/services"
	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/session"
)

func main() {
	// Load configuration
	if err := config.Load(); err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	cfg := config.AppConfig

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	// Initialize tables
	if err := db.InitializeTables(); err != nil {
		log.Fatal("Failed to initialize tables:", err)
	}

	// Initialize Cloudinary
	if cfg.CloudinaryURL != "" {
		if err := services.InitializeCloudinary(cfg.CloudinaryURL); err != nil {
			log.Printf("WARNING: Failed to initialize Cloudinary: %v", err)
		}
	} else {
		log.Printf("CLOUDINARY_URL not set, product image upload disabled")
	}

	// Wire the conversation engine
	geocoder := services.NewNominatimGeocoder(cfg.GeocoderURL, cfg.ShopLat, cfg.ShopLon, cfg.ExternalTimeout)
	resolver := &location.Resolver{
		Geo:          geocoder,
		ShopLat:      cfg.ShopLat,
		ShopLon:      cfg.ShopLon,
		RoadFactor:   cfg.RoadFactor,
		MaxGeocodeKm: cfg.MaxGeocodeKm,
	}

	rules := delivery.Rules{
		TownRadiusKm:    cfg.TownRadiusKm,
		NearbyRadiusKm:  cfg.NearbyRadiusKm,
		NearbyFlatFee:   cfg.NearbyFlatFee,
		FarPerKmRate:    cfg.FarPerKmRate,
		VegOnlyFlatFee:  cfg.VegOnlyFlatFee,
		FarZoneMinOrder: cfg.FarZoneMinOrder,
	}

	graph := &recommend.Graph{
		Edges:           db,
		Products:        db,
		Limit:           cfg.RecommendLimit,
		MinStrength:     cfg.RecommendMinStrength,
		Increment:       cfg.EdgeIncrement,
		InitialStrength: cfg.EdgeInitialStrength,
	}

	notifier := services.NewNotificationService(os.Getenv("STAFF_PUSH_TOKEN"), cfg.ExternalTimeout)
	orchestrator := &checkout.Orchestrator{
		Orders:      db,
		Stock:       db,
		Notifier:    notifier,
		Graph:       graph,
		Now:         time.Now,
		OrderPrefix: "AF",
	}

	sessions := session.NewManager(db, cfg.SessionTTL)
	assistant := services.NewAssistantClient(cfg.AssistantURL, cfg.AssistantKey, cfg.AssistantModel, cfg.ExternalTimeout)
	sender := services.NewWhatsAppClient(cfg.WhatsAppToken, cfg.WhatsAppPhoneID, cfg.ReplyRetries, cfg.ExternalTimeout)

	bot := &handlers.Engine{
		Sessions:        sessions,
		Resolver:        resolver,
		Rules:           rules,
		Graph:           graph,
		Brain:           assistant,
		Orders:          orchestrator,
		Sender:          sender,
		Catalog:         db,
		HistoryDepth:    cfg.HistoryDepth,
		MaxCartLines:    cfg.MaxCartLines,
		MaxLineQuantity: cfg.MaxLineQuantity,
	}

	handlers.InitializeHandlers(db, bot, handlers.NewDeduper(cfg.DedupeWindow))

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.Default()

	// Add CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Allivan Fresh bot is running",
		})
	})

	// WhatsApp webhook
	router.GET("/webhook", handlers.VerifyWebhook)
	router.POST("/webhook", handlers.ReceiveWebhook)

	// API routes
	api := router.Group("/api/v1")
	{
		products := api.Group("/products")
		{
			products.GET("/", handlers.GetProducts)
			products.POST("/", handlers.CreateProduct)
			products.PUT("/:id", handlers.UpdateProduct)
			products.POST("/:id/image", handlers.UploadProductImage)
		}

		api.GET("/orders", handlers.GetOrders)
		api.GET("/track/:orderNumber", handlers.TrackOrder)
	}

	// Start server
	log.Printf("Starting Allivan Fresh bot on 0.0.0.0:%s", cfg.ServerPort)
	log.Fatal(http.ListenAndServe("0.0.0.0:"+cfg.ServerPort, c.Handler(router)))
}
