package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/waconnect/storefront-backend/cache"
	"github.com/waconnect/storefront-backend/events"
	"github.com/waconnect/storefront-backend/gateways"
	"github.com/waconnect/storefront-backend/handlers"
	"github.com/waconnect/storefront-backend/models"
	"github.com/waconnect/storefront-backend/payments"
	"github.com/waconnect/storefront-backend/store"
)

func main() {
	_ = godotenv.Load()

	// Database connection
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := db.AutoMigrate(&models.Business{}, &models.Order{}, &models.PaymentTransaction{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	appBaseURL := os.Getenv("APP_BASE_URL")
	if appBaseURL == "" {
		appBaseURL = "http://localhost:8080"
	}

	// Optional business cache
	var businessCache *cache.BusinessCache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		businessCache = cache.NewBusinessCache(addr)
	}

	// Optional payment event producer
	var producer *events.Producer
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		producer, err = events.NewProducer(strings.Split(brokers, ","))
		if err != nil {
			log.Printf("kafka unavailable, payment events disabled: %v", err)
		}
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	orch := payments.NewOrchestrator(
		store.NewGormTransactionStore(db),
		store.NewOrderStore(db),
		producer,
		gateways.NewRazorpayAdapter(httpClient),
		gateways.NewStripeAdapter(httpClient, appBaseURL),
		gateways.NewPayUAdapter(appBaseURL),
		gateways.NewPhonePeAdapter(appBaseURL),
	)

	businesses := store.NewBusinessStore(db)
	paymentHandler := handlers.NewPaymentHandler(businesses, orch)
	deliveryHandler := handlers.NewDeliveryHandler(businesses, businessCache)

	app := fiber.New()
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
		AllowHeaders: "Content-Type, Authorization, X-Verify",
	}))

	api := app.Group("/api")
	api.Get("/health", paymentHandler.Health)

	public := api.Group("/public/businesses/:subdomain")
	public.Get("/", deliveryHandler.GetBusiness)
	public.Post("/calculate-delivery", deliveryHandler.CalculateDelivery)
	public.Post("/payments/:gateway/create", paymentHandler.CreatePayment)
	public.Post("/payments/razorpay/verify", paymentHandler.VerifyRazorpay)
	public.Get("/payments/stripe/status/:sessionId", paymentHandler.StripeStatus)
	public.Get("/payments/:transactionId/status", paymentHandler.TransactionStatus)

	api.Post("/webhook/phonepe/:subdomain", paymentHandler.PhonePeWebhook)
	api.Post("/webhook/payu/:subdomain", paymentHandler.PayUWebhook)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	fmt.Println("Server running on http://localhost:" + port)
	log.Fatal(app.Listen(":" + port))
}
