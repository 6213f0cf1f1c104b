package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/FelixBrandt/PayFox/app/repository"
	"github.com/FelixBrandt/PayFox/internal/pkg/billing"
	"github.com/FelixBrandt/PayFox/internal/pkg/cache"
	"github.com/FelixBrandt/PayFox/internal/pkg/database"
	"github.com/FelixBrandt/PayFox/internal/pkg/env"
	"github.com/FelixBrandt/PayFox/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	// The remote billing client is constructed once and injected; no
	// process-wide key mutation.
	api := billing.NewStripeAPIFromKey(env.GetEnv("STRIPE_SECRET_KEY", ""))
	svc := billing.NewServiceFromDB(database.GetDB(), api)

	app := fiber.New(fiber.Config{
		AppName: "PayFox",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// ROUTER
	router.InstallRouter(app, svc)

	return app
}
