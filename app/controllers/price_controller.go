package controllers

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/FelixBrandt/PayFox/internal/pkg/billing"
	"github.com/FelixBrandt/PayFox/internal/pkg/cache"
)

const (
	priceCacheKey = "stripe:prices:active"
	priceCacheTTL = 5 * time.Minute
)

// PriceController serves the Redis-cached price catalog.
type PriceController struct {
	svc *billing.Service
}

// NewPriceController creates the price controller.
func NewPriceController(svc *billing.Service) *PriceController {
	return &PriceController{svc: svc}
}

// HandleList returns the active prices with product data, cached with a TTL.
func (pc *PriceController) HandleList(c *fiber.Ctx) error {
	if cached, err := cache.Get(priceCacheKey); err == nil && cached != "" {
		var prices []billing.PriceInfo
		if err := json.Unmarshal([]byte(cached), &prices); err == nil {
			return c.JSON(fiber.Map{"prices": prices, "cached": true})
		}
	}

	prices, err := pc.svc.ListPrices(c.Context())
	if err != nil {
		return respondServiceError(c, err)
	}

	if payload, err := json.Marshal(prices); err == nil {
		if err := cache.Set(priceCacheKey, string(payload), priceCacheTTL); err != nil {
			log.Printf("[Prices] cache write failed: %v", err)
		}
	}

	return c.JSON(fiber.Map{"prices": prices, "cached": false})
}
