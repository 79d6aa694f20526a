package controllers

import (
	"errors"

	"almanara_go/apiclient"

	"github.com/gofiber/fiber/v2"
)

// upstreamError maps academy API failures to a gateway response. Upstream
// 4xx/5xx keep their status and message; transport failures surface as 502.
func upstreamError(c *fiber.Ctx, err error) error {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return c.Status(apiErr.Status).JSON(fiber.Map{
			"error": apiErr.Message,
		})
	}
	if errors.Is(err, apiclient.ErrTransport) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Academy service is unreachable",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}
