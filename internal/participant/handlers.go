package participant

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the participant-scoped endpoints.
func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Get("/:participantId", func(c *fiber.Ctx) error {
		p, err := svc.Get(c.Context(), c.Params("participantId"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{"participant": p})
	})

	r.Get("/:participantId/confirm", func(c *fiber.Ctx) error {
		target, err := svc.Confirm(c.Context(), c.Params("participantId"))
		if err != nil {
			return httpError(err)
		}
		return c.Redirect(target, fiber.StatusFound)
	})
}

// RegisterTripRoutes mounts the trip-scoped participant endpoints on the
// trips group.
func RegisterTripRoutes(r fiber.Router, svc *Service) {
	r.Post("/:tripId/invites", func(c *fiber.Ctx) error {
		var body struct {
			Email string `json:"email"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		p, err := svc.Invite(c.Context(), c.Params("tripId"), body.Email)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"participant_id": p.ID})
	})

	r.Get("/:tripId/participants", func(c *fiber.Ctx) error {
		participants, err := svc.List(c.Context(), c.Params("tripId"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{"participants": participants})
	})
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrTripNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidEmail):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
