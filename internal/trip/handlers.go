package trip

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/", func(c *fiber.Ctx) error {
		var body struct {
			Destination    string    `json:"destination"`
			StartAt        time.Time `json:"start_at"`
			EndAt          time.Time `json:"end_at"`
			OwnerName      string    `json:"owner_name"`
			OwnerEmail     string    `json:"owner_email"`
			EmailsToInvite []string  `json:"emails_to_invite"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		t, err := svc.CreateTrip(c.Context(), CreateTripInput{
			Destination:    body.Destination,
			StartAt:        body.StartAt,
			EndAt:          body.EndAt,
			OwnerName:      body.OwnerName,
			OwnerEmail:     body.OwnerEmail,
			EmailsToInvite: body.EmailsToInvite,
		})
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"trip_id": t.ID})
	})

	r.Get("/:tripId", func(c *fiber.Ctx) error {
		t, err := svc.GetTrip(c.Context(), c.Params("tripId"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{"trip": t})
	})

	r.Put("/:tripId", func(c *fiber.Ctx) error {
		var body struct {
			Destination string    `json:"destination"`
			StartAt     time.Time `json:"start_at"`
			EndAt       time.Time `json:"end_at"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		t, err := svc.UpdateTrip(c.Context(), c.Params("tripId"), UpdateTripInput{
			Destination: body.Destination,
			StartAt:     body.StartAt,
			EndAt:       body.EndAt,
		})
		if err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{"trip_id": t.ID})
	})

	r.Delete("/:tripId", func(c *fiber.Ctx) error {
		if err := svc.DeleteTrip(c.Context(), c.Params("tripId")); err != nil {
			return httpError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/:tripId/confirm", func(c *fiber.Ctx) error {
		target, err := svc.ConfirmTrip(c.Context(), c.Params("tripId"))
		if err != nil {
			return httpError(err)
		}
		return c.Redirect(target, fiber.StatusFound)
	})

	r.Post("/:tripId/activities", func(c *fiber.Ctx) error {
		var body struct {
			Title    string    `json:"title"`
			OccursAt time.Time `json:"occurs_at"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		a, err := svc.CreateActivity(c.Context(), c.Params("tripId"), body.Title, body.OccursAt)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"activity_id": a.ID})
	})

	r.Get("/:tripId/activities", func(c *fiber.Ctx) error {
		activities, err := svc.ListActivities(c.Context(), c.Params("tripId"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{"activities": activities})
	})

	r.Post("/:tripId/links", func(c *fiber.Ctx) error {
		var body struct {
			Title string `json:"title"`
			URL   string `json:"url"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		l, err := svc.CreateLink(c.Context(), c.Params("tripId"), body.Title, body.URL)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"link_id": l.ID})
	})

	r.Get("/:tripId/links", func(c *fiber.Ctx) error {
		links, err := svc.ListLinks(c.Context(), c.Params("tripId"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{"links": links})
	})
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidDestination),
		errors.Is(err, ErrInvalidStartDate),
		errors.Is(err, ErrInvalidEndDate),
		errors.Is(err, ErrInvalidOwner),
		errors.Is(err, ErrInvalidInviteeEmail),
		errors.Is(err, ErrInvalidTitle),
		errors.Is(err, ErrInvalidActivityDate),
		errors.Is(err, ErrInvalidURL):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
