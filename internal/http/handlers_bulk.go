package http

import (
	"github.com/gofiber/fiber/v2"

	"talentboard/internal/selection"
	"talentboard/internal/services"
	"talentboard/internal/stage"
	"talentboard/internal/store"
)

// bulkHandler runs one bulk action. The ID list is snapshotted here,
// at invocation time: selection changes made while the batch is in
// flight do not affect it, and the selection is cleared once the
// batch settles. The response always carries the full summary, even
// when every item failed.
func bulkHandler(c *fiber.Ctx) error {
	st := c.Locals("store").(*store.Store)
	sel := c.Locals("selection").(*selection.Set)
	svc := c.Locals("bulk").(services.BulkService)

	var req BulkOperationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(BulkOperationResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "invalid request body",
		})
	}

	action, err := services.ParseAction(req.Action)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(BulkOperationResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   err.Error(),
		})
	}

	run := services.BulkRequest{
		Action:  action,
		IDs:     req.IDs,
		Tags:    req.Tags,
		Subject: req.Subject,
		Body:    req.Body,
	}
	if len(run.IDs) == 0 {
		run.IDs = sel.IDs()
	}

	if action == services.ActionStatusChange {
		target, err := stage.Parse(req.Stage)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(BulkOperationResponse{
				Success: false,
				Code:    "BAD_REQUEST",
				Error:   err.Error(),
			})
		}
		run.TargetStage = target
	}
	if action == services.ActionTag && len(run.Tags) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(BulkOperationResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "tags are required for the tag action",
		})
	}

	summary, err := svc.Run(c.Context(), run)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(BulkOperationResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   err.Error(),
		})
	}

	// The operation completed: selection is cleared, and whatever
	// survives in the store defines what may be selected next.
	sel.Clear()
	sel.Prune(st.IDs())

	return c.JSON(BulkOperationResponse{Success: true, Summary: &summary})
}
