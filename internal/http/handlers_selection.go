package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"talentboard/internal/filter"
	"talentboard/internal/selection"
	"talentboard/internal/store"
)

func selectionHandler(c *fiber.Ctx) error {
	sel := c.Locals("selection").(*selection.Set)
	ids := sel.IDs()
	return c.JSON(SelectionResponse{Success: true, IDs: ids, Count: len(ids)})
}

// selectionToggleHandler flips one application in the selection. IDs
// unknown to the store are rejected so the selection can never hold a
// record that does not exist.
func selectionToggleHandler(c *fiber.Ctx) error {
	st := c.Locals("store").(*store.Store)
	sel := c.Locals("selection").(*selection.Set)

	var req ToggleSelectionRequest
	if err := c.BodyParser(&req); err != nil || req.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(SelectionResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "id is required",
			IDs:     sel.IDs(),
		})
	}

	if !st.Has(req.ID) {
		return c.Status(fiber.StatusNotFound).JSON(SelectionResponse{
			Success: false,
			Code:    "NOT_FOUND",
			Error:   "application not found in loaded candidate set",
			IDs:     sel.IDs(),
		})
	}

	selected := sel.Toggle(req.ID)
	ids := sel.IDs()
	return c.JSON(SelectionResponse{Success: true, IDs: ids, Count: len(ids), Selected: &selected})
}

// selectionSelectAllHandler selects every application visible under
// the criteria passed as query parameters. Selecting all twice is a
// no-op.
func selectionSelectAllHandler(c *fiber.Ctx) error {
	st := c.Locals("store").(*store.Store)
	sel := c.Locals("selection").(*selection.Set)

	crit, err := criteriaFromQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(SelectionResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   err.Error(),
			IDs:     sel.IDs(),
		})
	}

	sel.SelectAll(filter.VisibleIDs(st.Snapshot(), crit, time.Now().UTC()))
	ids := sel.IDs()
	return c.JSON(SelectionResponse{Success: true, IDs: ids, Count: len(ids)})
}

func selectionClearHandler(c *fiber.Ctx) error {
	sel := c.Locals("selection").(*selection.Set)
	sel.Clear()
	return c.JSON(SelectionResponse{Success: true, IDs: []string{}, Count: 0})
}
