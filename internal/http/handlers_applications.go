package http

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"talentboard/internal/backend"
	"talentboard/internal/filter"
	"talentboard/internal/metrics"
	"talentboard/internal/selection"
	"talentboard/internal/services"
	"talentboard/internal/stage"
	"talentboard/internal/store"
)

// loadHandler fetches the candidate set for a job from the upstream
// ATS, replacing the in-memory set. Switching jobs clears the
// selection. On upstream failure the previous set stays visible and
// the response says so.
func loadHandler(c *fiber.Ctx) error {
	st := c.Locals("store").(*store.Store)
	sel := c.Locals("selection").(*selection.Set)

	jobID := c.Params("jobId")
	if jobID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(LoadResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "jobId is required",
		})
	}

	previousJob := st.JobID()
	count, err := st.Load(c.Context(), jobID)
	metrics.RecordLoad(err == nil)
	if err != nil {
		var fe *backend.FetchError
		stale := errors.As(err, &fe) && previousJob != ""
		return c.Status(fiber.StatusBadGateway).JSON(LoadResponse{
			Success: false,
			Code:    "UPSTREAM_ERROR",
			Error:   err.Error(),
			JobID:   previousJob,
			Stale:   stale,
		})
	}

	sel.Clear()

	return c.JSON(LoadResponse{Success: true, JobID: jobID, Count: count})
}

// criteriaFromQuery decodes the filter criteria the dashboard passes
// as query parameters.
func criteriaFromQuery(c *fiber.Ctx) (filter.Criteria, error) {
	var crit filter.Criteria

	crit.Text = c.Query("text")

	stageQ, err := filter.ParseStageCriterion(c.Query("stage"))
	if err != nil {
		return crit, err
	}
	crit.Stage = stageQ

	if raw := c.Query("tags"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				crit.Tags = append(crit.Tags, t)
			}
		}
	}

	if raw := c.Query("experienceMin"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return crit, errors.New("invalid experienceMin value")
		}
		crit.ExperienceMin = &v
	}
	if raw := c.Query("experienceMax"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return crit, errors.New("invalid experienceMax value")
		}
		crit.ExperienceMax = &v
	}

	r, ok := filter.ParseDateRange(c.Query("dateRange"))
	if !ok {
		return crit, errors.New("invalid dateRange value; expected all, today, week, month, or quarter")
	}
	crit.DateRange = r

	return crit, nil
}

// listApplicationsHandler returns the filtered, ordered view of the
// loaded candidate set plus per-stage counts.
func listApplicationsHandler(c *fiber.Ctx) error {
	st := c.Locals("store").(*store.Store)

	jobID := c.Params("jobId")
	if loaded := st.JobID(); loaded != jobID {
		return c.Status(fiber.StatusConflict).JSON(ListApplicationsResponse{
			Success: false,
			Code:    "JOB_NOT_LOADED",
			Error:   "job " + jobID + " is not the loaded candidate set; call load first",
		})
	}

	crit, err := criteriaFromQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ListApplicationsResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   err.Error(),
		})
	}

	visible := filter.Visible(st.Snapshot(), crit, time.Now().UTC())

	return c.JSON(ListApplicationsResponse{
		Success:      true,
		JobID:        jobID,
		Applications: visible,
		Total:        len(visible),
		StageCounts:  st.StageCounts(),
	})
}

func getApplicationHandler(c *fiber.Ctx) error {
	st := c.Locals("store").(*store.Store)

	app, err := st.Get(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ApplicationResponse{
			Success: false,
			Code:    "NOT_FOUND",
			Error:   "application not found",
		})
	}

	return c.JSON(ApplicationResponse{Success: true, Application: &app})
}

// transitionHandler moves one application to a target stage. Both the
// stage buttons and the Kanban drag-drop land here.
func transitionHandler(c *fiber.Ctx) error {
	svc := c.Locals("transition").(services.TransitionService)

	var req TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ApplicationResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "invalid request body",
		})
	}

	target, err := stage.Parse(req.Stage)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ApplicationResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   err.Error(),
		})
	}

	app, err := svc.RequestTransition(c.Context(), c.Params("id"), target)
	if err != nil {
		return transitionError(c, err)
	}

	return c.JSON(ApplicationResponse{Success: true, Application: &app})
}

// transitionError maps the service error taxonomy onto HTTP codes.
func transitionError(c *fiber.Ctx, err error) error {
	var te *stage.TransitionError
	switch {
	case errors.As(err, &te):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ApplicationResponse{
			Success: false,
			Code:    "ILLEGAL_TRANSITION",
			Error:   te.Error(),
		})
	case errors.Is(err, store.ErrOperationInProgress):
		return c.Status(fiber.StatusConflict).JSON(ApplicationResponse{
			Success: false,
			Code:    "OPERATION_IN_PROGRESS",
			Error:   "another operation is still pending for this application",
		})
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ApplicationResponse{
			Success: false,
			Code:    "NOT_FOUND",
			Error:   "application not found",
		})
	default:
		// Upstream rejection or transport failure: the optimistic
		// update has already been rolled back by the service.
		return c.Status(fiber.StatusBadGateway).JSON(ApplicationResponse{
			Success: false,
			Code:    "UPSTREAM_ERROR",
			Error:   err.Error(),
		})
	}
}
