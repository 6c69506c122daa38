package controller

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"ai-meeting-be/internal/dto"
	"ai-meeting-be/internal/entity"
	"ai-meeting-be/internal/pkg/serverutils"
	"ai-meeting-be/internal/service"
)

type IMeetingController interface {
	RegisterRoutes(r fiber.Router)
	EndMeeting(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
}

type meetingController struct {
	publisherService  service.IPublisherService
	processingService service.IProcessingService
}

func NewMeetingController(
	publisherService service.IPublisherService,
	processingService service.IProcessingService,
) IMeetingController {
	return &meetingController{
		publisherService:  publisherService,
		processingService: processingService,
	}
}

func (c *meetingController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/meeting/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("end", c.EndMeeting)
	h.Get(":id/status", c.Status)
}

// EndMeeting enqueues post-meeting processing. The heavy work happens on the
// job bus; this returns as soon as the job is accepted.
func (c *meetingController) EndMeeting(ctx *fiber.Ctx) error {
	var req dto.EndMeetingRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	msg := dto.MeetingEndedMessage{
		MeetingId:    req.MeetingId,
		RoomName:     req.RoomName,
		Transcripts:  req.Transcripts,
		Participants: req.Participants,
		EndedAt:      time.Now(),
	}
	msgJson, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	if err := c.publisherService.Publish(ctx.Context(), msgJson); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Meeting processing started", dto.EndMeetingResponse{
		MeetingId: req.MeetingId,
		Status:    entity.ProcessingStatusPending,
	}))
}

func (c *meetingController) Status(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid meeting id")
	}

	res, err := c.processingService.Status(ctx.Context(), id)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get meeting status", res))
}
