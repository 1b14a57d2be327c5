package handler

import (
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Aryan-111/Orca-Edge/internal/middleware"
	"github.com/Aryan-111/Orca-Edge/internal/service"
	"github.com/Aryan-111/Orca-Edge/internal/usecase"
	"github.com/Aryan-111/Orca-Edge/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type InterviewHandler struct {
	uc     *usecase.InterviewUsecase
	gemini *service.GeminiService
}

func NewInterviewHandler(uc *usecase.InterviewUsecase, gemini *service.GeminiService) *InterviewHandler {
	return &InterviewHandler{uc: uc, gemini: gemini}
}

func (h *InterviewHandler) RegisterRoutes(app *fiber.App) {
	app.Post("/interviews", h.CreateSession)
	app.Post("/interviews/:id/start", middleware.RateLimiter(1, 4*time.Second), h.StartInterview)
	app.Post("/interviews/:id/messages", h.SubmitAnswer)
	app.Post("/interviews/:id/restart", h.Restart)
	app.Get("/interviews/:id", h.GetSession)
	app.Get("/reports", h.History)
	app.Get("/reports/latest", h.LatestReport)
	app.Get("/seed-role-profiles", h.SeedRoleProfiles)
	app.Get("/test", h.Test)
}

func (h *InterviewHandler) CreateSession(c *fiber.Ctx) error {
	session := h.uc.CreateSession()
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Session created",
		Data:    session,
	})
}

func (h *InterviewHandler) StartInterview(c *fiber.Ctx) error {
	id, err := h.sessionID(c)
	if err != nil {
		return err
	}

	targetRole := strings.TrimSpace(c.FormValue("role"))
	numQuestions := 0
	if v := c.FormValue("num_questions"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusBadRequest,
				Message: "num_questions must be a number",
			}, err)
		}
		numQuestions = n
	}

	fileName, document, mimeType, err := h.readCvFile(c)
	if err != nil {
		return err
	}

	session, err := h.uc.StartInterview(c.Context(), id, targetRole, numQuestions, fileName, document, mimeType)
	if err != nil {
		return h.sessionError(c, err, session)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Interview started",
		Data:    session,
	})
}

func (h *InterviewHandler) SubmitAnswer(c *fiber.Ctx) error {
	id, err := h.sessionID(c)
	if err != nil {
		return err
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&body); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
		}, err)
	}

	session, err := h.uc.SubmitAnswer(c.Context(), id, body.Text)
	if err != nil {
		return h.sessionError(c, err, session)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Answer submitted",
		Data:    session,
	})
}

func (h *InterviewHandler) Restart(c *fiber.Ctx) error {
	id, err := h.sessionID(c)
	if err != nil {
		return err
	}

	session, err := h.uc.Restart(id)
	if err != nil {
		return h.sessionError(c, err, session)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Session restarted",
		Data:    session,
	})
}

func (h *InterviewHandler) GetSession(c *fiber.Ctx) error {
	id, err := h.sessionID(c)
	if err != nil {
		return err
	}

	session, err := h.uc.GetSession(id)
	if err != nil {
		return h.sessionError(c, err, session)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get session",
		Data:    session,
	})
}

func (h *InterviewHandler) History(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 20)

	reports, pagination, err := h.uc.History(page, pageSize)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to load interview history",
		}, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message:    "Success get interview history",
		Data:       reports,
		Pagination: pagination,
	})
}

func (h *InterviewHandler) LatestReport(c *fiber.Ctx) error {
	latest := h.uc.LatestReport()
	if latest == nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusNotFound,
			Message: "no completed interviews yet",
		})
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get latest report",
		Data:    latest,
	})
}

func (h *InterviewHandler) SeedRoleProfiles(c *fiber.Ctx) error {
	if err := h.uc.SeedRoleProfiles(c.Context()); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to seed role profiles",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success seed role profiles",
	})
}

func (h *InterviewHandler) Test(c *fiber.Ctx) error {
	result, err := h.gemini.Test()
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to test gemini",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success test",
		Data:    result,
	})
}

func (h *InterviewHandler) sessionID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid session id",
		}, err)
	}
	return id, nil
}

var mimeTypesByExt = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".txt":  "text/plain",
}

func (h *InterviewHandler) readCvFile(c *fiber.Ctx) (string, []byte, string, error) {
	file, err := c.FormFile("cv")
	if err != nil {
		// Missing document is a Setup validation case the orchestrator
		// handles with a user-visible message; pass it through empty.
		return "", nil, "", nil
	}

	if file.Size > 5*1024*1024 {
		return "", nil, "", util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "cv file size is too large (max 5MB)",
		})
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	mimeType, ok := mimeTypesByExt[ext]
	if !ok {
		return "", nil, "", util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "unsupported cv file type",
		})
	}

	f, err := file.Open()
	if err != nil {
		return "", nil, "", util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "cannot read cv file",
		}, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, "", util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "cannot read cv file",
		}, err)
	}

	return file.Filename, data, mimeType, nil
}

// sessionError maps orchestrator errors onto HTTP statuses. The session
// snapshot rides along in Details so clients can render the transcript.
func (h *InterviewHandler) sessionError(c *fiber.Ctx, err error, session any) error {
	var validationErr *usecase.ValidationError
	var busyErr *usecase.BusyError
	var notFoundErr *usecase.NotFoundError

	switch {
	case errors.As(err, &notFoundErr):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusNotFound,
			Message: "session not found",
		}, err)
	case errors.As(err, &busyErr):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusConflict,
			Message: "a request is already in flight for this session",
			Details: session,
		}, err)
	case errors.As(err, &validationErr):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: validationErr.Message,
			Details: session,
		}, err)
	default:
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "interview session error",
		}, err)
	}
}
