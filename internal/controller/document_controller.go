package controller

import (
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"docchat-be/internal/dto"
	"docchat-be/internal/pkg/serverutils"
	"docchat-be/internal/service"
	"docchat-be/pkg/ragerr"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type documentController struct {
	service service.IDocumentService
}

func NewDocumentController(service service.IDocumentService) IDocumentController {
	return &documentController{service: service}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/document/v1")
	h.Post("/upload", c.Upload)
	h.Get("", c.GetAll)
	h.Delete("/:id", c.Delete)
}

// Upload accepts either a multipart "file" field carrying extracted text
// (raw extraction per file type happens upstream) or a JSON body.
func (c *documentController) Upload(ctx *fiber.Ctx) error {
	req, err := parseUploadRequest(ctx)
	if err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(*req); err != nil {
		return err
	}

	res, err := c.service.Upload(ctx.Context(), req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success upload document", res))
}

func (c *documentController) GetAll(ctx *fiber.Ctx) error {
	res, err := c.service.GetAll(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all documents", res))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	id, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	if err := c.service.Delete(ctx.Context(), id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete document", nil))
}

func parseUploadRequest(ctx *fiber.Ctx) (*dto.UploadDocumentRequest, error) {
	contentType := string(ctx.Request().Header.ContentType())
	if !strings.HasPrefix(contentType, fiber.MIMEMultipartForm) {
		var req dto.UploadDocumentRequest
		if err := ctx.BodyParser(&req); err != nil {
			return nil, ragerr.Configuration("malformed request body: %v", err)
		}
		return &req, nil
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return nil, ragerr.Configuration("multipart upload requires a 'file' field")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, ragerr.Configuration("unreadable upload: %v", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, ragerr.Configuration("unreadable upload: %v", err)
	}

	pages, _ := strconv.Atoi(ctx.FormValue("pages"))

	return &dto.UploadDocumentRequest{
		Filename: fileHeader.Filename,
		Content:  string(content),
		Pages:    pages,
	}, nil
}
