package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"strconv"
	"strings"

	"showroom/internal/middleware"
	"showroom/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ImagesField is the multipart field carrying car images.
const ImagesField = "images"

// CarHandler handles HTTP requests for cars.
type CarHandler struct {
	carService *services.CarService
	validate   *validator.Validate
	maxFiles   int
	log        *zap.Logger
}

// NewCarHandler creates a new CarHandler accepting at most maxFiles images per request.
func NewCarHandler(carService *services.CarService, maxFiles int, log *zap.Logger) *CarHandler {
	return &CarHandler{
		carService: carService,
		validate:   validator.New(),
		maxFiles:   maxFiles,
		log:        log,
	}
}

// RegisterRoutes registers the car routes. The router must already be behind
// middleware.AuthRequired.
func (h *CarHandler) RegisterRoutes(router fiber.Router) {
	carRoutes := router.Group("/cars")
	carRoutes.Post("/", h.CreateCar)
	carRoutes.Get("/", h.ListCars)
	carRoutes.Get("/search/:keyword?", h.SearchCars)
	carRoutes.Get("/:id", h.GetCar)
	carRoutes.Put("/:id", h.UpdateCar)
	carRoutes.Delete("/:id", h.DeleteCar)
}

// CarForm holds the text fields of a create or update request.
type CarForm struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Tags        string `json:"tags" form:"tags"`
}

type createCarForm struct {
	Title       string `validate:"required"`
	Description string `validate:"required"`
	Tags        string `validate:"required"`
}

// CreateCar handles POST /cars.
func (h *CarHandler) CreateCar(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)

	form, files, ferr := h.parseCarRequest(c)
	if ferr != nil {
		return badRequest(c, ferr)
	}
	if err := h.validate.Struct(createCarForm(*form)); err != nil {
		return validationFailed(c, "All fields are required", err)
	}

	car, err := h.carService.CreateCar(c.UserContext(), services.CreateCarInput{
		Title:       form.Title,
		Description: form.Description,
		Tags:        form.Tags,
		Files:       files,
	}, userID)
	if err != nil {
		h.log.Error("create car failed", zap.String("user_id", userID), zap.Error(err))
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Car created successfully",
		"car":     car,
	})
}

// ListCars handles GET /cars.
func (h *CarHandler) ListCars(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	cars, err := h.carService.ListCars(userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cars)
}

// GetCar handles GET /cars/:id.
func (h *CarHandler) GetCar(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	id, ok := carID(c)
	if !ok {
		return carNotFound(c)
	}

	car, err := h.carService.GetCar(id, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(car)
}

// UpdateCar handles PUT /cars/:id. Every field is optional.
func (h *CarHandler) UpdateCar(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	id, ok := carID(c)
	if !ok {
		return carNotFound(c)
	}

	form, files, ferr := h.parseCarRequest(c)
	if ferr != nil {
		return badRequest(c, ferr)
	}

	car, err := h.carService.UpdateCar(c.UserContext(), id, userID, services.UpdateCarInput{
		Title:       form.Title,
		Description: form.Description,
		Tags:        form.Tags,
		Files:       files,
	})
	if err != nil {
		h.log.Error("update car failed", zap.Uint("car_id", id), zap.Error(err))
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Car updated successfully",
		"car":     car,
	})
}

// DeleteCar handles DELETE /cars/:id. Image files that could not be removed
// are listed under "warnings".
func (h *CarHandler) DeleteCar(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	id, ok := carID(c)
	if !ok {
		return carNotFound(c)
	}

	report, err := h.carService.DeleteCar(c.UserContext(), id, userID)
	if err != nil {
		return respondError(c, err)
	}

	body := fiber.Map{"message": "Car deleted successfully"}
	if warnings := report.Warnings(); len(warnings) > 0 {
		body["warnings"] = warnings
	}
	return c.JSON(body)
}

// SearchCars handles GET /cars/search/:keyword?. A missing keyword lists all owned cars.
func (h *CarHandler) SearchCars(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	keyword, err := url.PathUnescape(c.Params("keyword"))
	if err != nil {
		keyword = c.Params("keyword")
	}

	cars, err := h.carService.SearchCars(userID, keyword)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cars)
}

// parseCarRequest reads the text fields and image uploads of a create or
// update request. Requests without a body yield an empty form.
func (h *CarHandler) parseCarRequest(c *fiber.Ctx) (*CarForm, []services.Upload, *fiber.Error) {
	form := new(CarForm)
	if len(c.Body()) == 0 {
		return form, nil, nil
	}
	if err := c.BodyParser(form); err != nil {
		h.log.Debug("invalid car body", zap.Error(err))
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		return form, nil, nil
	}
	multipartForm, err := c.MultipartForm()
	if err != nil {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "Invalid multipart form")
	}
	headers := multipartForm.File[ImagesField]
	if len(headers) > h.maxFiles {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("You can upload up to %d images", h.maxFiles))
	}
	return form, uploads(headers), nil
}

func badRequest(c *fiber.Ctx, err *fiber.Error) error {
	return c.Status(err.Code).JSON(fiber.Map{"message": err.Message})
}

func uploads(headers []*multipart.FileHeader) []services.Upload {
	files := make([]services.Upload, 0, len(headers))
	for _, fh := range headers {
		files = append(files, services.Upload{
			FieldName: ImagesField,
			Filename:  fh.Filename,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return files
}

func carID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func carNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Car not found"})
}
