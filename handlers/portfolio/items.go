package portfolio

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ethicsfolio/portfolio-api/model"
	"github.com/ethicsfolio/portfolio-api/services"
	"github.com/ethicsfolio/portfolio-api/utils/middleware"
	"github.com/ethicsfolio/portfolio-api/utils/response"
)

// PortfolioHandler serves the student-facing item CRUD. Section tags arrive
// as the :section path parameter and dispatch through the section registry.
type PortfolioHandler struct {
	db        *gorm.DB
	portfolio *services.PortfolioService
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(db *gorm.DB, portfolio *services.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{db: db, portfolio: portfolio}
}

func sectionParam(c *fiber.Ctx) (model.Section, bool) {
	section := model.Section(c.Params("section"))
	return section, section.Valid()
}

// ListSections returns the section tags a portfolio is made of
func (h *PortfolioHandler) ListSections(c *fiber.Ctx) error {
	return response.Success(c, model.AllSections())
}

// ListItems returns the caller's items in one section
func (h *PortfolioHandler) ListItems(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	section, valid := sectionParam(c)
	if !valid {
		return response.BadRequest(c, "Unknown portfolio section")
	}

	items, err := h.portfolio.ListItems(c.Context(), user.ID, section)
	if err != nil {
		return response.AppError(c, err)
	}
	return response.Success(c, items)
}

// GetPortfolio returns the caller's full portfolio grouped by section
func (h *PortfolioHandler) GetPortfolio(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	items, err := h.portfolio.ListAll(c.Context(), user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load portfolio")
	}
	return response.Success(c, items)
}

// AddItem creates a new item in a section
func (h *PortfolioHandler) AddItem(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	section, valid := sectionParam(c)
	if !valid {
		return response.BadRequest(c, "Unknown portfolio section")
	}

	item, err := h.portfolio.AddItem(c.Context(), user, section, json.RawMessage(c.Body()))
	if err != nil {
		return response.AppError(c, err)
	}
	return response.Created(c, item)
}

// UpdateItem replaces an item's content
func (h *PortfolioHandler) UpdateItem(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	section, valid := sectionParam(c)
	if !valid {
		return response.BadRequest(c, "Unknown portfolio section")
	}

	itemID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid item id")
	}

	item, err := h.portfolio.UpdateItem(c.Context(), user, section, uint(itemID), json.RawMessage(c.Body()))
	if err != nil {
		return response.AppError(c, err)
	}
	return response.Success(c, item)
}

// DeleteItem removes an item
func (h *PortfolioHandler) DeleteItem(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	section, valid := sectionParam(c)
	if !valid {
		return response.BadRequest(c, "Unknown portfolio section")
	}

	itemID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid item id")
	}

	if err := h.portfolio.DeleteItem(c.Context(), user, section, uint(itemID)); err != nil {
		return response.AppError(c, err)
	}
	return response.SuccessWithMessage(c, "Item deleted", nil)
}
