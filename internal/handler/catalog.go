package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront/internal/model"
	"github.com/iliyamo/storefront/internal/repository"
	"github.com/iliyamo/storefront/internal/utils"
)

const (
	maxProductName   = 120
	maxProductImages = 10
	defaultCategory  = "Outros"
)

var errBlankName = errors.New("name is required")

// CatalogHandler serves products, categories and the shop's contact card.
type CatalogHandler struct {
	Products   *repository.ProductRepo
	Categories *repository.CategoryRepo
	Contacts   *repository.ContactRepo
	now        func() time.Time
}

func NewCatalogHandler(p *repository.ProductRepo, cat *repository.CategoryRepo, con *repository.ContactRepo) *CatalogHandler {
	return &CatalogHandler{Products: p, Categories: cat, Contacts: con, now: time.Now}
}

// productReq carries optional fields so PUT can tell "absent" from "empty".
type productReq struct {
	Name        *string   `json:"nome"`
	Price       *float64  `json:"preco"`
	Description *string   `json:"descricao"`
	Image       *string   `json:"imagem"`
	Images      *[]string `json:"imagens"`
	Category    *string   `json:"categoria"`
}

type categoryReq struct {
	Name string `json:"nome"`
}

type contactsReq struct {
	Email     *string `json:"email"`
	Instagram *string `json:"instagram"`
	Facebook  *string `json:"facebook"`
	Phone     *string `json:"telefone"`
}

// ----- products -----

func (h *CatalogHandler) ListProducts(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.Products.List(ctx)
	if err != nil {
		return internalError(c, err, "list products failed")
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) GetProduct(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	p, err := h.Products.Get(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	if err != nil {
		return internalError(c, err, "get product failed")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHandler) CreateProduct(c echo.Context) error {
	var req productReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	var p model.Product
	if err := applyProduct(&p, req); err != nil {
		return badRequest(c, err.Error())
	}
	if req.Name == nil || p.Name == "" {
		return badRequest(c, errBlankName.Error())
	}
	if p.Category == "" {
		p.Category = defaultCategory
	}
	id, err := utils.NewProductID(p.Name)
	if err != nil {
		return internalError(c, err, "generate id failed")
	}
	p.ID = id

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Products.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a product with this name already exists"})
		}
		return internalError(c, err, "create product failed")
	}
	return c.JSON(http.StatusCreated, p)
}

// UpdateProduct applies the fields present in the body.
func (h *CatalogHandler) UpdateProduct(c echo.Context) error {
	var req productReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	p, err := h.Products.Update(ctx, c.Param("id"), func(p *model.Product) error {
		return applyProduct(p, req)
	})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrNameExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "a product with this name already exists"})
	case errors.Is(err, errBlankName), errors.Is(err, errNegativePrice):
		return badRequest(c, err.Error())
	case err != nil:
		return internalError(c, err, "update product failed")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHandler) DeleteProduct(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	removed, err := h.Products.Delete(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	if err != nil {
		return internalError(c, err, "delete product failed")
	}
	return c.JSON(http.StatusOK, removed)
}

var errNegativePrice = errors.New("price must not be negative")

// applyProduct copies the present fields of req onto p.
func applyProduct(p *model.Product, req productReq) error {
	if req.Name != nil {
		name := truncateRunes(strings.TrimSpace(*req.Name), maxProductName)
		if name == "" {
			return errBlankName
		}
		p.Name = name
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return errNegativePrice
		}
		p.Price = *req.Price
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Image != nil {
		p.Image = strings.TrimSpace(*req.Image)
	}
	if req.Images != nil {
		p.Images = cleanImages(*req.Images)
	}
	if req.Category != nil {
		p.Category = strings.TrimSpace(*req.Category)
	}
	return nil
}

func cleanImages(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
		if len(out) == maxProductImages {
			break
		}
	}
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// ----- categories -----

func (h *CatalogHandler) ListCategories(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.Categories.List(ctx)
	if err != nil {
		return internalError(c, err, "list categories failed")
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	var req categoryReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return badRequest(c, "invalid name")
	}
	id, err := utils.NewCategoryID(name)
	if err != nil {
		return internalError(c, err, "generate id failed")
	}
	cat := model.Category{ID: id, Name: name, CreatedAt: h.now().UnixMilli()}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Categories.Create(ctx, cat); err != nil {
		if errors.Is(err, repository.ErrNameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a category with this name already exists"})
		}
		return internalError(c, err, "create category failed")
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *CatalogHandler) RenameCategory(c echo.Context) error {
	var req categoryReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return badRequest(c, "invalid name")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	cat, err := h.Categories.Rename(ctx, c.Param("id"), name)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrNameExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "a category with this name already exists"})
	case err != nil:
		return internalError(c, err, "rename category failed")
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CatalogHandler) DeleteCategory(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	removed, err := h.Categories.Delete(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	if err != nil {
		return internalError(c, err, "delete category failed")
	}
	return c.JSON(http.StatusOK, removed)
}

// ----- contacts -----

func (h *CatalogHandler) GetContacts(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	card, err := h.Contacts.Get(ctx)
	if err != nil {
		return internalError(c, err, "get contacts failed")
	}
	return c.JSON(http.StatusOK, card)
}

func (h *CatalogHandler) UpdateContacts(c echo.Context) error {
	var req contactsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	card, err := h.Contacts.Update(ctx, func(card *model.Contacts) {
		setIfPresent(&card.Email, req.Email)
		setIfPresent(&card.Instagram, req.Instagram)
		setIfPresent(&card.Facebook, req.Facebook)
		setIfPresent(&card.Phone, req.Phone)
		card.UpdatedAt = h.now().UnixMilli()
	})
	if err != nil {
		return internalError(c, err, "update contacts failed")
	}
	return c.JSON(http.StatusOK, card)
}

func setIfPresent(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
