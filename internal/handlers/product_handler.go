package handlers

import (
	"fmt"
	"log"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"agromart/internal/models"
	"agromart/internal/services"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service   *services.ProductService
	uploadDir string
}

// NewProductHandler creates a new ProductHandler. Uploaded files land in
// uploadDir with a timestamp-prefixed name.
func NewProductHandler(service *services.ProductService, uploadDir string) *ProductHandler {
	return &ProductHandler{
		service:   service,
		uploadDir: uploadDir,
	}
}

// RegisterPublicRoutes registers the unauthenticated catalog routes.
func (h *ProductHandler) RegisterPublicRoutes(router fiber.Router) {
	router.Get("/products", h.HandleGetProducts)
}

// RegisterAdminRoutes registers the catalog management routes.
func (h *ProductHandler) RegisterAdminRoutes(router fiber.Router) {
	router.Get("/products", h.HandleGetProducts)
	router.Post("/products", h.HandleAddProduct)
	router.Post("/products/bulk", h.HandleBulkImport)
	router.Put("/products/:id", h.HandleUpdateProduct)
	router.Delete("/products/:id", h.HandleDeleteProduct)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAll(c.Context())
	if err != nil {
		log.Printf("Error getting all products: %v", err)
		return respondError(c, err)
	}
	return c.JSON(products)
}

// HandleAddProduct creates a single product from a multipart form. The
// image may arrive as an uploaded file or as an img field with a URL.
func (h *ProductHandler) HandleAddProduct(c *fiber.Ctx) error {
	name := c.FormValue("name")
	priceStr := c.FormValue("price")
	productType := c.FormValue("type")
	img := c.FormValue("img")

	if priceStr == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "All fields (name, price, type, image) are required",
		})
	}
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "price must be a number",
		})
	}

	if file, err := c.FormFile("image"); err == nil {
		savedPath, saveErr := h.saveUpload(c, file, []string{".jpg", ".jpeg", ".png"})
		if saveErr != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": saveErr.Error(),
			})
		}
		img = savedPath
	}

	product, err := h.service.Create(c.Context(), name, price, productType, img)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Product added successfully",
		"product": product,
	})
}

// HandleBulkImport creates products from an uploaded CSV file.
func (h *ProductHandler) HandleBulkImport(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "No CSV file uploaded",
		})
	}

	savedPath, err := h.saveUpload(c, file, []string{".csv"})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	}

	result, err := h.service.BulkImportCSV(c.Context(), savedPath)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Products uploaded successfully",
		"products": result.Imported,
		"skipped":  result.Skipped,
	})
}

// HandleUpdateProduct applies a partial update to a product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var upd models.ProductUpdate
	if err := c.BodyParser(&upd); err != nil {
		log.Printf("Error parsing product update body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	product, err := h.service.Update(c.Context(), c.Params("id"), upd)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Product updated successfully",
		"product": product,
	})
}

// HandleDeleteProduct removes a product and returns the removed record.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	product, err := h.service.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Product deleted successfully",
		"product": product,
	})
}

// saveUpload writes an uploaded file to the upload directory after checking
// its extension, returning the stored path.
func (h *ProductHandler) saveUpload(c *fiber.Ctx, file *multipart.FileHeader, allowedExts []string) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowed := false
	for _, a := range allowedExts {
		if ext == a {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", fmt.Errorf("invalid file type %s, allowed: %s", ext, strings.Join(allowedExts, ", "))
	}

	dest := filepath.Join(h.uploadDir, fmt.Sprintf("%d-%s", time.Now().UnixMilli(), filepath.Base(file.Filename)))
	if err := c.SaveFile(file, dest); err != nil {
		return "", fmt.Errorf("failed to store uploaded file: %w", err)
	}
	return dest, nil
}
