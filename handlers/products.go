package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/models"
	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/services"
)

// GetProducts handles GET /api/v1/products
func GetProducts(c *gin.Context) {
	products, err := DB.ListActiveProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// CreateProduct handles POST /api/v1/products
func CreateProduct(c *gin.Context) {
	var request struct {
		Name         string  `json:"name" binding:"required"`
		Category     string  `json:"category" binding:"required"`
		Price        float64 `json:"price" binding:"required"`
		Unit         string  `json:"unit"`
		Availability string  `json:"availability"`
		Stock        *int    `json:"stock"`
		ImageURL     string  `json:"image_url"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if request.Unit == "" {
		request.Unit = "kg"
	}
	if request.Availability == "" {
		request.Availability = models.AvailabilityInStock
	}

	product := &models.Product{
		ID:           uuid.New(),
		Name:         request.Name,
		Category:     request.Category,
		Price:        request.Price,
		Unit:         request.Unit,
		Availability: request.Availability,
		Stock:        request.Stock,
		ImageURL:     request.ImageURL,
		IsActive:     true,
	}

	if err := DB.CreateProduct(c.Request.Context(), product); err != nil {
		fmt.Printf("❌ Failed to create product: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// UpdateProduct handles PUT /api/v1/products/:id
func UpdateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	product, err := DB.GetProduct(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return
	}
	if product == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	var request struct {
		Name         *string  `json:"name"`
		Category     *string  `json:"category"`
		Price        *float64 `json:"price"`
		Unit         *string  `json:"unit"`
		Availability *string  `json:"availability"`
		Stock        *int     `json:"stock"`
		ImageURL     *string  `json:"image_url"`
		IsActive     *bool    `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if request.Name != nil {
		product.Name = *request.Name
	}
	if request.Category != nil {
		product.Category = *request.Category
	}
	if request.Price != nil {
		product.Price = *request.Price
	}
	if request.Unit != nil {
		product.Unit = *request.Unit
	}
	if request.Availability != nil {
		product.Availability = *request.Availability
	}
	if request.Stock != nil {
		product.Stock = request.Stock
	}
	if request.ImageURL != nil {
		product.ImageURL = *request.ImageURL
	}
	if request.IsActive != nil {
		product.IsActive = *request.IsActive
	}

	if err := DB.UpdateProduct(c.Request.Context(), product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// UploadProductImage handles POST /api/v1/products/:id/image
func UploadProductImage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	product, err := DB.GetProduct(c.Request.Context(), id)
	if err != nil || product == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open file"})
		return
	}
	defer src.Close()

	data := make([]byte, file.Size)
	if _, err := src.Read(data); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}

	url, err := services.Cloudinary.UploadProductImage(c.Request.Context(), data, file.Filename)
	if err != nil {
		fmt.Printf("❌ Cloudinary upload failed: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
		return
	}

	product.ImageURL = url
	if err := DB.UpdateProduct(c.Request.Context(), product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save image URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "url": url})
}
