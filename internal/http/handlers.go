package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"barkeep/internal/domain"
	"barkeep/internal/repository"
	"barkeep/internal/service"
)

type Server struct {
	engine     *gin.Engine
	drinks     *service.DrinkService
	orders     *service.OrderService
	uploadsDir string
}

func NewServer(drinks *service.DrinkService, orders *service.OrderService, uploadsDir string) *Server {
	r := gin.New()
	// SPA клиент ходит с другого origin — пускаем всех, как cors() в старом сервере
	r.Use(gin.Logger(), gin.Recovery(), cors.Default())
	s := &Server{engine: r, drinks: drinks, orders: orders, uploadsDir: uploadsDir}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// картинки напитков
	if s.uploadsDir != "" {
		s.engine.Static("/uploads", s.uploadsDir)
	}

	api := s.engine.Group("/api")
	{
		drinks := api.Group("/drinks")
		drinks.GET("", s.listDrinks)
		drinks.POST("", s.createDrink)
		drinks.GET(":id", s.getDrink)
		drinks.PUT(":id", s.updateDrink)
		drinks.DELETE(":id", s.deleteDrink)
		drinks.GET(":id/recipe", s.drinkRecipe)
		drinks.POST(":id/image", s.uploadDrinkImage)

		orders := api.Group("/orders")
		orders.GET("", s.listOrders)
		orders.GET("/pending", s.pendingOrders)
		orders.GET("/customer/:name", s.orderByCustomer)
		orders.POST("", s.createOrder)
		orders.PUT(":id/complete", s.completeOrder)
	}
}

// Drink handlers

// @Summary List drinks
// @Tags drinks
// @Produce json
// @Success 200 {array} domain.Drink
// @Router /drinks [get]
func (s *Server) listDrinks(c *gin.Context) {
	list, err := s.drinks.List(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get drink by id
// @Tags drinks
// @Produce json
// @Param id path int true "Drink ID"
// @Success 200 {object} domain.Drink
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /drinks/{id} [get]
func (s *Server) getDrink(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	d, err := s.drinks.GetByID(c, id)
	if err != nil {
		status := mapErrorToStatus(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, d)
}

type createDrinkReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Recipe      string `json:"recipe"`
	ImageURL    string `json:"imageUrl"`
}

// @Summary Create drink
// @Tags drinks
// @Accept json
// @Produce json
// @Param input body createDrinkReq true "Drink"
// @Success 201 {object} domain.Drink
// @Failure 400 {object} map[string]string
// @Router /drinks [post]
func (s *Server) createDrink(c *gin.Context) {
	var req createDrinkReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	d, err := s.drinks.Create(c, domain.Drink{
		Name:        req.Name,
		Description: req.Description,
		Recipe:      req.Recipe,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		status := mapErrorToStatus(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, d)
}

type updateDrinkReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Recipe      string `json:"recipe"`
	ImageURL    string `json:"imageUrl"`
	InStock     bool   `json:"inStock"`
}

// @Summary Update drink
// @Tags drinks
// @Accept json
// @Produce json
// @Param id path int true "Drink ID"
// @Param input body updateDrinkReq true "Update"
// @Success 200 {object} domain.Drink
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /drinks/{id} [put]
func (s *Server) updateDrink(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req updateDrinkReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	d, err := s.drinks.Update(c, domain.Drink{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Recipe:      req.Recipe,
		ImageURL:    req.ImageURL,
		InStock:     req.InStock,
	})
	if err != nil {
		status := mapErrorToStatus(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, d)
}

// @Summary Delete drink
// @Tags drinks
// @Param id path int true "Drink ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /drinks/{id} [delete]
func (s *Server) deleteDrink(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := s.drinks.Delete(c, id); err != nil {
		status := mapErrorToStatus(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Drink recipe as HTML
// @Tags drinks
// @Produce html
// @Param id path int true "Drink ID"
// @Success 200 {string} string
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /drinks/{id}/recipe [get]
func (s *Server) drinkRecipe(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	html, err := s.drinks.RenderRecipe(c, id)
	if err != nil {
		status := mapErrorToStatus(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

// @Summary Upload drink image
// @Tags drinks
// @Accept mpfd
// @Produce json
// @Param id path int true "Drink ID"
// @Param image formData file true "Image file"
// @Success 200 {object} domain.Drink
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /drinks/{id}/image [post]
func (s *Server) uploadDrinkImage(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image type"})
		return
	}
	name := fmt.Sprintf("drink-%d%s", id, ext)
	if err := c.SaveUploadedFile(file, filepath.Join(s.uploadsDir, name)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	d, err := s.drinks.SetImage(c, id, "/uploads/"+name)
	if err != nil {
		status := mapErrorToStatus(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, d)
}

// Order handlers

// @Summary List all orders, newest first
// @Tags orders
// @Produce json
// @Success 200 {array} domain.Order
// @Router /orders [get]
func (s *Server) listOrders(c *gin.Context) {
	list, err := s.orders.ListOrders(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary List pending orders, oldest first, with items
// @Tags orders
// @Produce json
// @Success 200 {array} domain.Order
// @Router /orders/pending [get]
func (s *Server) pendingOrders(c *gin.Context) {
	list, err := s.orders.PendingOrders(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Latest pending order for customer
// @Tags orders
// @Produce json
// @Param name path string true "Customer name"
// @Success 200 {object} domain.Order
// @Failure 404 {object} map[string]string
// @Router /orders/customer/{name} [get]
func (s *Server) orderByCustomer(c *gin.Context) {
	o, err := s.orders.OrderByCustomer(c, c.Param("name"))
	if err != nil {
		status := mapErrorToStatus(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, o)
}

type createOrderReq struct {
	CustomerName string             `json:"customerName"`
	Items        []domain.OrderItem `json:"items"`
}

// @Summary Create order
// @Tags orders
// @Accept json
// @Produce json
// @Param input body createOrderReq true "Order"
// @Success 201 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Router /orders [post]
func (s *Server) createOrder(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := s.orders.CreateOrder(c, req.CustomerName, req.Items)
	if err != nil {
		status := mapErrorToStatus(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, o)
}

// @Summary Mark order completed
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/{id}/complete [put]
func (s *Server) completeOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	o, err := s.orders.CompleteOrder(c, id)
	if err != nil {
		status := mapErrorToStatus(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, o)
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrPendingOrderExists):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
