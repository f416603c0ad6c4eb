package controller

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/klass-lk/blogboot"
	"github.com/klass-lk/blogboot/internal/model"
	"github.com/klass-lk/blogboot/internal/service"
)

type CategoryService interface {
	List(ctx context.Context) ([]model.Category, error)
	Create(ctx context.Context, in service.CreateCategoryInput) (model.Category, error)
}

type categoryRequest struct {
	Name string `json:"name" form:"name" binding:"required,max=50"`
	Slug string `json:"slug" form:"slug"`
}

type CategoryController struct {
	categories CategoryService
	limit      gin.HandlerFunc
}

func NewCategoryController(categories CategoryService, limit gin.HandlerFunc) *CategoryController {
	return &CategoryController{categories: categories, limit: passThrough(limit)}
}

func (c *CategoryController) Register(group *blogboot.ControllerGroup) {
	group.GET("", c.ListCategories)
	group.POST("", c.CreateCategory, c.limit)
}

// ListCategories responds with a bare array, which is what existing clients
// read.
func (c *CategoryController) ListCategories(ctx *blogboot.Context) (interface{}, error) {
	return c.categories.List(ctx.Request.Context())
}

func (c *CategoryController) CreateCategory(ctx *blogboot.Context) (interface{}, error) {
	var req categoryRequest
	if err := ctx.GetRequest(&req); err != nil {
		return nil, err
	}
	category, err := c.categories.Create(ctx.Request.Context(), service.CreateCategoryInput{
		Name: req.Name,
		Slug: req.Slug,
	})
	if err != nil {
		return nil, err
	}
	return blogboot.Created(ok(category)), nil
}
