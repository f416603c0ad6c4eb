package controller

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/klass-lk/blogboot"
	"github.com/klass-lk/blogboot/internal/model"
	"github.com/klass-lk/blogboot/internal/service"
)

const (
	MaxImageSize     = 5 << 20
	featuredImageKey = "featuredImage"
)

var allowedImageExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
}

type PostService interface {
	List(ctx context.Context, req blogboot.PageRequest, category string) (blogboot.PageResponse[model.PostView], error)
	ListByAuthor(ctx context.Context, authorID string, req blogboot.PageRequest) (blogboot.PageResponse[model.PostView], error)
	Get(ctx context.Context, idOrSlug string) (model.PostView, error)
	Create(ctx context.Context, in service.CreatePostInput, requester blogboot.AuthContext) (model.PostView, error)
	Update(ctx context.Context, id string, in service.UpdatePostInput, requester blogboot.AuthContext) (model.PostView, error)
	Delete(ctx context.Context, id string, requester blogboot.AuthContext) error
	AddComment(ctx context.Context, postID string, requester blogboot.AuthContext, content string) (model.PostView, error)
	Search(ctx context.Context, q string) ([]model.PostView, error)
}

// TagList accepts tags as a JSON array or as one comma separated string.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = list
		return nil
	}
	var csv string
	if err := json.Unmarshal(data, &csv); err != nil {
		return errors.New("tags must be a list or a comma separated string")
	}
	*t = TagList{csv}
	return nil
}

// split expands comma separated entries, keeping nil for an absent field.
func (t TagList) split() []string {
	if t == nil {
		return nil
	}
	tags := []string{}
	for _, entry := range t {
		for _, tag := range strings.Split(entry, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}

type postRequest struct {
	Title       *string `json:"title" form:"title" binding:"omitempty,max=200"`
	Content     *string `json:"content" form:"content"`
	Excerpt     *string `json:"excerpt" form:"excerpt" binding:"omitempty,max=500"`
	Category    *string `json:"category" form:"category"`
	Slug        *string `json:"slug" form:"slug"`
	Tags        TagList `json:"tags" form:"tags"`
	IsPublished *bool   `json:"isPublished" form:"isPublished"`
}

type commentRequest struct {
	Content string `json:"content" form:"content" binding:"required,max=1000"`
}

type PostController struct {
	posts   PostService
	protect gin.HandlerFunc
	limit   gin.HandlerFunc
}

func NewPostController(posts PostService, protect, limit gin.HandlerFunc) *PostController {
	return &PostController{
		posts:   posts,
		protect: passThrough(protect),
		limit:   passThrough(limit),
	}
}

func (c *PostController) Register(group *blogboot.ControllerGroup) {
	group.GET("", c.ListPosts)
	group.GET("/search", c.SearchPosts)
	group.GET("/mine", c.ListMyPosts, c.protect)
	group.GET("/:id", c.GetPost)

	group.POST("", c.CreatePost, c.limit, c.protect)
	group.PUT("/:id", c.UpdatePost, c.limit, c.protect)
	group.DELETE("/:id", c.DeletePost, c.limit, c.protect)
	group.POST("/:id/comments", c.AddComment, c.limit, c.protect)
}

func (c *PostController) ListPosts(ctx *blogboot.Context) (interface{}, error) {
	page, err := c.posts.List(ctx.Request.Context(), ctx.GetPageRequest(service.DefaultSortField), ctx.Query("category"))
	if err != nil {
		return nil, err
	}
	return listResponse{Success: true, PageResponse: page}, nil
}

func (c *PostController) ListMyPosts(ctx *blogboot.Context) (interface{}, error) {
	auth, err := ctx.GetAuthContext()
	if err != nil {
		return nil, err
	}
	page, err := c.posts.ListByAuthor(ctx.Request.Context(), auth.UserID, ctx.GetPageRequest(service.DefaultSortField))
	if err != nil {
		return nil, err
	}
	return listResponse{Success: true, PageResponse: page}, nil
}

func (c *PostController) SearchPosts(ctx *blogboot.Context) (interface{}, error) {
	posts, err := c.posts.Search(ctx.Request.Context(), ctx.Query("q"))
	if err != nil {
		return nil, err
	}
	return searchResponse{Success: true, Count: len(posts), Data: posts}, nil
}

func (c *PostController) GetPost(ctx *blogboot.Context) (interface{}, error) {
	post, err := c.posts.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		return nil, err
	}
	return ok(post), nil
}

func (c *PostController) CreatePost(ctx *blogboot.Context) (interface{}, error) {
	auth, err := ctx.GetAuthContext()
	if err != nil {
		return nil, err
	}

	var req postRequest
	if err := ctx.GetRequest(&req); err != nil {
		return nil, err
	}
	image, closeImage, err := featuredImage(ctx)
	if err != nil {
		return nil, err
	}
	defer closeImage()

	in := service.CreatePostInput{
		Title:    deref(req.Title),
		Content:  deref(req.Content),
		Excerpt:  deref(req.Excerpt),
		Category: deref(req.Category),
		Slug:     deref(req.Slug),
		Tags:     req.Tags.split(),
		Image:    image,
	}
	if req.IsPublished != nil {
		in.IsPublished = *req.IsPublished
	}

	post, err := c.posts.Create(ctx.Request.Context(), in, auth)
	if err != nil {
		return nil, err
	}
	return blogboot.Created(ok(post)), nil
}

func (c *PostController) UpdatePost(ctx *blogboot.Context) (interface{}, error) {
	auth, err := ctx.GetAuthContext()
	if err != nil {
		return nil, err
	}

	var req postRequest
	if err := ctx.GetRequest(&req); err != nil {
		return nil, err
	}
	image, closeImage, err := featuredImage(ctx)
	if err != nil {
		return nil, err
	}
	defer closeImage()

	post, err := c.posts.Update(ctx.Request.Context(), ctx.Param("id"), service.UpdatePostInput{
		Title:       req.Title,
		Content:     req.Content,
		Excerpt:     req.Excerpt,
		Category:    req.Category,
		Slug:        req.Slug,
		Tags:        req.Tags.split(),
		IsPublished: req.IsPublished,
		Image:       image,
	}, auth)
	if err != nil {
		return nil, err
	}
	return ok(post), nil
}

func (c *PostController) DeletePost(ctx *blogboot.Context) (interface{}, error) {
	auth, err := ctx.GetAuthContext()
	if err != nil {
		return nil, err
	}
	if err := c.posts.Delete(ctx.Request.Context(), ctx.Param("id"), auth); err != nil {
		return nil, err
	}
	return messageResponse{Success: true, Message: "Post deleted successfully"}, nil
}

func (c *PostController) AddComment(ctx *blogboot.Context) (interface{}, error) {
	auth, err := ctx.GetAuthContext()
	if err != nil {
		return nil, err
	}
	var req commentRequest
	if err := ctx.GetRequest(&req); err != nil {
		return nil, err
	}
	post, err := c.posts.AddComment(ctx.Request.Context(), ctx.Param("id"), auth, req.Content)
	if err != nil {
		return nil, err
	}
	return blogboot.Created(ok(post)), nil
}

// featuredImage opens the optional uploaded image of a multipart request.
// The returned close func is always safe to call.
func featuredImage(ctx *blogboot.Context) (*service.ImageUpload, func(), error) {
	noop := func() {}
	if ctx.ContentType() != gin.MIMEMultipartPOSTForm {
		return nil, noop, nil
	}

	header, err := ctx.FormFile(featuredImageKey)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, blogboot.ErrValidationFailed.New("Invalid featured image upload")
	}
	if err := validateImage(header); err != nil {
		return nil, noop, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, noop, err
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(header.Filename)))
	}
	return &service.ImageUpload{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	}, func() { _ = file.Close() }, nil
}

func validateImage(header *multipart.FileHeader) error {
	if header.Size > MaxImageSize {
		return blogboot.ErrValidationFailed.New("Image must be 5MB or smaller")
	}
	if !allowedImageExtensions[strings.ToLower(filepath.Ext(header.Filename))] {
		return blogboot.ErrValidationFailed.New("Only image files (jpeg, jpg, png, gif) are allowed")
	}
	return nil
}

// passThrough substitutes a no-op for an unset middleware.
func passThrough(h gin.HandlerFunc) gin.HandlerFunc {
	if h != nil {
		return h
	}
	return func(c *gin.Context) { c.Next() }
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
