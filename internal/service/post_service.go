package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klass-lk/blogboot"
	"github.com/klass-lk/blogboot/internal/model"
	"github.com/klass-lk/blogboot/internal/repository"
	"github.com/klass-lk/blogboot/internal/slug"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	DefaultSortField = "createdAt"
	imageKeyPrefix   = "posts/"
)

// sortableFields are the stored fields a listing may be ordered by.
var sortableFields = map[string]bool{
	"createdAt": true,
	"updatedAt": true,
	"viewCount": true,
	"title":     true,
}

// ImageUpload is a featured image received with a create or update request.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type CreatePostInput struct {
	Title       string
	Content     string
	Excerpt     string
	Category    string
	Slug        string
	Tags        []string
	IsPublished bool
	Image       *ImageUpload
}

// UpdatePostInput carries only the fields present in the request; nil means
// "leave unchanged".
type UpdatePostInput struct {
	Title       *string
	Content     *string
	Excerpt     *string
	Category    *string
	Slug        *string
	Tags        []string
	IsPublished *bool
	Image       *ImageUpload
}

type PostService struct {
	posts      PostStore
	categories CategoryStore
	users      UserStore
	resolver   *CategoryResolver
	files      blogboot.FileService
	sanitizer  *Sanitizer
	policy     CategoryUpdatePolicy
	logger     *zap.Logger
	now        func() time.Time
}

// NewPostService wires the post operations. files may be nil, in which case
// requests carrying an image fail with ErrUploadsDisabled.
func NewPostService(
	posts PostStore,
	categories CategoryStore,
	users UserStore,
	files blogboot.FileService,
	policy CategoryUpdatePolicy,
	logger *zap.Logger,
) *PostService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == "" {
		policy = CategoryPolicyStrict
	}
	return &PostService{
		posts:      posts,
		categories: categories,
		users:      users,
		resolver:   NewCategoryResolver(categories),
		files:      files,
		sanitizer:  NewSanitizer(),
		policy:     policy,
		logger:     logger.Named("posts"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SortField returns field when posts may be ordered by it and the default
// otherwise.
func SortField(field string) string {
	if sortableFields[field] {
		return field
	}
	return DefaultSortField
}

// List returns one page of posts, newest first unless req sorts by another
// field. category may be an id, name or slug; one that does not resolve
// yields an empty page.
func (s *PostService) List(ctx context.Context, req blogboot.PageRequest, category string) (blogboot.PageResponse[model.PostView], error) {
	req.Sort = blogboot.SortField{Field: SortField(req.Sort.Field), Direction: -1}

	var filter repository.PostFilter
	if category = strings.TrimSpace(category); category != "" {
		id, err := s.resolver.Resolve(ctx, category)
		if errors.Is(err, blogboot.ErrCategoryNotFound) {
			return blogboot.NewPageResponse[model.PostView](nil, 0, req), nil
		}
		if err != nil {
			return blogboot.PageResponse[model.PostView]{}, err
		}
		filter.Category = id
	}

	return s.listPage(ctx, req, filter)
}

// ListByAuthor returns one page of the posts written by authorID.
func (s *PostService) ListByAuthor(ctx context.Context, authorID string, req blogboot.PageRequest) (blogboot.PageResponse[model.PostView], error) {
	req.Sort = blogboot.SortField{Field: SortField(req.Sort.Field), Direction: -1}
	return s.listPage(ctx, req, repository.PostFilter{Author: authorID})
}

func (s *PostService) listPage(ctx context.Context, req blogboot.PageRequest, filter repository.PostFilter) (blogboot.PageResponse[model.PostView], error) {
	page, err := s.posts.List(ctx, req, filter)
	if err != nil {
		return blogboot.PageResponse[model.PostView]{}, err
	}
	views, err := s.populate(ctx, page.Contents)
	if err != nil {
		return blogboot.PageResponse[model.PostView]{}, err
	}
	return blogboot.MapPage(page, views), nil
}

// Get finds a post by id or slug and counts the view. A failed view count
// is logged and the post is returned as read.
func (s *PostService) Get(ctx context.Context, idOrSlug string) (model.PostView, error) {
	post, err := s.posts.FindByIDOrSlug(ctx, idOrSlug)
	if errors.Is(err, repository.ErrNotFound) {
		return model.PostView{}, blogboot.ErrPostNotFound
	}
	if err != nil {
		return model.PostView{}, err
	}

	updated, err := s.posts.IncrementViewCount(ctx, post.ID)
	if err != nil {
		s.logger.Warn("failed to increment view count", zap.String("post_id", post.ID), zap.Error(err))
	} else {
		post = updated
	}

	return s.view(ctx, post)
}

func (s *PostService) Create(ctx context.Context, in CreatePostInput, requester blogboot.AuthContext) (model.PostView, error) {
	title := s.sanitizer.PlainText(in.Title)
	if title == "" {
		return model.PostView{}, blogboot.ErrValidationFailed.New("Please provide a title")
	}
	content := s.sanitizer.HTML(strings.TrimSpace(in.Content))
	if content == "" {
		return model.PostView{}, blogboot.ErrValidationFailed.New("Please provide content")
	}
	if strings.TrimSpace(in.Category) == "" {
		return model.PostView{}, blogboot.ErrValidationFailed.New("Please provide a category")
	}

	categoryID, err := s.resolver.Resolve(ctx, in.Category)
	if err != nil {
		return model.PostView{}, err
	}

	postSlug := in.Slug
	if strings.TrimSpace(postSlug) == "" {
		postSlug = title
	}
	postSlug = slug.Generate(postSlug)
	if postSlug == "" {
		return model.PostView{}, blogboot.ErrValidationFailed.New("Title must contain letters or digits")
	}

	excerpt := s.sanitizer.PlainText(in.Excerpt)
	if excerpt == "" {
		excerpt = s.sanitizer.Excerpt(content, model.ExcerptLength)
	}

	now := s.now()
	post := model.Post{
		ID:          primitive.NewObjectID().Hex(),
		Title:       title,
		Slug:        postSlug,
		Content:     content,
		Excerpt:     excerpt,
		Tags:        s.cleanTags(in.Tags),
		Author:      requester.UserID,
		Category:    categoryID,
		Comments:    []model.Comment{},
		IsPublished: in.IsPublished,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if in.Image != nil {
		key, err := s.uploadImage(ctx, in.Image)
		if err != nil {
			return model.PostView{}, err
		}
		post.FeaturedImage = key
	}

	if err := s.posts.Insert(ctx, post); err != nil {
		s.deleteImage(ctx, post.FeaturedImage)
		return model.PostView{}, err
	}

	s.logger.Info("post created", zap.String("post_id", post.ID), zap.String("author", post.Author))
	return s.view(ctx, post)
}

func (s *PostService) Update(ctx context.Context, id string, in UpdatePostInput, requester blogboot.AuthContext) (model.PostView, error) {
	post, err := s.load(ctx, id)
	if err != nil {
		return model.PostView{}, err
	}
	if !requester.CanModify(post.Author) {
		return model.PostView{}, blogboot.ErrForbidden.New("update")
	}

	fields := map[string]interface{}{}

	if in.Title != nil {
		title := s.sanitizer.PlainText(*in.Title)
		if title == "" {
			return model.PostView{}, blogboot.ErrValidationFailed.New("Please provide a title")
		}
		postSlug := slug.Generate(title)
		if postSlug == "" {
			return model.PostView{}, blogboot.ErrValidationFailed.New("Title must contain letters or digits")
		}
		fields["title"] = title
		fields["slug"] = postSlug
	} else if in.Slug != nil {
		postSlug := slug.Generate(*in.Slug)
		if postSlug == "" {
			return model.PostView{}, blogboot.ErrValidationFailed.New("Slug must contain letters or digits")
		}
		fields["slug"] = postSlug
	}

	content := post.Content
	if in.Content != nil {
		content = s.sanitizer.HTML(strings.TrimSpace(*in.Content))
		if content == "" {
			return model.PostView{}, blogboot.ErrValidationFailed.New("Please provide content")
		}
		fields["content"] = content
	}

	switch {
	case in.Excerpt != nil:
		excerpt := s.sanitizer.PlainText(*in.Excerpt)
		if excerpt == "" {
			excerpt = s.sanitizer.Excerpt(content, model.ExcerptLength)
		}
		fields["excerpt"] = excerpt
	case in.Content != nil && post.Excerpt == s.sanitizer.Excerpt(post.Content, model.ExcerptLength):
		// The stored excerpt was derived from the old content; keep it in step.
		fields["excerpt"] = s.sanitizer.Excerpt(content, model.ExcerptLength)
	}

	if in.Category != nil && strings.TrimSpace(*in.Category) != "" {
		categoryID, err := s.resolver.Resolve(ctx, *in.Category)
		switch {
		case err == nil:
			fields["category"] = categoryID
		case errors.Is(err, blogboot.ErrCategoryNotFound) && s.policy == CategoryPolicyLenient:
			s.logger.Info("keeping category, update reference did not resolve",
				zap.String("post_id", post.ID), zap.String("category", *in.Category))
		default:
			return model.PostView{}, err
		}
	}

	if in.Tags != nil {
		fields["tags"] = s.cleanTags(in.Tags)
	}
	if in.IsPublished != nil {
		fields["isPublished"] = *in.IsPublished
	}

	var newImage string
	if in.Image != nil {
		newImage, err = s.uploadImage(ctx, in.Image)
		if err != nil {
			return model.PostView{}, err
		}
		fields["featuredImage"] = newImage
	}

	fields["updatedAt"] = s.now()

	updated, err := s.posts.Update(ctx, post.ID, fields)
	if err != nil {
		s.deleteImage(ctx, newImage)
		if errors.Is(err, repository.ErrNotFound) {
			return model.PostView{}, blogboot.ErrPostNotFound
		}
		return model.PostView{}, err
	}
	if newImage != "" {
		s.deleteImage(ctx, post.FeaturedImage)
	}

	return s.view(ctx, updated)
}

func (s *PostService) Delete(ctx context.Context, id string, requester blogboot.AuthContext) error {
	post, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !requester.CanModify(post.Author) {
		return blogboot.ErrForbidden.New("delete")
	}

	if err := s.posts.DeleteByID(ctx, post.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return blogboot.ErrPostNotFound
		}
		return err
	}
	s.deleteImage(ctx, post.FeaturedImage)

	s.logger.Info("post deleted", zap.String("post_id", post.ID), zap.String("by", requester.UserID))
	return nil
}

// AddComment appends a comment by requester and returns the post with it.
func (s *PostService) AddComment(ctx context.Context, postID string, requester blogboot.AuthContext, content string) (model.PostView, error) {
	content = s.sanitizer.PlainText(content)
	if content == "" {
		return model.PostView{}, blogboot.ErrValidationFailed.New("Please provide comment content")
	}

	comment := model.Comment{
		ID:        primitive.NewObjectID().Hex(),
		User:      requester.UserID,
		Content:   content,
		CreatedAt: s.now(),
	}

	post, err := s.posts.AppendComment(ctx, postID, comment)
	if errors.Is(err, repository.ErrNotFound) {
		return model.PostView{}, blogboot.ErrPostNotFound
	}
	if err != nil {
		return model.PostView{}, err
	}
	return s.view(ctx, post)
}

// Search returns every post whose title, content or tags contain q as a
// literal, case-insensitive substring, newest first.
func (s *PostService) Search(ctx context.Context, q string) ([]model.PostView, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, blogboot.ErrEmptySearchQuery
	}
	posts, err := s.posts.Search(ctx, regexp.QuoteMeta(q))
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, posts)
}

func (s *PostService) load(ctx context.Context, id string) (model.Post, error) {
	post, err := s.posts.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Post{}, blogboot.ErrPostNotFound
	}
	return post, err
}

func (s *PostService) cleanTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = s.sanitizer.PlainText(tag); tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return cleaned
}

func (s *PostService) uploadImage(ctx context.Context, img *ImageUpload) (string, error) {
	if s.files == nil {
		return "", blogboot.ErrUploadsDisabled
	}
	key := imageKeyPrefix + uuid.NewString() + strings.ToLower(filepath.Ext(img.Filename))
	if err := s.files.Upload(ctx, key, img.ContentType, img.Body, img.Size); err != nil {
		return "", fmt.Errorf("failed to store featured image: %w", err)
	}
	return key, nil
}

// deleteImage removes a stored image; failures only leave an orphaned object
// and are logged.
func (s *PostService) deleteImage(ctx context.Context, key string) {
	if key == "" || s.files == nil {
		return
	}
	if err := s.files.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to delete featured image", zap.String("key", key), zap.Error(err))
	}
}

func (s *PostService) view(ctx context.Context, post model.Post) (model.PostView, error) {
	views, err := s.populate(ctx, []model.Post{post})
	if err != nil {
		return model.PostView{}, err
	}
	return views[0], nil
}

// populate replaces author, category and commenter ids with summaries,
// fetching each referenced collection once for the whole batch.
func (s *PostService) populate(ctx context.Context, posts []model.Post) ([]model.PostView, error) {
	userIDs := newIDSet()
	categoryIDs := newIDSet()
	for _, p := range posts {
		userIDs.add(p.Author)
		categoryIDs.add(p.Category)
		for _, c := range p.Comments {
			userIDs.add(c.User)
		}
	}

	users, err := s.users.FindAllByID(ctx, userIDs.ids)
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.FindAllByID(ctx, categoryIDs.ids)
	if err != nil {
		return nil, err
	}

	usersByID := make(map[string]model.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}
	categoriesByID := make(map[string]model.Category, len(categories))
	for _, c := range categories {
		categoriesByID[c.ID] = c
	}

	views := make([]model.PostView, 0, len(posts))
	for _, p := range posts {
		view := model.PostView{
			ID:            p.ID,
			Title:         p.Title,
			Slug:          p.Slug,
			Content:       p.Content,
			Excerpt:       p.Excerpt,
			Tags:          p.Tags,
			FeaturedImage: p.FeaturedImage,
			Comments:      make([]model.CommentView, 0, len(p.Comments)),
			ViewCount:     p.ViewCount,
			IsPublished:   p.IsPublished,
			CreatedAt:     p.CreatedAt,
			UpdatedAt:     p.UpdatedAt,
		}
		if view.Tags == nil {
			view.Tags = []string{}
		}
		if u, ok := usersByID[p.Author]; ok {
			view.Author = u.AuthorSummary()
		}
		if c, ok := categoriesByID[p.Category]; ok {
			view.Category = c.Summary()
		}
		for _, c := range p.Comments {
			cv := model.CommentView{ID: c.ID, Content: c.Content, CreatedAt: c.CreatedAt}
			if u, ok := usersByID[c.User]; ok {
				cv.User = u.CommenterSummary()
			}
			view.Comments = append(view.Comments, cv)
		}
		if p.FeaturedImage != "" && s.files != nil {
			url, err := s.files.GetURL(ctx, p.FeaturedImage)
			if err != nil {
				s.logger.Warn("failed to sign featured image url", zap.String("key", p.FeaturedImage), zap.Error(err))
			} else {
				view.FeaturedImageURL = url
			}
		}
		views = append(views, view)
	}
	return views, nil
}

type idSet struct {
	seen map[string]bool
	ids  []string
}

func newIDSet() *idSet {
	return &idSet{seen: map[string]bool{}, ids: []string{}}
}

func (s *idSet) add(id string) {
	if id == "" || s.seen[id] {
		return
	}
	s.seen[id] = true
	s.ids = append(s.ids, id)
}
