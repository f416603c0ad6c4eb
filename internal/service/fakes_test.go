package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klass-lk/blogboot"
	"github.com/klass-lk/blogboot/internal/model"
	"github.com/klass-lk/blogboot/internal/repository"
)

type fakePostStore struct {
	mu           sync.Mutex
	posts        map[string]model.Post
	insertErr    error
	incrementErr error
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{posts: map[string]model.Post{}}
}

func (s *fakePostStore) Insert(_ context.Context, post model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	for _, p := range s.posts {
		if p.Slug == post.Slug {
			return errors.New("duplicate slug")
		}
	}
	s.posts[post.ID] = post
	return nil
}

func (s *fakePostStore) FindByID(_ context.Context, id string) (model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return model.Post{}, repository.ErrNotFound
	}
	return p, nil
}

func (s *fakePostStore) FindByIDOrSlug(_ context.Context, idOrSlug string) (model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.ID == idOrSlug || p.Slug == idOrSlug {
			return p, nil
		}
	}
	return model.Post{}, repository.ErrNotFound
}

func (s *fakePostStore) IncrementViewCount(_ context.Context, id string) (model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.incrementErr != nil {
		return model.Post{}, s.incrementErr
	}
	p, ok := s.posts[id]
	if !ok {
		return model.Post{}, repository.ErrNotFound
	}
	p.ViewCount++
	s.posts[id] = p
	return p, nil
}

func (s *fakePostStore) Update(_ context.Context, id string, fields map[string]interface{}) (model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return model.Post{}, repository.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "title":
			p.Title = v.(string)
		case "slug":
			p.Slug = v.(string)
		case "content":
			p.Content = v.(string)
		case "excerpt":
			p.Excerpt = v.(string)
		case "category":
			p.Category = v.(string)
		case "tags":
			p.Tags = v.([]string)
		case "isPublished":
			p.IsPublished = v.(bool)
		case "featuredImage":
			p.FeaturedImage = v.(string)
		case "updatedAt":
			p.UpdatedAt = v.(time.Time)
		}
	}
	s.posts[id] = p
	return p, nil
}

func (s *fakePostStore) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *fakePostStore) AppendComment(_ context.Context, id string, comment model.Comment) (model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return model.Post{}, repository.ErrNotFound
	}
	p.Comments = append(append([]model.Comment{}, p.Comments...), comment)
	s.posts[id] = p
	return p, nil
}

func (s *fakePostStore) sorted(match func(model.Post) bool) []model.Post {
	var out []model.Post
	for _, p := range s.posts {
		if match(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *fakePostStore) List(_ context.Context, req blogboot.PageRequest, filter repository.PostFilter) (blogboot.PageResponse[model.Post], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.sorted(func(p model.Post) bool {
		return (filter.Category == "" || p.Category == filter.Category) &&
			(filter.Author == "" || p.Author == filter.Author)
	})
	start := int(req.Skip())
	if start > len(all) {
		start = len(all)
	}
	end := start + req.Limit
	if end > len(all) {
		end = len(all)
	}
	return blogboot.NewPageResponse(all[start:end], int64(len(all)), req), nil
}

func (s *fakePostStore) Search(_ context.Context, pattern string) ([]model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}
	return s.sorted(func(p model.Post) bool {
		if re.MatchString(p.Title) || re.MatchString(p.Content) {
			return true
		}
		for _, tag := range p.Tags {
			if re.MatchString(tag) {
				return true
			}
		}
		return false
	}), nil
}

type fakeCategoryStore struct {
	mu         sync.Mutex
	categories map[string]model.Category
}

func newFakeCategoryStore(categories ...model.Category) *fakeCategoryStore {
	s := &fakeCategoryStore{categories: map[string]model.Category{}}
	for _, c := range categories {
		s.categories[c.ID] = c
	}
	return s
}

func (s *fakeCategoryStore) FindByID(_ context.Context, id string) (model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return model.Category{}, repository.ErrNotFound
	}
	return c, nil
}

func (s *fakeCategoryStore) FindByNameOrSlug(_ context.Context, value string) (model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Name == value || c.Slug == value {
			return c, nil
		}
	}
	return model.Category{}, repository.ErrNotFound
}

func (s *fakeCategoryStore) FindAllByID(_ context.Context, ids []string) ([]model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Category
	for _, id := range ids {
		if c, ok := s.categories[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeCategoryStore) FindAll(_ context.Context) ([]model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *fakeCategoryStore) Insert(_ context.Context, category model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Name == category.Name || c.Slug == category.Slug {
			return errors.New("duplicate category")
		}
	}
	s.categories[category.ID] = category
	return nil
}

func (s *fakeCategoryStore) EnsureSeeded(_ context.Context, categories []model.Category) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := 0
	for _, c := range categories {
		exists := false
		for _, existing := range s.categories {
			if existing.Name == c.Name {
				exists = true
				break
			}
		}
		if !exists {
			c.ID = "seed-" + c.Slug
			s.categories[c.ID] = c
			created++
		}
	}
	return created, nil
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newFakeUserStore(users ...model.User) *fakeUserStore {
	s := &fakeUserStore{users: map[string]model.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) Insert(_ context.Context, user model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *fakeUserStore) FindAllByID(_ context.Context, ids []string) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeFileService struct {
	mu        sync.Mutex
	files     map[string][]byte
	deleted   []string
	uploadErr error
}

func newFakeFileService() *fakeFileService {
	return &fakeFileService{files: map[string][]byte{}}
}

func (f *fakeFileService) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[key] = buf.Bytes()
	return nil
}

func (f *fakeFileService) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeFileService) GetURL(_ context.Context, key string) (string, error) {
	return "https://files.example/" + key, nil
}
