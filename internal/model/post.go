package model

import (
	"time"
)

const ExcerptLength = 200

type Post struct {
	ID            string    `bson:"_id,omitempty" json:"_id"`
	Title         string    `bson:"title" json:"title"`
	Slug          string    `bson:"slug" json:"slug"`
	Content       string    `bson:"content" json:"content"`
	Excerpt       string    `bson:"excerpt" json:"excerpt"`
	Tags          []string  `bson:"tags" json:"tags"`
	FeaturedImage string    `bson:"featuredImage,omitempty" json:"featuredImage,omitempty"`
	Author        string    `bson:"author" json:"author"`
	Category      string    `bson:"category" json:"category"`
	Comments      []Comment `bson:"comments" json:"comments"`
	ViewCount     int64     `bson:"viewCount" json:"viewCount"`
	IsPublished   bool      `bson:"isPublished" json:"isPublished"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (Post) GetCollectionName() string {
	return "posts"
}

// Comment is embedded in its post and never changes once appended.
type Comment struct {
	ID        string    `bson:"_id" json:"_id"`
	User      string    `bson:"user" json:"user"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type AuthorSummary struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

type CategorySummary struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type CommenterSummary struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

type CommentView struct {
	ID        string            `json:"_id"`
	User      *CommenterSummary `json:"user"`
	Content   string            `json:"content"`
	CreatedAt time.Time         `json:"createdAt"`
}

// PostView is a post with its references replaced by summaries. A reference
// that no longer resolves is rendered as null.
type PostView struct {
	ID               string           `json:"_id"`
	Title            string           `json:"title"`
	Slug             string           `json:"slug"`
	Content          string           `json:"content"`
	Excerpt          string           `json:"excerpt"`
	Tags             []string         `json:"tags"`
	FeaturedImage    string           `json:"featuredImage,omitempty"`
	FeaturedImageURL string           `json:"featuredImageUrl,omitempty"`
	Author           *AuthorSummary   `json:"author"`
	Category         *CategorySummary `json:"category"`
	Comments         []CommentView    `json:"comments"`
	ViewCount        int64            `json:"viewCount"`
	IsPublished      bool             `json:"isPublished"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}
