package model

import "time"

// DefaultCategories are created at startup when missing.
var DefaultCategories = []string{
	"Technology",
	"Engineering",
	"News",
	"Innovation",
	"Education",
	"Lifestyle",
}

type Category struct {
	ID        string    `bson:"_id,omitempty" json:"_id"`
	Name      string    `bson:"name" json:"name"`
	Slug      string    `bson:"slug" json:"slug"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

func (Category) GetCollectionName() string {
	return "categories"
}

func (c Category) Summary() *CategorySummary {
	return &CategorySummary{ID: c.ID, Name: c.Name, Slug: c.Slug}
}
