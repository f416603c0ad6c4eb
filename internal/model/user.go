package model

import "time"

type User struct {
	ID        string    `bson:"_id,omitempty" json:"_id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	Password  string    `bson:"password" json:"-"`
	Avatar    string    `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Role      string    `bson:"role" json:"role"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

func (User) GetCollectionName() string {
	return "users"
}

func (u User) AuthorSummary() *AuthorSummary {
	return &AuthorSummary{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar}
}

func (u User) CommenterSummary() *CommenterSummary {
	return &CommenterSummary{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}
