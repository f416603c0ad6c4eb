package controller

import (
	"github.com/klass-lk/blogboot"
	"github.com/klass-lk/blogboot/internal/model"
)

type dataResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type listResponse struct {
	Success bool `json:"success"`
	blogboot.PageResponse[model.PostView]
}

type searchResponse struct {
	Success bool             `json:"success"`
	Count   int              `json:"count"`
	Data    []model.PostView `json:"data"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type authResponse struct {
	Success      bool       `json:"success"`
	Token        string     `json:"token"`
	RefreshToken string     `json:"refreshToken"`
	User         model.User `json:"user"`
}

type userResponse struct {
	Success bool       `json:"success"`
	User    model.User `json:"user"`
}

func ok(data interface{}) dataResponse {
	return dataResponse{Success: true, Data: data}
}
