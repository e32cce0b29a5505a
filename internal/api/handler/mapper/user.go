package mapper

import (
	"blueprint/internal/api/handler/request"
	"blueprint/internal/api/handler/response"
	"blueprint/internal/api/models"
)

type UserMapper struct{}

func (slf UserMapper) DtoToUpdate(req request.UpdateUser, user *models.User) {
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Prenom != nil {
		user.Prenom = *req.Prenom
	}
	if req.Nom != nil {
		user.Nom = *req.Nom
	}
	if req.Actif != nil {
		user.Actif = *req.Actif
	}
}

func (slf UserMapper) EntityToUserResponse(user models.User) response.UserResponseDTO {
	return response.UserResponseDTO{
		ID:     user.ID,
		Email:  user.Email,
		Prenom: user.Prenom,
		Nom:    user.Nom,
		Actif:  user.Actif,
	}
}

func (slf UserMapper) EntitiesToUserResponses(users []models.User) []response.UserResponseDTO {
	out := make([]response.UserResponseDTO, 0, len(users))
	for _, user := range users {
		out = append(out, slf.EntityToUserResponse(user))
	}
	return out
}
