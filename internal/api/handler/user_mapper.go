package handler

import (
	"strconv"

	"github.com/apiusers/user-service/internal/core/domain"
	"github.com/apiusers/user-service/internal/core/ports"
)

func toUserView(u *domain.User) userView {
	return userView{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Active: u.Active,
	}
}

func toUserViews(users []*domain.User) []userView {
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, toUserView(u))
	}
	return out
}

func toCreateInput(req createUserRequest, idempotencyKey string) ports.CreateUserInput {
	return ports.CreateUserInput{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		IdempotencyKey: idempotencyKey,
	}
}

func toUpdateInput(req updateUserRequest) ports.UpdateUserInput {
	return ports.UpdateUserInput{
		Name:   req.Name,
		Email:  req.Email,
		Active: req.IsActive(),
	}
}

func userLocation(id int64) string {
	return "/users/" + strconv.FormatInt(id, 10)
}
