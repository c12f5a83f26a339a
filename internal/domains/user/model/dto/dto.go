package dto

import (
	"venue/internal/domains/user/model"
	"venue/shared"
	"venue/shared/constant"
	gDto "venue/shared/dto"
	"venue/shared/timezone"
)

type UserResponse struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	FullName  *string    `json:"full_name,omitempty"`
	LastLogin *string    `json:"last_login,omitempty"`
	Active    bool       `json:"active"`
	gDto.Metadata
}

func (r *UserResponse) FromModel(user model.User) {
	r.ID = user.ID
	r.Username = user.Username
	r.Email = user.Email
	r.Role = user.Role
	r.FullName = user.FullName
	r.Active = user.Active
	r.Metadata.FromModel(user.Metadata)

	if user.LastLogin != nil {
		lastLogin := timezone.Format(*user.LastLogin, constant.DateFormat)
		r.LastLogin = &lastLogin
	}
}

type GetUsersResponse struct {
	Users     []UserResponse `json:"users"`
	TotalData int            `json:"total_data"`
	TotalPage int            `json:"total_page"`
}

func (r *GetUsersResponse) FromModels(users []model.User, total, limit int) {
	r.Users = make([]UserResponse, 0, len(users))

	for _, user := range users {
		var res UserResponse

		res.FromModel(user)
		r.Users = append(r.Users, res)
	}

	r.TotalData = total
	r.TotalPage = shared.CalculateTotalPage(total, limit)
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=requester administrator"`
}
