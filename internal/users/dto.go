package users

import "time"

// UserResponse is the REST shape of a user.
type UserResponse struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	ExternalID    *string    `json:"externalId"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	FullName      string     `json:"fullName"`
	Nickname      string     `json:"nickname"`
	Picture       string     `json:"picture"`
	EmailVerified bool       `json:"emailVerified"`
	IsActive      bool       `json:"isActive"`
	LastLogin     *time.Time `json:"lastLogin"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type listResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
}

type listQuery struct {
	Skip  int  `form:"skip" binding:"min=0"`
	Limit *int `form:"limit" binding:"omitempty,min=1,max=100"`
}

type createUserRequest struct {
	Email      string `json:"email" binding:"required,email"`
	ExternalID string `json:"externalId" binding:"omitempty,max=255"`
	FirstName  string `json:"firstName" binding:"omitempty,max=255"`
	LastName   string `json:"lastName" binding:"omitempty,max=255"`
	Nickname   string `json:"nickname" binding:"omitempty,max=255"`
	Picture    string `json:"picture" binding:"omitempty,url"`
}

type updateUserRequest struct {
	Email     *string `json:"email" binding:"omitempty,email"`
	FirstName *string `json:"firstName" binding:"omitempty,max=255"`
	LastName  *string `json:"lastName" binding:"omitempty,max=255"`
	Nickname  *string `json:"nickname" binding:"omitempty,max=255"`
	Picture   *string `json:"picture" binding:"omitempty,url"`
	IsActive  *bool   `json:"isActive"`
}

// ToResponse maps a user onto its REST shape.
func ToResponse(u User) UserResponse {
	resp := UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.GivenName,
		LastName:      u.FamilyName,
		FullName:      u.FullName(),
		Nickname:      u.Nickname,
		Picture:       u.Picture,
		EmailVerified: u.EmailVerified,
		IsActive:      u.Active,
		LastLogin:     u.LastLogin,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
	if u.ExternalID != "" {
		ext := u.ExternalID
		resp.ExternalID = &ext
	}
	return resp
}

func toResponses(list []User) []UserResponse {
	out := make([]UserResponse, 0, len(list))
	for _, u := range list {
		out = append(out, ToResponse(u))
	}
	return out
}
