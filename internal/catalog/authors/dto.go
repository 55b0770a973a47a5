package authors

import "time"

type CreateAuthorRequest struct {
	FirstName   string  `json:"first_name" binding:"required"`
	LastName    string  `json:"last_name" binding:"required"`
	Nationality *string `json:"nationality,omitempty"`
	// "2006-01-02" (DATE)
	BirthDate *string `json:"birth_date,omitempty"`
	Biography *string `json:"biography,omitempty"`
}

// UpdateAuthorRequest is a patch: nil fields are left untouched.
type UpdateAuthorRequest struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	Nationality *string `json:"nationality,omitempty"`
	BirthDate   *string `json:"birth_date,omitempty"`
	Biography   *string `json:"biography,omitempty"`
}

type AuthorResponse struct {
	AuthorID    int64      `json:"author_id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Nationality *string    `json:"nationality,omitempty"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	Biography   *string    `json:"biography,omitempty"`
	BookCount   *int       `json:"book_count,omitempty"`
}

func toResponse(a *Author) AuthorResponse {
	resp := AuthorResponse{
		AuthorID:  a.AuthorID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
	}
	if a.Nationality.Valid {
		val := a.Nationality.String
		resp.Nationality = &val
	}
	if a.BirthDate.Valid {
		val := a.BirthDate.Time
		resp.BirthDate = &val
	}
	if a.Biography.Valid {
		val := a.Biography.String
		resp.Biography = &val
	}
	return resp
}
