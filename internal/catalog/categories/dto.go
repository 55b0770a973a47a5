package categories

type CreateCategoryRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description,omitempty"`
}

// UpdateCategoryRequest is a patch: nil fields are left untouched.
type UpdateCategoryRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type CategoryResponse struct {
	CategoryID  int64   `json:"category_id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	BookCount   *int    `json:"book_count,omitempty"`
}

func toResponse(c *Category) CategoryResponse {
	resp := CategoryResponse{
		CategoryID: c.CategoryID,
		Name:       c.Name,
	}
	if c.Description.Valid {
		val := c.Description.String
		resp.Description = &val
	}
	return resp
}
