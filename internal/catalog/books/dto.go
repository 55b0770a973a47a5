package books

type CreateBookRequest struct {
	Title       string  `json:"title" binding:"required"`
	ISBN        string  `json:"isbn" binding:"required"`
	AuthorID    int64   `json:"author_id" binding:"required"`
	CategoryID  int64   `json:"category_id" binding:"required"`
	Publisher   *string `json:"publisher,omitempty"`
	Pages       *int    `json:"pages,omitempty"`
	TotalCopies int     `json:"total_copies"`
	Description *string `json:"description,omitempty"`
}

// UpdateBookRequest is a patch: nil fields are left untouched.
// available_copies is deliberately absent, only the loan manager moves it.
type UpdateBookRequest struct {
	Title       *string `json:"title,omitempty"`
	ISBN        *string `json:"isbn,omitempty"`
	AuthorID    *int64  `json:"author_id,omitempty"`
	CategoryID  *int64  `json:"category_id,omitempty"`
	Publisher   *string `json:"publisher,omitempty"`
	Pages       *int    `json:"pages,omitempty"`
	TotalCopies *int    `json:"total_copies,omitempty"`
	Description *string `json:"description,omitempty"`
}

type BookResponse struct {
	BookID          int64   `json:"book_id"`
	Title           string  `json:"title"`
	ISBN            string  `json:"isbn"`
	AuthorID        int64   `json:"author_id"`
	AuthorName      string  `json:"author_name,omitempty"`
	CategoryID      int64   `json:"category_id"`
	CategoryName    string  `json:"category_name,omitempty"`
	Publisher       *string `json:"publisher,omitempty"`
	Pages           *int    `json:"pages,omitempty"`
	TotalCopies     int     `json:"total_copies"`
	AvailableCopies int     `json:"available_copies"`
	Description     *string `json:"description,omitempty"`
}

func toResponse(r *BookRow) BookResponse {
	resp := BookResponse{
		BookID:          r.BookID,
		Title:           r.Title,
		ISBN:            r.ISBN,
		AuthorID:        r.AuthorID,
		AuthorName:      r.AuthorName,
		CategoryID:      r.CategoryID,
		CategoryName:    r.CategoryName,
		TotalCopies:     r.TotalCopies,
		AvailableCopies: r.AvailableCopies,
	}
	if r.Publisher.Valid {
		val := r.Publisher.String
		resp.Publisher = &val
	}
	if r.Pages.Valid {
		val := int(r.Pages.Int32)
		resp.Pages = &val
	}
	if r.Description.Valid {
		val := r.Description.String
		resp.Description = &val
	}
	return resp
}
