package patrons

type CreatePatronRequest struct {
	MembershipNumber string  `json:"membership_number" binding:"required"`
	FirstName        string  `json:"first_name" binding:"required"`
	LastName         string  `json:"last_name" binding:"required"`
	Email            string  `json:"email" binding:"required"`
	Phone            *string `json:"phone,omitempty"`
	Address          *string `json:"address,omitempty"`
}

// UpdatePatronRequest is a patch: nil fields are left untouched. Status is
// flipped only through the activate/deactivate endpoints.
type UpdatePatronRequest struct {
	MembershipNumber *string `json:"membership_number,omitempty"`
	FirstName        *string `json:"first_name,omitempty"`
	LastName         *string `json:"last_name,omitempty"`
	Email            *string `json:"email,omitempty"`
	Phone            *string `json:"phone,omitempty"`
	Address          *string `json:"address,omitempty"`
}

type PatronResponse struct {
	PatronID         int64   `json:"patron_id"`
	MembershipNumber string  `json:"membership_number"`
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
	Email            string  `json:"email"`
	Phone            *string `json:"phone,omitempty"`
	Address          *string `json:"address,omitempty"`
	Status           Status  `json:"status"`
}

func toResponse(p *Patron) PatronResponse {
	resp := PatronResponse{
		PatronID:         p.PatronID,
		MembershipNumber: p.MembershipNumber,
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		Email:            p.Email,
		Status:           p.Status,
	}
	if p.Phone.Valid {
		val := p.Phone.String
		resp.Phone = &val
	}
	if p.Address.Valid {
		val := p.Address.String
		resp.Address = &val
	}
	return resp
}
