package httpx

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
)

// BindStrict decodes a JSON body rejecting unknown fields. Used for patch
// bodies where a misspelled field must fail loudly instead of being dropped.
func BindStrict(c *gin.Context, v any) error {
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
