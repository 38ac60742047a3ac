package models

import (
	"github.com/google/uuid"
)

// Session is the verified identity of one request, decoded from the access
// token without a database lookup. It lives in the request context and is
// discarded when the request ends.
type Session struct {
	UserID uuid.UUID
	Email  string
	Role   string
}
