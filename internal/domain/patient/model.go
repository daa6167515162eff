package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is the registration system's record as seen by the visit
// workflow. It is never written here.
type Patient struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
