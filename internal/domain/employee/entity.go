package employee

import "time"

type Employee struct {
	ID        string
	Code      string
	FullName  string
	Timezone  string // IANA name, e.g. "Asia/Jakarta"
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
