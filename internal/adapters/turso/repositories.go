package turso

import (
	"database/sql"

	"github.com/emiliopalmerini/mpylon/internal/ports"
)

// Repositories holds all turso repository implementations as port interfaces.
type Repositories struct {
	Schemas     ports.SchemaRepository
	DispatchLog ports.DispatchLogRepository
}

// NewRepositories creates all turso repository implementations from a database connection.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Schemas:     NewSchemaRepository(db),
		DispatchLog: NewDispatchLogRepository(db),
	}
}
