package ports

import "sambou/models"

// DeadlineCatalog is the static department list and deadline lookup
type DeadlineCatalog interface {
	// Departments returns the candidate department names sent to the ranking oracle
	Departments() []string

	// Lookup returns the window for a department. When the department has no explicit
	// entry the first configured window is returned and fallback is true.
	Lookup(department string) (window models.DeadlineWindow, fallback bool)
}
