package deadlines

import (
	"sambou/models"
	"sambou/ports"
)

// BuildTimeline turns the selected departments into chart rows sharing one date domain
func BuildTimeline(catalog ports.DeadlineCatalog, selected []models.RankedDepartment) models.DeadlineTimeline {
	timeline := models.DeadlineTimeline{Rows: make([]models.DeadlineRow, 0, len(selected))}

	for _, dept := range selected {
		key := dept.Key()
		window, fallback := catalog.Lookup(key.DepartmentName)
		row := models.DeadlineRow{
			Name:                key.Label(),
			UniversityName:      key.UniversityName,
			DepartmentName:      key.DepartmentName,
			ApplicationOpen:     window.ApplicationOpen,
			ApplicationDeadline: window.ApplicationDeadline,
			Fallback:            fallback,
		}
		if len(timeline.Rows) == 0 || row.ApplicationOpen.Before(timeline.DomainStart) {
			timeline.DomainStart = row.ApplicationOpen
		}
		if len(timeline.Rows) == 0 || row.ApplicationDeadline.After(timeline.DomainEnd) {
			timeline.DomainEnd = row.ApplicationDeadline
		}
		timeline.Rows = append(timeline.Rows, row)
	}
	return timeline
}
