package deadlines

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"sambou/internal/errors"
	"sambou/models"

	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Departments []string `yaml:"departments"`
	Deadlines   []struct {
		Department string `yaml:"department"`
		Open       string `yaml:"open"`
		Deadline   string `yaml:"deadline"`
	} `yaml:"deadlines"`
}

// Catalog holds the candidate departments and their application windows
type Catalog struct {
	departments []string
	windows     []models.DeadlineWindow
	index       map[string]int
}

// DefaultCatalog returns the embedded catalog
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// LoadCatalog reads a YAML catalog; an empty path yields the embedded one
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read catalog %s", path)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("parse catalog: %w", err))
	}

	windows := make([]models.DeadlineWindow, 0, len(file.Deadlines))
	for i, d := range file.Deadlines {
		open, err := time.Parse(dateLayout, strings.TrimSpace(d.Open))
		if err != nil {
			return nil, errors.ConfigInvalid(fmt.Sprintf("deadline %d: bad open date %q", i, d.Open))
		}
		deadline, err := time.Parse(dateLayout, strings.TrimSpace(d.Deadline))
		if err != nil {
			return nil, errors.ConfigInvalid(fmt.Sprintf("deadline %d: bad deadline date %q", i, d.Deadline))
		}
		windows = append(windows, models.DeadlineWindow{
			DepartmentName:      strings.TrimSpace(d.Department),
			ApplicationOpen:     open,
			ApplicationDeadline: deadline,
		})
	}

	departments := make([]string, 0, len(file.Departments))
	for _, d := range file.Departments {
		if d = strings.TrimSpace(d); d != "" {
			departments = append(departments, d)
		}
	}
	return NewCatalog(departments, windows)
}

// NewCatalog validates windows and builds the lookup index
func NewCatalog(departments []string, windows []models.DeadlineWindow) (*Catalog, error) {
	if len(windows) == 0 {
		return nil, errors.ConfigInvalid("catalog has no deadline windows")
	}
	c := &Catalog{
		departments: departments,
		windows:     windows,
		index:       make(map[string]int, len(windows)),
	}
	for i, w := range windows {
		if w.DepartmentName == "" {
			return nil, errors.ConfigInvalid(fmt.Sprintf("deadline %d has no department", i))
		}
		if w.ApplicationDeadline.Before(w.ApplicationOpen) {
			return nil, errors.ConfigInvalid(fmt.Sprintf("%s closes before it opens", w.DepartmentName))
		}
		c.index[normalize(w.DepartmentName)] = i
	}
	if len(c.departments) == 0 {
		for _, w := range windows {
			c.departments = append(c.departments, w.DepartmentName)
		}
	}
	return c, nil
}

// Departments returns the candidate department names
func (c *Catalog) Departments() []string {
	out := make([]string, len(c.departments))
	copy(out, c.departments)
	return out
}

// Windows returns every configured window in order
func (c *Catalog) Windows() []models.DeadlineWindow {
	out := make([]models.DeadlineWindow, len(c.windows))
	copy(out, c.windows)
	return out
}

// Lookup returns the window for a department, falling back to the first configured one
func (c *Catalog) Lookup(department string) (models.DeadlineWindow, bool) {
	if i, ok := c.index[normalize(department)]; ok {
		return c.windows[i], false
	}
	return c.windows[0], true
}

// WithWindows returns a copy of the catalog whose windows are replaced by or
// merged with the given ones; windows for known departments overwrite in place.
func (c *Catalog) WithWindows(windows []models.DeadlineWindow) (*Catalog, error) {
	merged := c.Windows()
	index := make(map[string]int, len(c.index))
	for k, v := range c.index {
		index[k] = v
	}
	for _, w := range windows {
		if i, ok := index[normalize(w.DepartmentName)]; ok {
			merged[i] = w
			continue
		}
		index[normalize(w.DepartmentName)] = len(merged)
		merged = append(merged, w)
	}
	return NewCatalog(c.Departments(), merged)
}

func normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
