// Package content holds the portfolio's sections and the navigation state
// that decides which one is on screen.
package content

import (
	_ "embed"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/wangQuinn/portfolio/internal/typewriter"
)

//go:embed sections.yaml
var defaultSections []byte

// Section ids with dedicated layouts.
const (
	SectionIntro     = "intro"
	SectionAbout     = "about"
	SectionEducation = "education"
	SectionSkills    = "skills"
	SectionProjects  = "projects"
	SectionContact   = "contact"
)

// Typewriter timings used by the page.
const (
	HeadingSpeed = 80 * time.Millisecond
	TaglineSpeed = 40 * time.Millisecond
)

// Portfolio is the whole content table.
type Portfolio struct {
	Owner       string    `yaml:"owner" validate:"required"`
	WindowTitle string    `yaml:"window_title"`
	Sections    []Section `yaml:"sections" validate:"required,min=1,dive"`
}

type Section struct {
	ID           string           `yaml:"id" validate:"required"`
	Title        string           `yaml:"title" validate:"required"`
	Subtitle     []string         `yaml:"subtitle,omitempty"`
	Descriptions []string         `yaml:"descriptions,omitempty"`
	Content      string           `yaml:"content,omitempty"`
	Education    []EducationItem  `yaml:"education,omitempty" validate:"dive"`
	Experience   []ExperienceItem `yaml:"experience,omitempty" validate:"dive"`
	Projects     []ProjectItem    `yaml:"projects,omitempty" validate:"dive"`
	Categories   []Category       `yaml:"categories,omitempty" validate:"dive"`
	Email        string           `yaml:"email,omitempty" validate:"omitempty,email"`
	Links        []Link           `yaml:"links,omitempty" validate:"dive"`
}

type EducationItem struct {
	Title       string   `yaml:"title" validate:"required"`
	Period      string   `yaml:"period"`
	Description string   `yaml:"description"`
	Awards      []string `yaml:"awards,omitempty"`
	Details     []string `yaml:"details,omitempty"`
}

type ExperienceItem struct {
	Title  string   `yaml:"title" validate:"required"`
	Period string   `yaml:"period"`
	Points []string `yaml:"points,omitempty"`
}

type ProjectItem struct {
	Title  string   `yaml:"title" validate:"required"`
	Period string   `yaml:"period"`
	URL    string   `yaml:"url,omitempty" validate:"omitempty,url"`
	Tech   []string `yaml:"tech,omitempty"`
	Points []string `yaml:"points,omitempty"`
}

type Category struct {
	Name  string   `yaml:"name" validate:"required"`
	Items []string `yaml:"items"`
}

type Link struct {
	Name string `yaml:"name" validate:"required"`
	URL  string `yaml:"url" validate:"required,url"`
}

// FileName is how the section is listed in the directory panel.
func (s Section) FileName() string {
	return strings.ToLower(s.Title) + ".txt"
}

// HeadingTypewriter types the section title once.
func (s Section) HeadingTypewriter() typewriter.Config {
	return typewriter.Config{
		Texts: []string{s.Title},
		Speed: HeadingSpeed,
		Delay: typewriter.DefaultDelay,
		Loop:  false,
	}
}

// TaglineTypewriter cycles through the section's descriptions.
func (s Section) TaglineTypewriter() typewriter.Config {
	return typewriter.Config{
		Texts: s.Descriptions,
		Speed: TaglineSpeed,
		Delay: typewriter.DefaultDelay,
		Loop:  true,
	}
}

// Load reads the portfolio from path, or the embedded default when path is
// empty.
func Load(path string) (*Portfolio, error) {
	data := defaultSections
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read content file")
		}
	}
	return Parse(data)
}

// Parse decodes and validates a YAML content table.
func Parse(data []byte) (*Portfolio, error) {
	var p Portfolio
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, "failed to parse content")
	}
	for i := range p.Sections {
		p.Sections[i].ID = strings.TrimSpace(p.Sections[i].ID)
	}
	if p.WindowTitle == "" {
		p.WindowTitle = p.Owner + " - Portfolio"
	}
	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "content validation failed")
	}
	return &p, nil
}

func (p *Portfolio) Validate() error {
	if err := validator.New().Struct(p); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	seen := make(map[string]bool, len(p.Sections))
	for _, s := range p.Sections {
		if seen[s.ID] {
			return errors.Newf("duplicate section id %q", s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// Index returns the position of the section with the given id, or -1.
func (p *Portfolio) Index(id string) int {
	id = strings.TrimSpace(id)
	for i, s := range p.Sections {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Outbound is an external link routed through the click counter.
type Outbound struct {
	Code  string
	Label string
	URL   string
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases s and collapses anything but letters and digits to dashes.
func Slug(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// Outbound lists every external URL in the portfolio with a stable code.
func (p *Portfolio) Outbound() []Outbound {
	var out []Outbound
	for _, s := range p.Sections {
		for _, pr := range s.Projects {
			if pr.URL == "" {
				continue
			}
			out = append(out, Outbound{Code: pr.LinkCode(s.ID), Label: pr.Title, URL: pr.URL})
		}
		for _, l := range s.Links {
			out = append(out, Outbound{Code: l.Code(), Label: l.Name, URL: l.URL})
		}
	}
	return out
}

// Code is the outbound code of a contact link.
func (l Link) Code() string { return Slug(l.Name) }

// LinkCode is the outbound code of a project in section sectionID.
func (pr ProjectItem) LinkCode(sectionID string) string {
	return Slug(sectionID + " " + pr.Title)
}
