// Package job defines job postings and the catalog that supplies them.
package job

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Maximum relevance score a posting can carry.
const maxMatchScore = 100

// WorkMode describes where the work happens.
type WorkMode string

// Work modes offered by postings.
const (
	Remote WorkMode = "Remote"
	Hybrid WorkMode = "Hybrid"
	OnSite WorkMode = "On-site"
)

// Job is an immutable job posting shown on a swipe card.
type Job struct {
	ID           string   `json:"id" koanf:"id"`
	Title        string   `json:"title" koanf:"title"`
	Company      string   `json:"company" koanf:"company"`
	Location     string   `json:"location" koanf:"location"`
	Mode         WorkMode `json:"type" koanf:"type"`
	Salary       string   `json:"salary" koanf:"salary"`
	Description  string   `json:"description" koanf:"description"`
	Requirements []string `json:"requirements" koanf:"requirements"`
	Benefits     []string `json:"benefits" koanf:"benefits"`
	Posted       string   `json:"posted" koanf:"posted"`
	Match        int      `json:"match" koanf:"match"` // precomputed relevance, 0..100
	CompanySize  string   `json:"company_size" koanf:"company_size"`
	Industry     string   `json:"industry" koanf:"industry"`
}

// Catalog supplies the ranked postings a swipe session cycles through.
type Catalog interface {
	// Ranked returns postings ordered by relevance, best first.
	Ranked(ctx context.Context) ([]Job, error)
}

// StaticCatalog serves a fixed list of postings.
type StaticCatalog struct {
	jobs []Job
}

// NewStaticCatalog builds a catalog over jobs. The slice is copied and ranked once.
func NewStaticCatalog(jobs []Job) *StaticCatalog {
	ranked := make([]Job, len(jobs))
	copy(ranked, jobs)
	Rank(ranked)
	return &StaticCatalog{jobs: ranked}
}

// Ranked returns a copy of the ranked postings.
func (c *StaticCatalog) Ranked(ctx context.Context) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ranked jobs: %w", err)
	}
	out := make([]Job, len(c.jobs))
	copy(out, c.jobs)
	return out, nil
}

// Lookup finds a posting by id.
func (c *StaticCatalog) Lookup(id string) (Job, bool) {
	for _, j := range c.jobs {
		if j.ID == id {
			return j, true
		}
	}
	return Job{}, false
}

// Rank sorts jobs by match score, highest first. Ties keep their input order.
func Rank(jobs []Job) {
	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].Match > jobs[j].Match
	})
}

// Validate checks a list of postings for usable ids and scores.
func Validate(jobs []Job) error {
	seen := make(map[string]struct{}, len(jobs))
	for i, j := range jobs {
		id := strings.TrimSpace(j.ID)
		if id == "" {
			return fmt.Errorf("job %d: %w", i, ErrMissingID)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("job %q: %w", id, ErrDuplicateID)
		}
		seen[id] = struct{}{}
		if j.Match < 0 || j.Match > maxMatchScore {
			return fmt.Errorf("job %q: match %d: %w", id, j.Match, ErrInvalidMatch)
		}
	}
	return nil
}

// Defaults returns the built-in postings.
func Defaults() []Job {
	return []Job{
		{
			ID:           "1",
			Title:        "Senior Frontend Developer",
			Company:      "TechCorp Inc.",
			Location:     "San Francisco, CA",
			Mode:         Remote,
			Salary:       "$95,000 - $120,000",
			Description:  "Join our dynamic team building next-generation web applications using React, TypeScript, and modern tools.",
			Requirements: []string{"5+ years React experience", "TypeScript proficiency", "Modern CSS/SCSS", "GraphQL knowledge"},
			Benefits:     []string{"Health insurance", "Remote work", "401k matching", "Learning budget"},
			Posted:       "2 days ago",
			Match:        95,
			CompanySize:  "100-500",
			Industry:     "Technology",
		},
		{
			ID:           "2",
			Title:        "Full Stack Engineer",
			Company:      "StartupXYZ",
			Location:     "New York, NY",
			Mode:         Hybrid,
			Salary:       "$110,000 - $140,000",
			Description:  "Build scalable web applications and APIs in a fast-paced startup environment.",
			Requirements: []string{"React/Node.js experience", "Database design", "AWS/Cloud platforms", "Agile methodology"},
			Benefits:     []string{"Equity package", "Flexible hours", "Health coverage", "Gym membership"},
			Posted:       "1 day ago",
			Match:        87,
			CompanySize:  "10-50",
			Industry:     "Fintech",
		},
		{
			ID:           "3",
			Title:        "React Developer",
			Company:      "Digital Agency",
			Location:     "Austin, TX",
			Mode:         OnSite,
			Salary:       "$80,000 - $100,000",
			Description:  "Create beautiful, responsive user interfaces for diverse clients.",
			Requirements: []string{"3+ years React", "Responsive design", "Figma/Design tools", "Client communication"},
			Benefits:     []string{"Creative environment", "Project variety", "Professional development", "Team events"},
			Posted:       "3 days ago",
			Match:        92,
			CompanySize:  "50-100",
			Industry:     "Marketing",
		},
	}
}
