// Package schema defines the input contract for resume analysis:
// structured resume content and an optional target job description.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
)

// PersonalInfo holds contact details from the resume header.
type PersonalInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	LinkedIn string `json:"linkedin"`
	Location string `json:"location,omitempty"`
}

// Experience is a single employment entry.
type Experience struct {
	Title     string   `json:"title"`
	Company   string   `json:"company"`
	StartDate string   `json:"start_date"` // YYYY-MM or YYYY
	EndDate   string   `json:"end_date"`   // YYYY-MM, YYYY, or "present"
	Bullets   []string `json:"bullets"`
}

// Education is a single education entry.
type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year,omitempty"`
}

// ResumeData is parsed resume content. Sections left empty are treated
// as missing by the signal engine.
type ResumeData struct {
	PersonalInfo *PersonalInfo `json:"personal_info,omitempty"`
	Summary      string        `json:"summary,omitempty"`
	Experience   []Experience  `json:"experience,omitempty"`
	Education    []Education   `json:"education,omitempty"`
	Skills       []string      `json:"skills,omitempty"`

	// RawText is the unstructured source text, used for format checks.
	RawText string `json:"raw_text,omitempty"`
}

// JobData is an optional target job description used for skill matching.
type JobData struct {
	Title           string   `json:"title"`
	RequiredSkills  []string `json:"required_skills"`
	PreferredSkills []string `json:"preferred_skills,omitempty"`
	Description     string   `json:"description,omitempty"`
}

// HasSection reports whether a named resume section carries content.
func (r *ResumeData) HasSection(name string) bool {
	switch name {
	case "personal_info":
		return r.PersonalInfo != nil
	case "summary":
		return r.Summary != ""
	case "experience":
		return len(r.Experience) > 0
	case "education":
		return len(r.Education) > 0
	case "skills":
		return len(r.Skills) > 0
	default:
		return false
	}
}

// AllBullets returns every experience bullet with its location label.
func (r *ResumeData) AllBullets() []LocatedBullet {
	var out []LocatedBullet
	for i, exp := range r.Experience {
		for j, b := range exp.Bullets {
			out = append(out, LocatedBullet{
				Text:     b,
				Location: fmt.Sprintf("experience[%d].bullets[%d]", i, j),
			})
		}
	}
	return out
}

// LocatedBullet pairs bullet text with its position in the resume.
type LocatedBullet struct {
	Text     string
	Location string
}

// LoadResume reads a ResumeData JSON file.
func LoadResume(path string) (*ResumeData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read resume %s: %w", path, err)
	}
	var r ResumeData
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse resume %s: %w", path, err)
	}
	return &r, nil
}

// LoadJob reads a JobData JSON file.
func LoadJob(path string) (*JobData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job %s: %w", path, err)
	}
	var j JobData
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("failed to parse job %s: %w", path, err)
	}
	return &j, nil
}
