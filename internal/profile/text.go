package profile

import "strings"

const emptyField = "None"

type field struct {
	label string
	value string
}

// Text renders the candidate in the canonical form used for embedding.
// The output depends only on the candidate fields, so re-embedding the same
// profile always produces the same document.
func (c *Candidate) Text() string {
	return render([]field{
		{"Skills", list(c.Skills)},
		{"Experience", c.Experience.String()},
		{"Track", c.Track},
		{"Interests", list(c.Interests)},
		{"Education", c.Education},
	})
}

// Text renders the job in the canonical form used for embedding.
func (j *Job) Text() string {
	return render([]field{
		{"Title", j.Title},
		{"Company", j.Company},
		{"Skills", list(j.RequiredSkills)},
		{"Experience", j.Experience.String()},
		{"Track", j.Track},
		{"Type", j.JobType},
		{"Location", j.Location},
	})
}

func render(fields []field) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteString("\n")
		}
		value := strings.TrimSpace(f.value)
		if value == "" {
			value = emptyField
		}
		b.WriteString(f.label)
		b.WriteString(": ")
		b.WriteString(value)
	}
	return b.String()
}

func list(items []string) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			parts = append(parts, item)
		}
	}
	return strings.Join(parts, ", ")
}
