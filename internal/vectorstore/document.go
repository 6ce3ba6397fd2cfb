package vectorstore

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/jobmatch/internal/profile"
)

// Metadata is the typed view of a document's metadata map.
type Metadata struct {
	Type       DocType `mapstructure:"type"`
	EntityID   string  `mapstructure:"entity_id"`
	Name       string  `mapstructure:"name"`
	Track      string  `mapstructure:"track"`
	Experience string  `mapstructure:"experience"`
}

// DocumentID namespaces an entity id by type so candidates and jobs can
// share one collection.
func DocumentID(docType DocType, id string) string {
	return fmt.Sprintf("%s:%s", docType, strings.TrimSpace(id))
}

// CandidateDocument projects a candidate into an embeddable document.
func CandidateDocument(c *profile.Candidate) Document {
	return Document{
		ID:   DocumentID(DocCandidate, c.ID),
		Text: c.Text(),
		Type: DocCandidate,
		Metadata: map[string]any{
			"type":       string(DocCandidate),
			"entity_id":  c.ID,
			"name":       c.Name,
			"track":      c.Track,
			"experience": c.Experience.String(),
		},
	}
}

// JobDocument projects a job into an embeddable document.
func JobDocument(j *profile.Job) Document {
	return Document{
		ID:   DocumentID(DocJob, j.ID),
		Text: j.Text(),
		Type: DocJob,
		Metadata: map[string]any{
			"type":       string(DocJob),
			"entity_id":  j.ID,
			"name":       j.Title,
			"track":      j.Track,
			"experience": j.Experience.String(),
		},
	}
}

// DecodeMetadata converts a raw metadata map into Metadata. Unknown keys are
// ignored and scalar types are coerced.
func DecodeMetadata(raw map[string]any) (Metadata, error) {
	var md Metadata
	if raw == nil {
		return md, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &md,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return md, err
	}

	if err := decoder.Decode(raw); err != nil {
		return md, fmt.Errorf("decode metadata: %w", err)
	}

	return md, nil
}
