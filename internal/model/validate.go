package model

import (
	"errors"
	"fmt"
)

var ErrInvalidRecord = errors.New("record failed enqueue validation")

// ValidateForEnqueue applies the producer-side required-field checks. A
// record that fails here must never be handed to the upload pipeline; the
// orchestrator assumes this has already passed and does not re-validate.
func ValidateForEnqueue(rec *LocalRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: nil record", ErrInvalidRecord)
	}
	if rec.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}
	p := rec.Payload
	if p.Title == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidRecord)
	}
	if p.CategoryID == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidRecord)
	}
	if p.InstitutionID == "" {
		return fmt.Errorf("%w: missing institution", ErrInvalidRecord)
	}
	if len(p.Languages) == 0 {
		return fmt.Errorf("%w: at least one language is required", ErrInvalidRecord)
	}
	if p.DefaultLanguage == "" {
		return fmt.Errorf("%w: missing default language", ErrInvalidRecord)
	}
	if !contains(p.Languages, p.DefaultLanguage) {
		return fmt.Errorf("%w: default language %q is not in the declared language set", ErrInvalidRecord, p.DefaultLanguage)
	}
	// Field placements must reference pages that exist in the primary variant.
	if rec.PrimaryBlob != nil {
		for i, f := range p.Fields {
			if f.Position != nil && (f.Position.Page < 1 || f.Position.Page > rec.PrimaryBlob.PageCount) {
				return fmt.Errorf("%w: field %d references page %d outside primary variant (%d pages)",
					ErrInvalidRecord, i, f.Position.Page, rec.PrimaryBlob.PageCount)
			}
		}
	}
	return nil
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}
