package upload

import "github.com/dineshlahiru/forms.lk-sub000/internal/model"

// documentFields flattens a payload and its committed variants into the
// wire-format map for the document store. The store rejects nil-valued
// keys, so optional fields with no value are omitted entirely rather than
// written as null or empty. This is the single sanitization point; call
// sites must not add conditional-inclusion logic of their own.
func documentFields(p model.FormPayload, variants []model.RemoteVariant) map[string]any {
	doc := map[string]any{
		"title":            p.Title,
		"category_id":      p.CategoryID,
		"institution_id":   p.InstitutionID,
		"languages":        p.Languages,
		"default_language": p.DefaultLanguage,
		"field_count":      len(p.Fields),
	}

	if p.ContactInfo.Phone != "" {
		doc["contact_phone"] = p.ContactInfo.Phone
	}
	if p.ContactInfo.Email != "" {
		doc["contact_email"] = p.ContactInfo.Email
	}
	if p.ContactInfo.Address != "" {
		doc["contact_address"] = p.ContactInfo.Address
	}
	if len(p.Tags) > 0 {
		doc["tags"] = p.Tags
	}

	if len(variants) > 0 {
		vs := make([]map[string]any, 0, len(variants))
		for _, v := range variants {
			m := map[string]any{
				"language":     v.Language,
				"storage_path": v.StoragePath,
				"page_count":   v.PageCount,
				"byte_size":    v.ByteSize,
			}
			if len(v.ThumbnailPaths) > 0 {
				m["thumbnail_paths"] = v.ThumbnailPaths
			}
			vs = append(vs, m)
		}
		doc["variants"] = vs
	}

	return doc
}

// fieldRecord builds the wire-format map for one field child. Order is not
// part of the record; the document store assigns it from the append call.
func fieldRecord(f model.FieldSpec) map[string]any {
	m := map[string]any{
		"type":     f.Type,
		"required": f.Required,
	}
	if len(f.Labels) > 0 {
		m["labels"] = f.Labels
	}
	if f.Position != nil {
		m["position"] = map[string]any{
			"page":   f.Position.Page,
			"x":      f.Position.X,
			"y":      f.Position.Y,
			"width":  f.Position.Width,
			"height": f.Position.Height,
		}
	}
	return m
}
