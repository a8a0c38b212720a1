package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dineshlahiru/forms.lk-sub000/internal/model"
)

func TestDocumentFields_OmitsAbsentOptionals(t *testing.T) {
	p := model.FormPayload{
		Title:           "Birth Certificate Request",
		CategoryID:      "cat-civil",
		InstitutionID:   "inst-registrar",
		Languages:       []string{"si", "ta"},
		DefaultLanguage: "si",
		Fields:          []model.FieldSpec{{Type: "text"}},
	}

	doc := documentFields(p, nil)

	assert.Equal(t, "Birth Certificate Request", doc["title"])
	assert.Equal(t, 1, doc["field_count"])
	for _, key := range []string{"contact_phone", "contact_email", "contact_address", "tags", "variants"} {
		_, ok := doc[key]
		assert.False(t, ok, "absent optional %q must not appear at all", key)
	}
	assertNoNilValues(t, doc)
}

func TestDocumentFields_IncludesPresentOptionals(t *testing.T) {
	p := model.FormPayload{
		Title:           "Vehicle Registration",
		CategoryID:      "cat-transport",
		InstitutionID:   "inst-dmt",
		Languages:       []string{"en"},
		DefaultLanguage: "en",
		ContactInfo: model.ContactInfo{
			Phone: "+94 11 123 4567",
			Email: "info@dmt.gov.lk",
		},
		Tags: []string{"vehicle", "registration"},
	}
	variants := []model.RemoteVariant{
		{
			Language:       "en",
			StoragePath:    "forms/rec-1/en/form.pdf",
			PageCount:      3,
			ByteSize:       2048,
			ThumbnailPaths: []string{"forms/rec-1/en/thumbs/page-001.png"},
		},
		// No thumbnails committed for this one.
		{Language: "ta", StoragePath: "forms/rec-1/ta/form.pdf", PageCount: 3, ByteSize: 2100},
	}

	doc := documentFields(p, variants)

	assert.Equal(t, "+94 11 123 4567", doc["contact_phone"])
	assert.Equal(t, "info@dmt.gov.lk", doc["contact_email"])
	_, ok := doc["contact_address"]
	assert.False(t, ok)
	assert.Equal(t, []string{"vehicle", "registration"}, doc["tags"])

	vs, ok := doc["variants"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, vs, 2)
	assert.Equal(t, []string{"forms/rec-1/en/thumbs/page-001.png"}, vs[0]["thumbnail_paths"])
	_, ok = vs[1]["thumbnail_paths"]
	assert.False(t, ok, "variant without thumbnails carries no thumbnail_paths key")
	assertNoNilValues(t, doc)
}

func TestFieldRecord(t *testing.T) {
	t.Run("minimal field", func(t *testing.T) {
		m := fieldRecord(model.FieldSpec{Type: "checkbox", Required: true})
		assert.Equal(t, "checkbox", m["type"])
		assert.Equal(t, true, m["required"])
		_, ok := m["labels"]
		assert.False(t, ok)
		_, ok = m["position"]
		assert.False(t, ok)
	})

	t.Run("positioned field with labels", func(t *testing.T) {
		m := fieldRecord(model.FieldSpec{
			Type:   "signature",
			Labels: map[string]string{"si": "අත්සන", "en": "Signature"},
			Position: &model.FieldPosition{
				Page: 2, X: 0.1, Y: 0.8, Width: 0.3, Height: 0.05,
			},
		})
		assert.Equal(t, map[string]string{"si": "අත්සන", "en": "Signature"}, m["labels"])
		pos, ok := m["position"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, 2, pos["page"])
		assert.Equal(t, 0.8, pos["y"])
		assertNoNilValues(t, m)
	})
}

func assertNoNilValues(t *testing.T, m map[string]any) {
	t.Helper()
	for k, v := range m {
		require.NotNil(t, v, "key %q", k)
		if nested, ok := v.(map[string]any); ok {
			assertNoNilValues(t, nested)
		}
		if list, ok := v.([]map[string]any); ok {
			for _, item := range list {
				assertNoNilValues(t, item)
			}
		}
	}
}
