package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/intake/internal/model"
)

func TestDashboardCopy(t *testing.T) {
	assert := assert.New(t)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	orig := model.Dashboard{
		UserID: "u1",
		Modules: []model.Module{{
			ID:        "m1",
			StartedAt: &now,
			Sections: []model.Section{{
				SectionID: "a",
				Data:      json.RawMessage(`{"name":"acme"}`),
				Metadata: model.SectionMetadata{EditHistory: []model.EditEntry{
					{Field: "name", NewValue: json.RawMessage(`"acme"`)},
				}},
			}},
		}},
		ProgressTracking: model.ProgressTracking{
			ModuleProgress: map[string]int{"m1": 0},
			Milestones:     []model.Milestone{{ID: "ms1"}},
		},
		Revision: 3,
	}

	c := orig.Copy()
	assert.Equal(orig, c)

	// Mutating the copy must not leak into the original.
	c.Modules[0].Sections[0].Data[2] = 'X'
	c.Modules[0].Sections[0].Metadata.EditHistory[0].Field = "changed"
	*c.Modules[0].StartedAt = now.Add(time.Hour)
	c.ProgressTracking.ModuleProgress["m1"] = 100
	c.ProgressTracking.Milestones[0].Achieved = true

	assert.JSONEq(`{"name":"acme"}`, string(orig.Modules[0].Sections[0].Data))
	assert.Equal("name", orig.Modules[0].Sections[0].Metadata.EditHistory[0].Field)
	assert.Equal(now, *orig.Modules[0].StartedAt)
	assert.Equal(0, orig.ProgressTracking.ModuleProgress["m1"])
	assert.False(orig.ProgressTracking.Milestones[0].Achieved)
	assert.Equal(int64(3), c.Revision)
}

func TestDashboardJSONShape(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	d := model.Dashboard{
		UserID:        "u1",
		CreatedAt:     now,
		LastUpdatedAt: now,
		Modules: []model.Module{{
			ID:     "m1",
			Status: model.ModuleStatusInProgress,
			Sections: []model.Section{{
				SectionID: "a",
				Order:     1,
				Status:    model.SectionStatusInProgress,
				Version:   1,
			}},
		}},
		Revision: 7,
	}

	data, err := json.Marshal(d)
	require.NoError(err)

	var raw map[string]any
	require.NoError(json.Unmarshal(data, &raw))
	assert.Contains(raw, "userId")
	assert.Contains(raw, "progressTracking")
	assert.NotContains(raw, "Revision")

	module := raw["modules"].([]any)[0].(map[string]any)
	assert.Equal("in-progress", module["status"])
	section := module["sections"].([]any)[0].(map[string]any)
	assert.Equal("in_progress", section["status"])
	assert.Contains(section, "sectionId")
}

func TestDashboardLookup(t *testing.T) {
	assert := assert.New(t)

	d := model.Dashboard{Modules: []model.Module{
		{ID: "m1", Sections: []model.Section{{SectionID: "a"}, {SectionID: "b"}}},
		{ID: "m2"},
	}}

	i, m := d.Module("m2")
	assert.Equal(1, i)
	assert.Equal("m2", m.ID)

	i, m = d.Module("missing")
	assert.Equal(-1, i)
	assert.Nil(m)

	_, m = d.Module("m1")
	si, s := m.Section("b")
	assert.Equal(1, si)
	assert.Equal("b", s.SectionID)

	si, s = m.Section("missing")
	assert.Equal(-1, si)
	assert.Nil(s)
}

func TestNormalizeRaw(t *testing.T) {
	tests := map[string]struct {
		raw    json.RawMessage
		exp    json.RawMessage
		expErr bool
	}{
		"A nil payload should be nil.": {
			raw: nil,
			exp: nil,
		},

		"An empty payload should be nil.": {
			raw: json.RawMessage{},
			exp: nil,
		},

		"A JSON null should be nil.": {
			raw: json.RawMessage(` null `),
			exp: nil,
		},

		"A JSON object should be kept.": {
			raw: json.RawMessage(`{"a":1}`),
			exp: json.RawMessage(`{"a":1}`),
		},

		"A JSON string should be kept.": {
			raw: json.RawMessage(`"acme"`),
			exp: json.RawMessage(`"acme"`),
		},

		"Invalid JSON should fail.": {
			raw:    json.RawMessage(`{"a":`),
			expErr: true,
		},

		"Bare text should fail.": {
			raw:    json.RawMessage(`acme`),
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := model.NormalizeRaw(test.raw)
			if test.expErr {
				assert.ErrorIs(t, err, model.ErrNotValid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.exp, got)
		})
	}
}

func TestDecodeDashboard(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	doc := `{
		"userId": "u1",
		"modules": [{
			"id": "foundation",
			"sections": [
				{"sectionId": "a", "data": null, "metadata": {"editHistory": [{"field": "name", "previousValue": null, "newValue": "acme"}]}},
				{"sectionId": "b", "data": {"name": "acme"}}
			]
		}]
	}`

	d, err := model.DecodeDashboard([]byte(doc))
	require.NoError(err)
	s := d.Modules[0].Sections
	assert.Nil(s[0].Data)
	require.Len(s[0].Metadata.EditHistory, 1)
	assert.Nil(s[0].Metadata.EditHistory[0].PreviousValue)
	assert.JSONEq(`"acme"`, string(s[0].Metadata.EditHistory[0].NewValue))
	assert.JSONEq(`{"name":"acme"}`, string(s[1].Data))

	_, err = model.DecodeDashboard([]byte(`{"userId":`))
	assert.Error(err)
}
