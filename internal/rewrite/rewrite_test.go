package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/danielpatrickdp/war-games/go-engine/internal/world"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func sampleWorld() world.World {
	return world.World{
		Nodes: map[string]world.Event{
			"sarajevo":  {ID: "sarajevo", Title: "Archduke assassinated", Date: "1914-06-28"},
			"ultimatum": {ID: "ultimatum", Title: "July Ultimatum", Date: "1914-07-23"},
			"marne":     {ID: "marne", Title: "First Battle of the Marne", Date: "1914-09-05"},
			"lusitania": {ID: "lusitania", Title: "Lusitania sunk", Date: "1915-05-07"},
		},
		Edges: []world.Edge{
			{Src: "sarajevo", Dst: "ultimatum", Weight: 0.9, Mechanism: world.Diplomatic},
			{Src: "ultimatum", Dst: "marne", Weight: 0.6, Mechanism: world.Military},
			{Src: "marne", Dst: "sarajevo", Weight: 0.5, Mechanism: world.Military}, // backward
			{Src: "sarajevo", Dst: "ghost", Weight: 0.5, Mechanism: world.Military}, // dangling
		},
	}
}

func TestTimelineOrderAndInfluences(t *testing.T) {
	tl := Timeline(sampleWorld())
	require.Len(t, tl, 4)

	ids := make([]string, len(tl))
	for i, e := range tl {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"sarajevo", "ultimatum", "marne", "lusitania"}, ids)
	assert.Equal(t, 1914, tl[0].Year)
	assert.Equal(t, "Archduke assassinated", tl[0].Text)
	assert.Equal(t, []string{"ultimatum"}, tl[0].Influences)
	assert.Empty(t, tl[2].Influences, "backward edge must not appear")
	assert.NotNil(t, tl[3].Influences)
}

func TestSubtree(t *testing.T) {
	tl := Subtree(sampleWorld(), "ultimatum")
	require.Len(t, tl, 2)
	assert.Equal(t, "ultimatum", tl[0].ID)
	assert.Equal(t, "marne", tl[1].ID)

	assert.Nil(t, Subtree(sampleWorld(), "nope"))
}

func TestNewRequest(t *testing.T) {
	req := NewRequest(sampleWorld(), "sarajevo", "Archduke survives")
	assert.Equal(t, "sarajevo", req.ChangedID)
	assert.Equal(t, "Archduke survives", req.NewText)
	assert.Len(t, req.Timeline, 3)
}

func TestParseUpdates(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantIDs []string
		wantErr bool
	}{
		{"plain", `{"updates":[{"id":"a","newText":"A"}]}`, []string{"a"}, false},
		{"prose-wrapped", "Sure:\n```json\n{\"updates\":[{\"id\":\"a\",\"newText\":\"A\"},{\"id\":\"b\",\"newText\":\"B\",\"severity\":\"minor\"}]}\n```", []string{"a", "b"}, false},
		{"empty-updates", `{"updates":[]}`, []string{}, false},
		{"missing-updates", `{"changes":[]}`, nil, true},
		{"updates-not-array", `{"updates":{"id":"a"}}`, nil, true},
		{"not-json", "I cannot help with that.", nil, true},
		{"broken-json", "{updates: [}", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUpdates(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			ids := []string{}
			for _, u := range got {
				ids = append(ids, u.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}
