package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t,
		[]string{"scandinavian", "mid-century", "industrial", "bohemian", "japandi", "maximalist"},
		c.IDs())

	s, err := c.Lookup("scandinavian")
	require.NoError(t, err)
	assert.Equal(t, "Scandinavian", s.DisplayName)
	assert.Contains(t, s.InstructionText, "light wood")
	assert.NotEmpty(t, s.PreviewURL)
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Default().Lookup("baroque")
	assert.ErrorIs(t, err, ErrUnknownStyle)
}

func TestStyles_ReturnsCopy(t *testing.T) {
	c := Default()
	styles := c.Styles()
	styles[0].InstructionText = "tampered"

	s, err := c.Lookup(styles[0].ID)
	require.NoError(t, err)
	assert.NotEqual(t, "tampered", s.InstructionText)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"empty", `[]`},
		{"missing id", `[{"name":"A","prompt":"p"}]`},
		{"missing prompt", `[{"id":"a","name":"A"}]`},
		{"missing name", `[{"id":"a","prompt":"p"}]`},
		{"duplicate id", `[{"id":"a","name":"A","prompt":"p"},{"id":"a","name":"B","prompt":"q"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}
