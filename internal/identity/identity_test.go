package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yungbote/langqc-backend/internal/pkg/errors"
	"github.com/yungbote/langqc-backend/internal/pkg/pointers"
)

func TestParse(t *testing.T) {
	valid := strings.Repeat("aB3", 21) + "f"
	id, err := Parse("  " + valid + "\n")
	require.NoError(t, err)
	assert.Equal(t, ProductID(valid), id)

	for _, bad := range []string{"", "abc", strings.Repeat("g", 64), strings.Repeat("a", 65)} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument, bad)
	}

	_, err = ParseAll([]string{valid, "nope"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestCoordinatesJSON(t *testing.T) {
	c := Coordinates{RunName: "TRACTION-RUN-92", WellLabel: "A1"}
	assert.Equal(t, `{"run_name":"TRACTION-RUN-92","well_label":"A1"}`, c.JSON())

	c.PlateNumber = pointers.Int(2)
	assert.Equal(t, `{"plate_number":2,"run_name":"TRACTION-RUN-92","well_label":"A1"}`, c.JSON())
}

func TestPacBioResolver(t *testing.T) {
	r := NewPacBioResolver()
	a, err := r.ProductID(Coordinates{RunName: "r1", WellLabel: "A1"})
	require.NoError(t, err)
	b, err := r.ProductID(Coordinates{RunName: "r1", WellLabel: "A1"})
	require.NoError(t, err)
	c, err := r.ProductID(Coordinates{RunName: "r1", WellLabel: "A1", PlateNumber: pointers.Int(1)})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	_, err = Parse(a.String())
	assert.NoError(t, err)

	_, err = r.ProductID(Coordinates{RunName: "r1"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	_, err = r.ProductID(Coordinates{RunName: "r1", WellLabel: "A1", PlateNumber: pointers.Int(0)})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}
