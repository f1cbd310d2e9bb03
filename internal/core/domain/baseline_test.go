package domain_test

import (
	"testing"

	"github.com/IANDYI/lifeclock-service/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestBaselineTable_Lookup(t *testing.T) {
	table := domain.DefaultBaselines()

	japan, ok := table.Lookup("Japan")
	assert.True(t, ok)
	assert.Equal(t, 81.6, japan.Male)
	assert.Equal(t, 87.7, japan.Female)

	_, ok = table.Lookup("Atlantis")
	assert.False(t, ok)

	_, ok = table.Lookup("")
	assert.False(t, ok)
}

func TestCountryBaseline_ForSex(t *testing.T) {
	b := domain.CountryBaseline{Male: 76.3, Female: 81.4}

	assert.Equal(t, 76.3, b.ForSex(domain.SexMale))
	assert.Equal(t, 81.4, b.ForSex(domain.SexFemale))
	// non-male profiles use the female column
	assert.Equal(t, 81.4, b.ForSex(domain.SexOther))
}

func TestNewBaselineTable_CopiesRows(t *testing.T) {
	rows := map[string]domain.CountryBaseline{
		"Japan": {Male: 81.6, Female: 87.7},
	}
	table := domain.NewBaselineTable(rows)

	rows["Japan"] = domain.CountryBaseline{Male: 1, Female: 1}

	japan, ok := table.Lookup("Japan")
	assert.True(t, ok)
	assert.Equal(t, 81.6, japan.Male)
}
