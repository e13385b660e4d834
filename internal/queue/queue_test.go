package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetfab/nestd/internal/model"
)

func validParams() JobParams {
	return JobParams{
		SheetWidth:  2500,
		SheetHeight: 1250,
		Items: []JobItem{
			{RefID: "bracket", FileKey: "proj/uploads/bracket.dxf", Quantity: 4},
		},
	}
}

func TestJobParams_Normalize_Defaults(t *testing.T) {
	params, items, err := validParams().Normalize()
	require.NoError(t, err)

	assert.Equal(t, model.DefaultSpacing, params.Spacing)
	assert.True(t, params.AllowRotation)
	assert.Equal(t, 2500.0, params.SheetWidth)
	require.Len(t, items, 1)
	assert.Equal(t, "bracket", items[0].RefID)
	assert.Equal(t, 4, items[0].Quantity)
}

func TestJobParams_Normalize_ExplicitValues(t *testing.T) {
	spacing := 12.0
	rotation := false
	p := validParams()
	p.Spacing = &spacing
	p.AllowRotation = &rotation

	params, _, err := p.Normalize()
	require.NoError(t, err)
	assert.Equal(t, 12.0, params.Spacing)
	assert.False(t, params.AllowRotation)
}

func TestJobParams_Normalize_ZeroSpacingIsValid(t *testing.T) {
	spacing := 0.0
	p := validParams()
	p.Spacing = &spacing

	params, _, err := p.Normalize()
	require.NoError(t, err)
	assert.Equal(t, 0.0, params.Spacing)
}

func TestJobParams_Normalize_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*JobParams)
	}{
		{"zero sheet width", func(p *JobParams) { p.SheetWidth = 0 }},
		{"negative sheet height", func(p *JobParams) { p.SheetHeight = -1 }},
		{"negative spacing", func(p *JobParams) { s := -1.0; p.Spacing = &s }},
		{"no items", func(p *JobParams) { p.Items = nil }},
		{"missing file key", func(p *JobParams) { p.Items[0].FileKey = "" }},
		{"missing ref id", func(p *JobParams) { p.Items[0].RefID = "" }},
		{"zero quantity", func(p *JobParams) { p.Items[0].Quantity = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := validParams()
			tc.mutate(&p)
			_, _, err := p.Normalize()
			assert.Error(t, err)
		})
	}
}
