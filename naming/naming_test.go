package naming_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickbassham/fitsderotate/common"
	"github.com/rickbassham/fitsderotate/naming"
)

func TestRender(t *testing.T) {
	hdr := common.Header{
		"OBJECT":   "NGC 253",
		"LINE":     "CO(3-2)",
		"RESTFRQ":  3.45795989e11,
		"NAXIS3":   int64(128),
		"DATE-OBS": "2019-10-03T11:22:33.123",
		"INSTRUME": "HARP/ACSIS",
	}
	vars := map[string]string{"stem": "ngc253_cube"}

	tests := []struct {
		template string
		noSpace  bool
		want     string
	}{
		{"{stem}_MomZero_rp.fits", false, "ngc253_cube_MomZero_rp.fits"},
		{"{OBJECT}_{MOLECULE}.fits", true, "NGC_253_CO(3-2).fits"},
		{"{OBJECT}.fits", false, "NGC 253.fits"},
		{"{RESTFRQ:%0.3e}.fits", false, "3.458e+11.fits"},
		{"{RESTFRQ:%d}", false, "345795989000"},
		{"{NAXIS3:%04d}", false, "0128"},
		{"{NAXIS3:%0.1f}", false, "128.0"},
		{"{DATE-OBS:date2006-01-02}", false, "2019-10-03"},
		{"{INSTRUME}", false, "HARP-ACSIS"},
		{"plain.fits", false, "plain.fits"},
	}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			tpl := naming.Parse(tt.template)
			tpl.NoSpace = tt.noSpace

			got, err := tpl.Render(hdr, vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.template, tpl.String())
		})
	}
}

func TestRenderVarsWin(t *testing.T) {
	got, err := naming.Parse("{stem}").Render(common.Header{"stem": "header"}, map[string]string{"stem": "var"})
	require.NoError(t, err)
	assert.Equal(t, "var", got)
}

func TestRenderMissingKeyword(t *testing.T) {
	_, err := naming.Parse("{OBJECT}_{FILTER}.fits").Render(common.Header{"OBJECT": "M51"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrConfiguration))

	var e *common.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "FILTER", e.Field)
}

func TestRenderBadDate(t *testing.T) {
	_, err := naming.Parse("{DATE-OBS:date2006}").Render(common.Header{"DATE-OBS": "yesterday"}, nil)
	assert.True(t, errors.Is(err, common.ErrConfiguration))
}
