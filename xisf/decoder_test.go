package xisf_test

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickbassham/fitsderotate/xisf"
)

const headerSize = 1024

// buildXISF assembles a monolithic XISF file holding one Float32 image.
func buildXISF(t *testing.T, geometry string, samples []float32, keywords string) []byte {
	t.Helper()

	position := 16 + headerSize
	size := 4 * len(samples)

	doc := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>`+
		`<xisf version="1.0"><Image geometry="%s" sampleFormat="Float32" pixelStorage="Planar" `+
		`location="attachment:%d:%d">%s</Image></xisf>`, geometry, position, size, keywords)
	require.Less(t, len(doc), headerSize)

	var buf bytes.Buffer
	buf.WriteString("XISF0100")
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(headerSize)))
	buf.Write(make([]byte, 4))
	buf.WriteString(doc)
	buf.Write(make([]byte, headerSize-len(doc)))

	for _, s := range samples {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, math.Float32bits(s)))
	}

	return buf.Bytes()
}

const keywords = `<FITSKeyword name="OBJECT" value="'M51 '" comment="Target"/>` +
	`<FITSKeyword name="EXPTIME" value="600" comment=""/>` +
	`<FITSKeyword name="CRVAL1" value="202.4696" comment=""/>` +
	`<FITSKeyword name="SIMPLE" value="T" comment=""/>`

func TestReadHeader(t *testing.T) {
	raw := buildXISF(t, "2:2:1", []float32{1, 2, 3, 4}, keywords)

	hdr, err := xisf.NewDecoder(bytes.NewReader(raw)).ReadHeader()
	require.NoError(t, err)

	assert.Equal(t, "M51", hdr["OBJECT"])
	assert.Equal(t, int64(600), hdr["EXPTIME"])
	assert.Equal(t, 202.4696, hdr["CRVAL1"])
	assert.Equal(t, true, hdr["SIMPLE"])
}

func TestReadCube(t *testing.T) {
	samples := make([]float32, 3*2*4)
	for i := range samples {
		samples[i] = float32(i) / 2
	}
	raw := buildXISF(t, "3:2:4", samples, keywords)

	cube, err := xisf.NewDecoder(bytes.NewReader(raw)).ReadCube()
	require.NoError(t, err)

	assert.Equal(t, []int{3, 2, 4}, cube.Naxis)
	assert.Equal(t, 4, cube.Planes())
	assert.Equal(t, 1.5, cube.At(0, 1, 0))
	assert.Equal(t, float64(samples[23]), cube.At(2, 1, 3))

	n, err := cube.Header.Int("NAXIS3")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestReadCubeSingleChannel(t *testing.T) {
	raw := buildXISF(t, "2:2:1", []float32{1, 2, 3, 4}, "")

	cube, err := xisf.NewDecoder(bytes.NewReader(raw)).ReadCube()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, cube.Naxis)
	assert.Equal(t, []float64{1, 2, 3, 4}, cube.Data)
}

func TestReadCubeShortAttachment(t *testing.T) {
	raw := buildXISF(t, "2:2:2", []float32{1, 2, 3, 4, 5, 6, 7, 8}, "")

	_, err := xisf.NewDecoder(bytes.NewReader(raw[:len(raw)-4])).ReadCube()
	assert.Error(t, err)
}

func TestReadCubeSizeMustMatchGeometry(t *testing.T) {
	tests := []struct {
		name     string
		geometry string
		want     string
	}{
		{name: "smaller than geometry", geometry: "4:4:1", want: "needs 64"},
		{name: "huge geometry", geometry: "100000:100000:1000", want: "needs 40000000000000"},
		{name: "overflowing geometry", geometry: "4294967296:4294967296:4294967296", want: "too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := buildXISF(t, tt.geometry, []float32{1, 2, 3, 4}, "")

			_, err := xisf.NewDecoder(bytes.NewReader(raw)).ReadCube()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadCubeTruncatedLargeAttachment(t *testing.T) {
	samples := make([]float32, 1024*1024)
	raw := buildXISF(t, "1024:1024:1", samples, "")

	_, err := xisf.NewDecoder(bytes.NewReader(raw[:len(raw)/2])).ReadCube()
	assert.Error(t, err)

	cube, err := xisf.NewDecoder(bytes.NewReader(raw)).ReadCube()
	require.NoError(t, err)
	assert.Equal(t, []int{1024, 1024}, cube.Naxis)
}

func TestHeaderLengthBounded(t *testing.T) {
	for _, n := range []uint32{0, xisf.MaxHeaderLength + 1, math.MaxUint32} {
		raw := buildXISF(t, "2:2:1", []float32{1, 2, 3, 4}, keywords)
		binary.LittleEndian.PutUint32(raw[8:12], n)

		_, err := xisf.NewDecoder(bytes.NewReader(raw)).ReadHeader()
		require.Error(t, err, "length %d", n)
		assert.Contains(t, err.Error(), "header length", "length %d", n)
	}
}

func TestBadSignature(t *testing.T) {
	_, err := xisf.NewDecoder(bytes.NewReader([]byte("SIMPLE  =                    T"))).ReadHeader()
	assert.Error(t, err)
}
