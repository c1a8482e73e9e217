package xisf

import (
	"bytes"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rickbassham/fitsderotate/common"
)

var stringRegex regexp.Regexp = *regexp.MustCompile(`^\'.*?\'$`)
var integerRegex regexp.Regexp = *regexp.MustCompile(`^[\+\-]?\d+$`)

type FITSKeyword struct {
	XMLName xml.Name `xml:"FITSKeyword"`
	Name    string   `xml:"name,attr"`
	Value   string   `xml:"value,attr"`
	Comment string   `xml:"comment,attr"`
}

type Image struct {
	XMLName      xml.Name      `xml:"Image"`
	Geometry     string        `xml:"geometry,attr"`
	SampleFormat string        `xml:"sampleFormat,attr"`
	Location     string        `xml:"location,attr"`
	ByteOrder    string        `xml:"byteOrder,attr"`
	PixelStorage string        `xml:"pixelStorage,attr"`
	FITSKeywords []FITSKeyword `xml:"FITSKeyword"`
}

type Xisf struct {
	XMLName xml.Name `xml:"xisf"`
	Image   Image    `xml:"Image"`
}

// MaxHeaderLength caps the XML header a decoder will read.
const MaxHeaderLength = 16 << 20

// readChunk is the largest buffer read allocates up front; longer reads grow
// with the data actually present.
const readChunk = 1 << 20

type Decoder struct {
	rdr io.Reader
	pos int64
}

func NewDecoder(rdr io.Reader) *Decoder {
	return &Decoder{rdr: rdr}
}

func (d *Decoder) read(n int) ([]byte, error) {
	if n <= readChunk {
		buf := make([]byte, n)
		if _, err := io.ReadFull(d.rdr, buf); err != nil {
			return nil, err
		}
		d.pos += int64(n)
		return buf, nil
	}

	buf, err := io.ReadAll(io.LimitReader(d.rdr, int64(n)))
	if err != nil {
		return nil, err
	}
	d.pos += int64(len(buf))
	if len(buf) != n {
		return nil, io.ErrUnexpectedEOF
	}
	return buf, nil
}

func (d *Decoder) checkSignature() error {
	signature, err := d.read(8)
	if err != nil {
		return err
	}

	if !bytes.Equal([]byte("XISF0100"), signature) {
		return errors.New("invalid signature content")
	}

	return nil
}

func (d *Decoder) getHeaderLength() (uint32, error) {
	headerLengthBytes, err := d.read(4)
	if err != nil {
		return 0, errors.New("invalid header length")
	}

	return binary.LittleEndian.Uint32(headerLengthBytes), nil
}

func (d *Decoder) readDocument() (*Xisf, error) {
	if err := d.checkSignature(); err != nil {
		return nil, err
	}

	headerLen, err := d.getHeaderLength()
	if err != nil {
		return nil, err
	}

	if headerLen == 0 || headerLen > MaxHeaderLength {
		return nil, fmt.Errorf("header length %d outside (0, %d]", headerLen, MaxHeaderLength)
	}

	// reserved
	if _, err := d.read(4); err != nil {
		return nil, errors.New("invalid header length")
	}

	rawHeader, err := d.read(int(headerLen))
	if err != nil {
		return nil, errors.New("invalid header length")
	}

	img := Xisf{}
	if err := xml.Unmarshal(bytes.TrimRight(rawHeader, "\x00"), &img); err != nil {
		return nil, err
	}

	return &img, nil
}

func (d *Decoder) ReadHeader() (h common.Header, err error) {
	img, err := d.readDocument()
	if err != nil {
		return nil, err
	}

	return keywords(img.Image.FITSKeywords), nil
}

// ReadCube decodes the first image. Channels of a planar image become the
// third axis, so a w:h:n geometry yields an (w, h, n) cube.
func (d *Decoder) ReadCube() (*common.Cube, error) {
	doc, err := d.readDocument()
	if err != nil {
		return nil, err
	}

	img := doc.Image
	hdr := keywords(img.FITSKeywords)

	naxis, err := parseGeometry(img.Geometry)
	if err != nil {
		return nil, err
	}
	if img.PixelStorage != "" && !strings.EqualFold(img.PixelStorage, "Planar") {
		return nil, fmt.Errorf("unsupported pixel storage %q", img.PixelStorage)
	}

	width, err := sampleWidth(img.SampleFormat)
	if err != nil {
		return nil, err
	}
	expected, err := byteCount(naxis, width)
	if err != nil {
		return nil, err
	}

	position, size, err := parseAttachment(img.Location)
	if err != nil {
		return nil, err
	}
	if size != expected {
		return nil, fmt.Errorf("attachment has %d bytes, geometry %s needs %d", size, img.Geometry, expected)
	}
	if position < d.pos {
		return nil, fmt.Errorf("attachment at %d overlaps the header", position)
	}
	if _, err := io.CopyN(io.Discard, d.rdr, position-d.pos); err != nil {
		return nil, err
	}
	d.pos = position

	raw, err := d.read(int(size))
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}

	var order binary.ByteOrder = binary.LittleEndian
	if strings.EqualFold(img.ByteOrder, "big") {
		order = binary.BigEndian
	}

	cube := common.NewCube(naxis, hdr)
	if err := decodeSamples(raw, img.SampleFormat, order, cube.Data); err != nil {
		return nil, err
	}

	hdr["NAXIS"] = len(naxis)
	for i, n := range naxis {
		hdr[fmt.Sprintf("NAXIS%d", i+1)] = n
	}

	return cube, nil
}

func keywords(kws []FITSKeyword) common.Header {
	h := common.Header{}

	for _, kw := range kws {
		if len(kw.Value) == 0 {
			h[kw.Name] = nil
			continue
		}

		if stringRegex.MatchString(kw.Value) {
			h[kw.Name] = strings.TrimSpace(kw.Value[1 : len(kw.Value)-1])
		} else if integerRegex.MatchString(kw.Value) {
			h[kw.Name], _ = strconv.ParseInt(kw.Value, 10, 64)
		} else if kw.Value == "T" {
			h[kw.Name] = true
		} else if kw.Value == "F" {
			h[kw.Name] = false
		} else {
			val, err := strconv.ParseFloat(kw.Value, 64)
			if err != nil {
				continue
			}

			h[kw.Name] = val
		}
	}

	return h
}

func parseGeometry(g string) ([]int, error) {
	parts := strings.Split(g, ":")
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid geometry %q", g)
	}

	naxis := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid geometry %q", g)
		}
		naxis = append(naxis, n)
	}

	// a single channel is a plain 2-D image
	if len(naxis) == 3 && naxis[2] == 1 {
		naxis = naxis[:2]
	}

	return naxis, nil
}

func parseAttachment(loc string) (int64, int64, error) {
	parts := strings.Split(loc, ":")
	if len(parts) != 3 || parts[0] != "attachment" {
		return 0, 0, fmt.Errorf("unsupported image location %q", loc)
	}

	position, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid attachment position %q", parts[1])
	}
	size, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid attachment size %q", parts[2])
	}

	return position, size, nil
}

func sampleWidth(format string) (int, error) {
	switch format {
	case "UInt8":
		return 1, nil
	case "UInt16":
		return 2, nil
	case "UInt32", "Float32":
		return 4, nil
	case "Float64":
		return 8, nil
	}
	return 0, fmt.Errorf("unsupported sample format %q", format)
}

// byteCount is the attachment size an image of the given axes needs.
func byteCount(naxis []int, width int) (int64, error) {
	n := int64(width)
	for _, a := range naxis {
		if int64(a) > math.MaxInt64/n {
			return 0, fmt.Errorf("geometry %v is too large", naxis)
		}
		n *= int64(a)
	}
	if n > math.MaxInt {
		return 0, fmt.Errorf("geometry %v is too large", naxis)
	}
	return n, nil
}

func decodeSamples(raw []byte, format string, order binary.ByteOrder, dst []float64) error {
	width, err := sampleWidth(format)
	if err != nil {
		return err
	}

	if len(raw) != width*len(dst) {
		return fmt.Errorf("attachment has %d bytes, expected %d", len(raw), width*len(dst))
	}

	for i := range dst {
		b := raw[i*width : (i+1)*width]
		switch format {
		case "UInt8":
			dst[i] = float64(b[0])
		case "UInt16":
			dst[i] = float64(order.Uint16(b))
		case "UInt32":
			dst[i] = float64(order.Uint32(b))
		case "Float32":
			dst[i] = float64(math.Float32frombits(order.Uint32(b)))
		case "Float64":
			dst[i] = math.Float64frombits(order.Uint64(b))
		}
	}

	return nil
}
