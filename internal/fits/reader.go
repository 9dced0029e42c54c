// Package fits implements the subset of the FITS 3.0 standard needed by the
// MWA correlator ingest path: header parsing, image HDUs, binary tables, and
// header-only scanning of large files. It also provides an encoder, used by
// tests and tools to synthesize fixture files. It is not a general-purpose
// FITS library.
package fits

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// blockSize is the FITS record size. Every header and data section is padded
// to a multiple of this.
const blockSize = 2880

const (
	cardsPerBlock = 36
	cardLen       = 80
)

// Header holds the parsed cards of one HDU header. Values are int, float64,
// bool, or string depending on the card syntax. HISTORY and COMMENT cards are
// accumulated separately in order of appearance.
type Header struct {
	Keys    map[string]interface{}
	History []string
	Comment []string
}

// Int returns the value of an integer card. Float-valued cards are truncated.
func (h Header) Int(key string) (int, bool) {
	switch v := h.Keys[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Float returns the value of a numeric card.
func (h Header) Float(key string) (float64, bool) {
	switch v := h.Keys[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Str returns the value of a string card.
func (h Header) Str(key string) (string, bool) {
	v, ok := h.Keys[key].(string)
	return v, ok
}

// Naxis returns [NAXIS1, NAXIS2, ...].
func (h Header) Naxis() []int {
	n, ok := h.Int("NAXIS")
	if !ok {
		return nil
	}
	axes := make([]int, n)
	for i := range axes {
		axes[i], _ = h.Int(fmt.Sprintf("NAXIS%d", i+1))
	}
	return axes
}

// dataSize returns the byte length of the data section following this header,
// before block padding.
func (h Header) dataSize() int {
	bitpix, ok := h.Int("BITPIX")
	if !ok {
		return 0
	}
	axes := h.Naxis()
	if len(axes) == 0 {
		return 0
	}
	n := 1
	for _, a := range axes {
		n *= a
	}
	if n == 0 {
		return 0
	}
	pcount, _ := h.Int("PCOUNT")
	gcount, ok := h.Int("GCOUNT")
	if !ok {
		gcount = 1
	}
	abs := bitpix
	if abs < 0 {
		abs = -abs
	}
	return abs / 8 * gcount * (n + pcount)
}

// HDU is one decoded header/data unit.
type HDU struct {
	Header Header
	// Class is SIMPLE for the primary HDU, or the XTENSION value.
	Class string
	// Image holds pixel data converted to float32, in FITS order (the first
	// axis varies fastest). Nil for tables and data-less headers.
	Image []float32
	// table payload and column layout, set for BINTABLE extensions
	raw  []byte
	cols []column
}

// Open decodes every HDU in a FITS stream.
func Open(r io.Reader) ([]*HDU, error) {
	br := newBlockReader(r)
	var units []*HDU
	for {
		hdr, err := br.readHeader()
		if err == io.EOF {
			return units, nil
		}
		if err != nil {
			return nil, err
		}
		u := &HDU{Header: hdr}
		if _, ok := hdr.Keys["SIMPLE"]; ok {
			u.Class = "SIMPLE"
		} else if x, ok := hdr.Str("XTENSION"); ok {
			u.Class = strings.TrimSpace(x)
		} else {
			return nil, fmt.Errorf("fits: HDU %d is neither SIMPLE nor XTENSION", len(units))
		}
		switch u.Class {
		case "SIMPLE", "IMAGE":
			if err := u.loadImage(br); err != nil {
				return nil, err
			}
		case "BINTABLE":
			if err := u.loadTable(br); err != nil {
				return nil, err
			}
		default:
			// unsupported extension: skip its payload
			if err := br.skip(hdr.dataSize()); err != nil {
				return nil, err
			}
		}
		units = append(units, u)
	}
}

// OpenFile decodes every HDU of the named file.
func OpenFile(path string) ([]*HDU, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	units, err := Open(f)
	if err != nil {
		return nil, fmt.Errorf("fits: %s: %w", path, err)
	}
	return units, nil
}

// ScanHeaders reads every header in a FITS stream without decoding payloads.
// Data sections are skipped, so this is cheap even for multi-GB files.
func ScanHeaders(r io.Reader) ([]Header, error) {
	br := newBlockReader(r)
	var headers []Header
	for {
		hdr, err := br.readHeader()
		if err == io.EOF {
			return headers, nil
		}
		if err != nil {
			return nil, err
		}
		headers = append(headers, hdr)
		if err := br.skip(hdr.dataSize()); err != nil {
			return nil, err
		}
	}
}

// ScanFileHeaders is ScanHeaders on the named file.
func ScanFileHeaders(path string) ([]Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	headers, err := ScanHeaders(f)
	if err != nil {
		return nil, fmt.Errorf("fits: %s: %w", path, err)
	}
	return headers, nil
}

// loadImage decodes an image payload into float32 pixels.
func (u *HDU) loadImage(br *blockReader) error {
	axes := u.Header.Naxis()
	if len(axes) == 0 {
		return nil
	}
	n := 1
	for _, a := range axes {
		n *= a
	}
	if n == 0 {
		return nil
	}
	bitpix, ok := u.Header.Int("BITPIX")
	if !ok {
		return fmt.Errorf("fits: image HDU missing BITPIX")
	}
	pix := make([]float32, n)
	switch bitpix {
	case 8:
		for i := range pix {
			b, err := br.readN(1)
			if err != nil {
				return err
			}
			pix[i] = float32(b[0])
		}
	case 16:
		for i := range pix {
			b, err := br.readN(2)
			if err != nil {
				return err
			}
			pix[i] = float32(int16(uint16(b[0])<<8 | uint16(b[1])))
		}
	case 32:
		for i := range pix {
			b, err := br.readN(4)
			if err != nil {
				return err
			}
			pix[i] = float32(int32(be32(b)))
		}
	case -32:
		for i := range pix {
			b, err := br.readN(4)
			if err != nil {
				return err
			}
			pix[i] = math.Float32frombits(be32(b))
		}
	case -64:
		for i := range pix {
			b, err := br.readN(8)
			if err != nil {
				return err
			}
			pix[i] = float32(math.Float64frombits(be64(b)))
		}
	default:
		return fmt.Errorf("fits: unsupported BITPIX %d", bitpix)
	}
	// BSCALE/BZERO, if present, apply to integer pixel types
	if bscale, ok := u.Header.Float("BSCALE"); ok && bitpix > 0 {
		bzero, _ := u.Header.Float("BZERO")
		for i := range pix {
			pix[i] = float32(float64(pix[i])*bscale + bzero)
		}
	}
	u.Image = pix
	return nil
}

// blockReader reads a FITS stream in whole 2880-byte blocks but hands out
// arbitrary element sizes, so multi-byte values straddling a block boundary
// decode correctly.
type blockReader struct {
	r    io.Reader
	buf  [blockSize]byte
	pos  int // next unread byte in buf
	fill int // valid bytes in buf
	elem [8]byte
	eof  bool
}

func newBlockReader(r io.Reader) *blockReader {
	return &blockReader{r: r}
}

// nextBlock discards the remainder of the current block and reads the next.
func (b *blockReader) nextBlock() error {
	if b.eof {
		return io.EOF
	}
	n, err := io.ReadFull(b.r, b.buf[:])
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		b.eof = true
		if n == 0 {
			return io.EOF
		}
		return fmt.Errorf("fits: truncated block (%d bytes)", n)
	}
	if err != nil {
		return err
	}
	b.pos, b.fill = 0, n
	return nil
}

// readN returns the next n bytes (n <= 8) via an internal element buffer.
func (b *blockReader) readN(n int) ([]byte, error) {
	for i := 0; i < n; i++ {
		if b.pos >= b.fill {
			if err := b.nextBlock(); err != nil {
				return nil, err
			}
		}
		b.elem[i] = b.buf[b.pos]
		b.pos++
	}
	return b.elem[:n], nil
}

// read fills p from the stream.
func (b *blockReader) read(p []byte) error {
	n := 0
	for n < len(p) {
		if b.pos >= b.fill {
			if err := b.nextBlock(); err != nil {
				return err
			}
		}
		k := copy(p[n:], b.buf[b.pos:b.fill])
		n += k
		b.pos += k
	}
	return nil
}

// skip advances past a data section of the given unpadded byte length,
// including its padding to the next block boundary.
func (b *blockReader) skip(size int) error {
	if size == 0 {
		return nil
	}
	blocks := (size + blockSize - 1) / blockSize
	for i := 0; i < blocks; i++ {
		if err := b.nextBlock(); err != nil {
			return err
		}
	}
	b.pos = b.fill
	return nil
}

// readHeader parses header blocks until the END card.
func (b *blockReader) readHeader() (Header, error) {
	hdr := Header{Keys: make(map[string]interface{}, 32)}
	// headers always start on a block boundary
	b.pos = b.fill
	for {
		if err := b.nextBlock(); err != nil {
			return hdr, err
		}
		for i := 0; i < cardsPerBlock; i++ {
			card := string(b.buf[i*cardLen : (i+1)*cardLen])
			key := strings.TrimSpace(card[:8])
			switch key {
			case "END":
				return hdr, nil
			case "HISTORY":
				hdr.History = append(hdr.History, strings.TrimRight(card[8:], " "))
				continue
			case "COMMENT":
				hdr.Comment = append(hdr.Comment, strings.TrimRight(card[8:], " "))
				continue
			case "":
				continue
			}
			if card[8:10] != "= " {
				hdr.Keys[key] = nil
				continue
			}
			val, err := parseValue(card[10:])
			if err != nil {
				return hdr, fmt.Errorf("fits: card %q: %w", key, err)
			}
			hdr.Keys[key] = val
		}
	}
}

// parseValue decodes the value field of a card, stripping any trailing
/// comment. FITS value syntax: quoted string, T/F logical, or a number.
func parseValue(s string) (interface{}, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if s[0] == '\'' {
		return parseQuoted(s)
	}
	if i := strings.Index(s, "/"); i != -1 {
		s = strings.TrimSpace(s[:i])
	}
	if s == "" {
		return nil, nil
	}
	switch s[0] {
	case 'T':
		return true, nil
	case 'F':
		return false, nil
	}
	if strings.ContainsAny(s, ".ED") {
		// D-exponent floats are a FITS-ism
		x, err := strconv.ParseFloat(strings.Replace(s, "D", "E", 1), 64)
		return x, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return int(n), err
}

// parseQuoted decodes a single-quoted string with '' escapes.
func parseQuoted(s string) (string, error) {
	var out strings.Builder
	i := 1
	for i < len(s) {
		c := s[i]
		if c != '\'' {
			out.WriteByte(c)
			i++
			continue
		}
		if i+1 < len(s) && s[i+1] == '\'' {
			out.WriteByte('\'')
			i += 2
			continue
		}
		return strings.TrimRight(out.String(), " "), nil
	}
	return "", fmt.Errorf("unterminated string")
}

func be32(b []byte) uint32 {
	return uint32(b[3]) | uint32(b[2])<<8 | uint32(b[1])<<16 | uint32(b[0])<<24
}

func be64(b []byte) uint64 {
	return uint64(b[7]) | uint64(b[6])<<8 | uint64(b[5])<<16 | uint64(b[4])<<24 |
		uint64(b[3])<<32 | uint64(b[2])<<40 | uint64(b[1])<<48 | uint64(b[0])<<56
}
