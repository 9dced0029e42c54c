package fits

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// Card is one header keyword/value pair for the encoder.
type Card struct {
	Key   string
	Value interface{}
}

// formatCard renders one 80-byte header card in fixed format.
func formatCard(key string, value interface{}) (string, error) {
	if len(key) > 8 {
		return "", fmt.Errorf("fits: key %q longer than 8 chars", key)
	}
	var val string
	switch v := value.(type) {
	case nil:
		return fmt.Sprintf("%-80s", key), nil
	case bool:
		c := "F"
		if v {
			c = "T"
		}
		val = fmt.Sprintf("%20s", c)
	case int:
		val = fmt.Sprintf("%20d", v)
	case int64:
		val = fmt.Sprintf("%20d", v)
	case float64:
		val = fmt.Sprintf("%20s", trimFloat(v))
	case string:
		val = fmt.Sprintf("'%-8s'", strings.ReplaceAll(v, "'", "''"))
	default:
		return "", fmt.Errorf("fits: unsupported card value %T", value)
	}
	card := fmt.Sprintf("%-8s= %s", key, val)
	if len(card) > cardLen {
		return "", fmt.Errorf("fits: card %q too long", key)
	}
	return card + strings.Repeat(" ", cardLen-len(card)), nil
}

// trimFloat renders a float with enough digits to round-trip.
func trimFloat(v float64) string {
	s := fmt.Sprintf("%.10G", v)
	if !strings.ContainsAny(s, ".E") {
		s += "."
	}
	return s
}

// writeHeader emits the given cards plus END, padded to a block boundary.
func writeHeader(w io.Writer, cards []string) error {
	var b strings.Builder
	for _, c := range cards {
		b.WriteString(c)
	}
	b.WriteString(fmt.Sprintf("%-80s", "END"))
	for b.Len()%blockSize != 0 {
		b.WriteString(strings.Repeat(" ", cardLen))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// writePadded emits data padded with zero bytes to a block boundary.
func writePadded(w io.Writer, data []byte) error {
	if _, err := w.Write(data); err != nil {
		return err
	}
	if pad := len(data) % blockSize; pad != 0 {
		_, err := w.Write(make([]byte, blockSize-pad))
		return err
	}
	return nil
}

// EncodePrimary writes a data-less primary HDU with the given extra cards and
// HISTORY lines.
func EncodePrimary(w io.Writer, cards []Card, history []string) error {
	out := []string{
		mustCard("SIMPLE", true),
		mustCard("BITPIX", 8),
		mustCard("NAXIS", 0),
		mustCard("EXTEND", true),
	}
	for _, c := range cards {
		s, err := formatCard(c.Key, c.Value)
		if err != nil {
			return err
		}
		out = append(out, s)
	}
	for _, h := range history {
		out = append(out, fmt.Sprintf("%-80s", "HISTORY "+h))
	}
	return writeHeader(w, out)
}

// EncodeImage writes an IMAGE extension with float32 pixels. naxis follows
// FITS convention: naxis[0] is the fastest-varying axis (NAXIS1).
func EncodeImage(w io.Writer, cards []Card, pix []float32, naxis []int) error {
	n := 1
	for _, a := range naxis {
		n *= a
	}
	if n != len(pix) {
		return fmt.Errorf("fits: image has %d pixels, axes say %d", len(pix), n)
	}
	out := []string{
		mustCard("XTENSION", "IMAGE"),
		mustCard("BITPIX", -32),
		mustCard("NAXIS", len(naxis)),
	}
	for i, a := range naxis {
		out = append(out, mustCard(fmt.Sprintf("NAXIS%d", i+1), a))
	}
	out = append(out, mustCard("PCOUNT", 0), mustCard("GCOUNT", 1))
	for _, c := range cards {
		s, err := formatCard(c.Key, c.Value)
		if err != nil {
			return err
		}
		out = append(out, s)
	}
	if err := writeHeader(w, out); err != nil {
		return err
	}
	data := make([]byte, 4*len(pix))
	for i, v := range pix {
		putBE32(data[i*4:], math.Float32bits(v))
	}
	return writePadded(w, data)
}

// TableColumn is one column of a binary table for the encoder. Exactly one of
// Ints (TFORM J), Floats (TFORM E), or Strings (TFORM rA) must be set.
type TableColumn struct {
	Name    string
	Ints    []int
	Floats  []float64
	Strings []string
}

func (c TableColumn) nrows() int {
	switch {
	case c.Ints != nil:
		return len(c.Ints)
	case c.Floats != nil:
		return len(c.Floats)
	default:
		return len(c.Strings)
	}
}

func (c TableColumn) form() (string, int) {
	switch {
	case c.Ints != nil:
		return "1J", 4
	case c.Floats != nil:
		return "1E", 4
	default:
		w := 1
		for _, s := range c.Strings {
			if len(s) > w {
				w = len(s)
			}
		}
		return fmt.Sprintf("%dA", w), w
	}
}

// EncodeBintable writes a BINTABLE extension with the given columns.
func EncodeBintable(w io.Writer, cards []Card, cols []TableColumn) error {
	if len(cols) == 0 {
		return fmt.Errorf("fits: empty table")
	}
	nrows := cols[0].nrows()
	rowLen := 0
	for _, c := range cols {
		if c.nrows() != nrows {
			return fmt.Errorf("fits: column %q has %d rows, want %d", c.Name, c.nrows(), nrows)
		}
		_, w := c.form()
		rowLen += w
	}
	out := []string{
		mustCard("XTENSION", "BINTABLE"),
		mustCard("BITPIX", 8),
		mustCard("NAXIS", 2),
		mustCard("NAXIS1", rowLen),
		mustCard("NAXIS2", nrows),
		mustCard("PCOUNT", 0),
		mustCard("GCOUNT", 1),
		mustCard("TFIELDS", len(cols)),
	}
	for i, c := range cols {
		form, _ := c.form()
		out = append(out,
			mustCard(fmt.Sprintf("TTYPE%d", i+1), c.Name),
			mustCard(fmt.Sprintf("TFORM%d", i+1), form))
	}
	for _, c := range cards {
		s, err := formatCard(c.Key, c.Value)
		if err != nil {
			return err
		}
		out = append(out, s)
	}
	if err := writeHeader(w, out); err != nil {
		return err
	}
	data := make([]byte, rowLen*nrows)
	off := 0
	for _, c := range cols {
		_, width := c.form()
		for row := 0; row < nrows; row++ {
			b := data[row*rowLen+off:]
			switch {
			case c.Ints != nil:
				putBE32(b, uint32(int32(c.Ints[row])))
			case c.Floats != nil:
				putBE32(b, math.Float32bits(float32(c.Floats[row])))
			default:
				copy(b[:width], []byte(fmt.Sprintf("%-*s", width, c.Strings[row])))
			}
		}
		off += width
	}
	return writePadded(w, data)
}

func mustCard(key string, value interface{}) string {
	s, err := formatCard(key, value)
	if err != nil {
		panic(err)
	}
	return s
}

func putBE32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}
