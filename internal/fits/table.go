package fits

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// column describes one field of a binary table.
type column struct {
	name   string
	code   byte // TFORM type code
	repeat int
	offset int // byte offset of the field within a row
	width  int // total byte width (element size * repeat)
}

func elemSize(code byte) (int, error) {
	switch code {
	case 'A', 'B', 'L':
		return 1, nil
	case 'I':
		return 2, nil
	case 'J', 'E':
		return 4, nil
	case 'K', 'D':
		return 8, nil
	}
	return 0, fmt.Errorf("fits: unsupported TFORM code %q", string(code))
}

// loadTable reads a BINTABLE payload and records the column layout.
func (u *HDU) loadTable(br *blockReader) error {
	axes := u.Header.Naxis()
	if len(axes) != 2 {
		return fmt.Errorf("fits: BINTABLE needs NAXIS=2, got %d", len(axes))
	}
	rowLen, nrows := axes[0], axes[1]
	tfields, ok := u.Header.Int("TFIELDS")
	if !ok {
		return fmt.Errorf("fits: BINTABLE missing TFIELDS")
	}
	offset := 0
	for i := 1; i <= tfields; i++ {
		form, ok := u.Header.Str(fmt.Sprintf("TFORM%d", i))
		if !ok {
			return fmt.Errorf("fits: BINTABLE missing TFORM%d", i)
		}
		form = strings.TrimSpace(form)
		j := strings.IndexFunc(form, func(r rune) bool { return r < '0' || r > '9' })
		if j == -1 {
			return fmt.Errorf("fits: TFORM%d=%q has no type code", i, form)
		}
		repeat := 1
		if j > 0 {
			r, err := strconv.Atoi(form[:j])
			if err != nil {
				return fmt.Errorf("fits: TFORM%d=%q: %w", i, form, err)
			}
			repeat = r
		}
		size, err := elemSize(form[j])
		if err != nil {
			return err
		}
		name, _ := u.Header.Str(fmt.Sprintf("TTYPE%d", i))
		u.cols = append(u.cols, column{
			name:   strings.TrimSpace(name),
			code:   form[j],
			repeat: repeat,
			offset: offset,
			width:  size * repeat,
		})
		offset += size * repeat
	}
	if offset > rowLen {
		return fmt.Errorf("fits: BINTABLE columns span %d bytes > NAXIS1=%d", offset, rowLen)
	}
	u.raw = make([]byte, rowLen*nrows)
	if err := br.read(u.raw); err != nil {
		return err
	}
	// padding to the block boundary is discarded by the next header read
	return nil
}

// Nrows returns the number of table rows, or 0 for non-table HDUs.
func (u *HDU) Nrows() int {
	axes := u.Header.Naxis()
	if u.Class != "BINTABLE" || len(axes) != 2 {
		return 0
	}
	return axes[1]
}

func (u *HDU) findCol(name string) (column, error) {
	for _, c := range u.cols {
		if c.name == name {
			return c, nil
		}
	}
	return column{}, fmt.Errorf("fits: no column %q", name)
}

func (u *HDU) rowLen() int { return u.Header.Naxis()[0] }

// ColumnInts returns an integer column (TFORM B, I, J, or K).
func (u *HDU) ColumnInts(name string) ([]int, error) {
	c, err := u.findCol(name)
	if err != nil {
		return nil, err
	}
	out := make([]int, u.Nrows())
	for row := range out {
		b := u.raw[row*u.rowLen()+c.offset:]
		switch c.code {
		case 'B':
			out[row] = int(b[0])
		case 'I':
			out[row] = int(int16(uint16(b[0])<<8 | uint16(b[1])))
		case 'J':
			out[row] = int(int32(be32(b)))
		case 'K':
			out[row] = int(int64(be64(b)))
		default:
			return nil, fmt.Errorf("fits: column %q (TFORM %c) is not integral", name, c.code)
		}
	}
	return out, nil
}

// ColumnFloats returns a floating-point column (TFORM E or D).
func (u *HDU) ColumnFloats(name string) ([]float64, error) {
	c, err := u.findCol(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, u.Nrows())
	for row := range out {
		b := u.raw[row*u.rowLen()+c.offset:]
		switch c.code {
		case 'E':
			out[row] = float64(math.Float32frombits(be32(b)))
		case 'D':
			out[row] = math.Float64frombits(be64(b))
		default:
			return nil, fmt.Errorf("fits: column %q (TFORM %c) is not floating-point", name, c.code)
		}
	}
	return out, nil
}

// ColumnStrings returns a string column (TFORM rA), trailing blanks stripped.
func (u *HDU) ColumnStrings(name string) ([]string, error) {
	c, err := u.findCol(name)
	if err != nil {
		return nil, err
	}
	if c.code != 'A' {
		return nil, fmt.Errorf("fits: column %q (TFORM %c) is not a string", name, c.code)
	}
	out := make([]string, u.Nrows())
	for row := range out {
		b := u.raw[row*u.rowLen()+c.offset : row*u.rowLen()+c.offset+c.width]
		out[row] = strings.TrimRight(string(b), " \x00")
	}
	return out, nil
}
