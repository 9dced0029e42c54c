package fits

import (
	"bytes"
	"math"
	"testing"
)

func TestPrimaryHeaderRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	cards := []Card{
		{"TELESCOP", "MWA"},
		{"INTTIME", 2.0},
		{"FINECHAN", 40},
		{"CHANNELS", "100,101"},
		{"DARK", true},
	}
	if err := EncodePrimary(&buf, cards, []string{"first line", "second line"}); err != nil {
		t.Fatal(err)
	}
	if buf.Len()%blockSize != 0 {
		t.Fatalf("header not block-aligned: %d", buf.Len())
	}
	units, err := Open(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(units) != 1 {
		t.Fatalf("got %d HDUs, want 1", len(units))
	}
	h := units[0].Header
	if s, _ := h.Str("TELESCOP"); s != "MWA" {
		t.Errorf("TELESCOP = %q", s)
	}
	if f, _ := h.Float("INTTIME"); f != 2.0 {
		t.Errorf("INTTIME = %v", f)
	}
	if n, _ := h.Int("FINECHAN"); n != 40 {
		t.Errorf("FINECHAN = %d", n)
	}
	if s, _ := h.Str("CHANNELS"); s != "100,101" {
		t.Errorf("CHANNELS = %q", s)
	}
	if v, ok := h.Keys["DARK"].(bool); !ok || !v {
		t.Errorf("DARK = %v", h.Keys["DARK"])
	}
	if len(h.History) != 2 || h.History[0] != "first line" {
		t.Errorf("History = %q", h.History)
	}
}

func TestImageRoundtrip(t *testing.T) {
	pix := make([]float32, 6*4)
	for i := range pix {
		pix[i] = float32(i) * 0.5
	}
	var buf bytes.Buffer
	if err := EncodePrimary(&buf, nil, nil); err != nil {
		t.Fatal(err)
	}
	err := EncodeImage(&buf, []Card{{"TIME", 1000}, {"MILLITIM", 500}}, pix, []int{6, 4})
	if err != nil {
		t.Fatal(err)
	}
	units, err := Open(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(units) != 2 {
		t.Fatalf("got %d HDUs, want 2", len(units))
	}
	img := units[1]
	if img.Class != "IMAGE" {
		t.Fatalf("class = %q", img.Class)
	}
	if n, _ := img.Header.Int("TIME"); n != 1000 {
		t.Errorf("TIME = %d", n)
	}
	if len(img.Image) != len(pix) {
		t.Fatalf("got %d pixels, want %d", len(img.Image), len(pix))
	}
	for i := range pix {
		if img.Image[i] != pix[i] {
			t.Fatalf("pixel %d: %v != %v", i, img.Image[i], pix[i])
		}
	}
}

func TestBintableRoundtrip(t *testing.T) {
	cols := []TableColumn{
		{Name: "Antenna", Ints: []int{11, 11, 12, 12}},
		{Name: "TileName", Strings: []string{"Tile011", "Tile011", "Tile012", "Tile012"}},
		{Name: "East", Floats: []float64{-5.5, -5.5, 12.25, 12.25}},
	}
	var buf bytes.Buffer
	if err := EncodePrimary(&buf, nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := EncodeBintable(&buf, nil, cols); err != nil {
		t.Fatal(err)
	}
	units, err := Open(&buf)
	if err != nil {
		t.Fatal(err)
	}
	tbl := units[1]
	if tbl.Class != "BINTABLE" || tbl.Nrows() != 4 {
		t.Fatalf("class=%q nrows=%d", tbl.Class, tbl.Nrows())
	}
	ants, err := tbl.ColumnInts("Antenna")
	if err != nil {
		t.Fatal(err)
	}
	if ants[2] != 12 {
		t.Errorf("Antenna[2] = %d", ants[2])
	}
	names, err := tbl.ColumnStrings("TileName")
	if err != nil {
		t.Fatal(err)
	}
	if names[0] != "Tile011" {
		t.Errorf("TileName[0] = %q", names[0])
	}
	east, err := tbl.ColumnFloats("East")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(east[2]-12.25) > 1e-9 {
		t.Errorf("East[2] = %v", east[2])
	}
	if _, err := tbl.ColumnInts("Nope"); err == nil {
		t.Error("expected error for missing column")
	}
}

func TestScanHeadersSkipsPayload(t *testing.T) {
	pix := make([]float32, 1000)
	var buf bytes.Buffer
	if err := EncodePrimary(&buf, nil, nil); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := EncodeImage(&buf, []Card{{"TIME", 1000 + 2*i}}, pix, []int{100, 10}); err != nil {
			t.Fatal(err)
		}
	}
	headers, err := ScanHeaders(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(headers) != 4 {
		t.Fatalf("got %d headers, want 4", len(headers))
	}
	if tm, _ := headers[3].Int("TIME"); tm != 1004 {
		t.Errorf("TIME = %d", tm)
	}
}
