package renderer

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"declara/internal/declaration"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func renderableDeclaration() declaration.Declaration {
	return declaration.Declaration{
		Resolution:            declaration.DefaultResolution,
		TrackingNumber:        "DJC-2025-001",
		LegalName:             "Acme S.A.",
		TaxID:                 "30-12345678-9",
		BrandName:             "Acme",
		LegalAddress:          "Av. Siempre Viva 742, CABA",
		PlantAddress:          "Parque Industrial Lote 4, Pilar",
		Phone:                 "+54 11 4000-0000",
		Email:                 "legal@acme.com.ar",
		ProductCode:           "ACME-001",
		Manufacturer:          "Acme S.A., Parque Industrial Lote 4, Pilar, Buenos Aires",
		ProductIdentification: "Cargador USB modelo X1, 5V 2A",
		Regulations:           "Resolución SIYC N° 16/2025",
		TechnicalStandards:    "IEC 62368-1:2018",
		AssessmentDocument:    "Certificado N° 1234 emitido por OCP XYZ",
		DatePlace:             "12 de mayo de 2025, Buenos Aires, Argentina",
		CreatedBy:             "user-1",
		CreatedAt:             time.Date(2025, 5, 12, 10, 0, 0, 0, time.UTC),
	}
}

func signaturePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 120, 60))
	for x := 10; x < 110; x++ {
		img.SetRGBA(x, 30, color.RGBA{A: 0xff})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRenderProducesPDF(t *testing.T) {
	r := New(discardLogger())

	data, err := r.Render(context.Background(), renderableDeclaration(), nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestRenderIsDeterministic(t *testing.T) {
	r := New(discardLogger())
	d := renderableDeclaration()

	first, err := r.Render(context.Background(), d, signaturePNG(t))
	require.NoError(t, err)
	second, err := r.Render(context.Background(), d, signaturePNG(t))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRenderContentChangesOutput(t *testing.T) {
	r := New(discardLogger())
	d := renderableDeclaration()
	other := d
	other.LegalName = "Otra Empresa S.R.L."

	first, err := r.Render(context.Background(), d, nil)
	require.NoError(t, err)
	second, err := r.Render(context.Background(), other, nil)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestRenderMalformedSignatureIsSkipped(t *testing.T) {
	r := New(discardLogger())

	data, err := r.Render(context.Background(), renderableDeclaration(), []byte("not a png"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestRenderWithSignatureEmbedsImage(t *testing.T) {
	r := New(discardLogger())
	d := renderableDeclaration()

	without, err := r.Render(context.Background(), d, nil)
	require.NoError(t, err)
	with, err := r.Render(context.Background(), d, signaturePNG(t))
	require.NoError(t, err)

	assert.Greater(t, len(with), len(without))
}

func TestRenderPinsDocumentDates(t *testing.T) {
	r := New(discardLogger())
	d := renderableDeclaration()

	data, err := r.Render(context.Background(), d, nil)
	require.NoError(t, err)

	// CreationDate and ModDate both carry the record's timestamp; a wall
	// clock leaking into either would break render determinism.
	pinned := []byte("D:20250512100000")
	assert.GreaterOrEqual(t, bytes.Count(data, pinned), 2)
}

func TestSignatureNearPageBottomBreaksPage(t *testing.T) {
	r := New(discardLogger())
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	p := &page{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
		y:   pageHeight - margin - 10,
	}

	// 400x1000 px scales to 120x300 pt, far taller than the 10 pt left.
	img := image.NewRGBA(image.Rect(0, 0, 400, 1000))
	for y := 100; y < 900; y++ {
		img.SetRGBA(200, y, color.RGBA{A: 0xff})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	r.embedSignature(context.Background(), p, buf.Bytes())

	assert.Equal(t, 2, pdf.PageCount())
	// The image starts at the top margin of the fresh page and stays inside
	// the bottom margin.
	assert.LessOrEqual(t, p.y, pageHeight-margin)
}

func TestSignatureThatFitsStaysOnPage(t *testing.T) {
	r := New(discardLogger())
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	p := &page{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
		y:   margin,
	}
	before := p.y

	r.embedSignature(context.Background(), p, signaturePNG(t))

	assert.Equal(t, 1, pdf.PageCount())
	// 60 px at the 0.3 scale factor.
	assert.InDelta(t, before+18, p.y, 0.001)
}

func TestPageBreaksWhenContentOverflows(t *testing.T) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	p := &page{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
		y:   margin,
	}

	// Far more lines than fit on one A4 page.
	for i := 0; i < 80; i++ {
		p.addText("línea de contenido", normalSize, false, 0)
	}

	assert.Greater(t, pdf.PageCount(), 1)
	// The cursor restarts at the top margin after each break.
	assert.LessOrEqual(t, p.y, pageHeight-margin)
}

func TestWrappedTextBreaksLongValues(t *testing.T) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	p := &page{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
		y:   margin,
	}
	before := p.y

	long := strings.Repeat("palabra ", 60)
	p.addWrapped(long, normalSize, wrapIndent)

	// More than one line means the cursor advanced at least twice.
	assert.Greater(t, p.y, before+2*normalSize*1.2-1)
}
