// Package renderer produces the official declaration PDF. Layout is fixed:
// A4 portrait, 50pt margins, Helvetica, with long values word-wrapped on an
// indented continuation block. Output is deterministic for equal input.
package renderer

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"

	"github.com/jung-kurt/gofpdf"

	"declara/internal/declaration"
	"declara/pkg/domainerrors"
)

const (
	pageWidth  = 595.0
	pageHeight = 842.0
	margin     = 50.0

	titleSize   = 16.0
	sectionSize = 14.0
	normalSize  = 12.0

	wrapIndent     = 10.0
	signatureScale = 0.3
)

type Renderer struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Renderer {
	return &Renderer{logger: logger}
}

// page tracks the layout cursor. The baseline of each line sits at y; a line
// advances the cursor by its height before the next placement.
type page struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
	y   float64
}

func (p *page) addText(text string, size float64, bold bool, indent float64) {
	style := ""
	if bold {
		style = "B"
	}
	p.pdf.SetFont("Helvetica", style, size)

	height := size * 1.2
	if p.y > pageHeight-margin-height {
		p.pdf.AddPage()
		p.y = margin
	}
	p.pdf.Text(margin+indent, p.y, p.tr(text))
	p.y += height
}

// addWrapped breaks text on word boundaries against the usable width. A word
// that overflows the current line flushes the line and starts the next one.
func (p *page) addWrapped(text string, size float64, indent float64) {
	p.pdf.SetFont("Helvetica", "", size)
	maxWidth := pageWidth - margin*2 - indent

	line := ""
	for _, word := range splitWords(text) {
		testLine := word
		if line != "" {
			testLine = line + " " + word
		}
		if p.pdf.GetStringWidth(p.tr(testLine)) > maxWidth {
			p.addText(line, size, false, indent)
			line = word
		} else {
			line = testLine
		}
	}
	if line != "" {
		p.addText(line, size, false, indent)
	}
}

func (p *page) gap(pts float64) {
	p.y += pts
}

func splitWords(text string) []string {
	var words []string
	start := -1
	for i, r := range text {
		if r == ' ' {
			if start >= 0 {
				words = append(words, text[start:i])
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, text[start:])
	}
	return words
}

// Render produces the PDF for a declaration. The signature raster is
// optional; a malformed one is reported and skipped so document generation
// never fails on a bad image.
func (r *Renderer) Render(ctx context.Context, d declaration.Declaration, signature []byte) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	// Both document dates are pinned so identical inputs give byte-identical
	// output; gofpdf would otherwise stamp the wall clock.
	pdf.SetCreationDate(d.CreatedAt)
	pdf.SetModificationDate(d.CreatedAt)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTextColor(0, 0, 0)
	pdf.AddPage()

	p := &page{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
		y:   margin,
	}

	p.addText("DECLARACIÓN JURADA DE CONFORMIDAD (DJC)", titleSize, true, 0)

	p.gap(10)
	p.addText(d.Resolution, normalSize, false, 0)
	if d.TrackingNumber != "" {
		p.addText("Número de Identificación de DJC: "+d.TrackingNumber, normalSize, false, 0)
	}
	p.gap(20)

	p.addText("Información del Fabricante o Importador", sectionSize, true, 0)
	p.gap(10)
	p.addText("Razón Social: "+d.LegalName, normalSize, false, 0)
	if d.TaxID != "" {
		p.addText("C.U.I.T. N°: "+d.TaxID, normalSize, false, 0)
	}
	p.addText("Nombre Comercial o Marca Registrada: "+d.BrandName, normalSize, false, 0)
	p.addText("Domicilio Legal: "+d.LegalAddress, normalSize, false, 0)
	p.addText("Domicilio de la Planta de Producción o Depósito: "+d.PlantAddress, normalSize, false, 0)
	p.addText("Teléfono: "+d.Phone, normalSize, false, 0)
	p.addText("Correo Electrónico: "+d.Email, normalSize, false, 0)
	p.gap(20)

	if !d.Representative.Empty() {
		p.addText("Representante Autorizado (si corresponde)", sectionSize, true, 0)
		p.gap(10)
		if d.Representative.Name != "" {
			p.addText("Nombre y Apellido / Razón Social: "+d.Representative.Name, normalSize, false, 0)
		}
		if d.Representative.Address != "" {
			p.addText("Domicilio Legal: "+d.Representative.Address, normalSize, false, 0)
		}
		if d.Representative.TaxID != "" {
			p.addText("C.U.I.T. N°: "+d.Representative.TaxID, normalSize, false, 0)
		}
		p.gap(20)
	}

	p.addText("Información del Producto", sectionSize, true, 0)
	p.gap(10)
	p.addText("Código de Identificación Único del Producto: "+d.ProductCode, normalSize, false, 0)
	p.addText("Fabricante (Incluir domicilio de la planta):", normalSize, false, 0)
	p.addWrapped(d.Manufacturer, normalSize, wrapIndent)
	p.addText("Identificación del Producto (marca, modelo, características):", normalSize, false, 0)
	p.addWrapped(d.ProductIdentification, normalSize, wrapIndent)
	p.gap(20)

	p.addText("Normas y Evaluación de la Conformidad", sectionSize, true, 0)
	p.gap(10)
	p.addText("Reglamento/s Aplicable/s:", normalSize, false, 0)
	p.addWrapped(d.Regulations, normalSize, wrapIndent)
	p.addText("Norma/s Técnica/s:", normalSize, false, 0)
	p.addWrapped(d.TechnicalStandards, normalSize, wrapIndent)
	p.addText("Referencia al Documento de Evaluación de la Conformidad: "+d.AssessmentDocument, normalSize, false, 0)
	p.gap(20)

	if d.DeclarationLink != "" {
		p.addText("Otros Datos", sectionSize, true, 0)
		p.gap(10)
		p.addText("Enlace a la Declaración de Conformidad en Internet: "+d.DeclarationLink, normalSize, false, 0)
		p.gap(20)
	}

	p.addText("Fecha, Lugar y Firma", sectionSize, true, 0)
	p.gap(10)
	p.addText("Fecha y Lugar: "+d.DatePlace, normalSize, false, 0)

	if len(signature) > 0 {
		p.gap(20)
		r.embedSignature(ctx, p, signature)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeRender, "no se pudo generar el documento")
	}
	return buf.Bytes(), nil
}

// embedSignature places the signature image at the left margin below the
// date line. Decode failures are logged and the block is skipped.
func (r *Renderer) embedSignature(ctx context.Context, p *page, signature []byte) {
	cfg, err := png.DecodeConfig(bytes.NewReader(signature))
	if err != nil {
		r.logger.ErrorContext(ctx, "skipping malformed signature image", "error", err)
		return
	}

	w := float64(cfg.Width) * signatureScale
	h := float64(cfg.Height) * signatureScale

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	name := fmt.Sprintf("signature-%dx%d", cfg.Width, cfg.Height)
	p.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(signature))
	if p.pdf.Err() {
		r.logger.ErrorContext(ctx, "skipping malformed signature image", "error", p.pdf.Error())
		p.pdf.ClearError()
		return
	}
	// The image is a layout unit like a text line: if it does not fit in the
	// remaining space it moves to a fresh page instead of crossing the
	// bottom margin.
	if p.y > pageHeight-margin-h {
		p.pdf.AddPage()
		p.y = margin
	}
	p.pdf.ImageOptions(name, margin, p.y, w, h, false, opts, 0, "")
	p.y += h
}
