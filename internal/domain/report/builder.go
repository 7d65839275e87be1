package report

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"readiness/internal/domain/assessment"
	"readiness/internal/domain/recommendations"
	"readiness/internal/platform/config"
)

const (
	pageWidth     = 210.0
	marginLeft    = 20.0
	marginTop     = 20.0
	marginRight   = 20.0
	contentBottom = 272.0
	contentWidth  = pageWidth - marginLeft - marginRight
	coreFamily    = "Helvetica"
)

type Options struct {
	LogoPath string
	FontDir  string
	Brand    config.Brand
	CTA      config.CTA
}

type Input struct {
	Firm            string
	Date            time.Time
	Scores          map[assessment.CategoryID]float64
	Recommendations recommendations.Recommendations
	ChartPNG        []byte
}

type Builder struct {
	brand   config.Brand
	cta     config.CTA
	logo    *imageAsset
	fontDir string
}

// NewBuilder resolves optional assets once. Missing or unreadable assets are
// logged and the builder falls back to a text wordmark and Helvetica.
func NewBuilder(opts Options) *Builder {
	brand := opts.Brand
	if brand.Name == "" {
		brand = config.DefaultContent().Brand
	}
	return &Builder{
		brand:   brand,
		cta:     opts.CTA,
		logo:    loadImage(opts.LogoPath),
		fontDir: loadFonts(opts.FontDir),
	}
}

type rgb struct{ r, g, b int }

type doc struct {
	pdf       *gofpdf.Fpdf
	tr        func(string) string
	family    string
	primary   rgb
	accent    rgb
	contTitle string
}

// Build renders the full report. Any gofpdf failure aborts the build and no
// bytes are returned.
func (b *Builder) Build(in Input) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: %v", ErrBuildFailed, r)
		}
	}()

	d := b.newDoc()
	if in.Date.IsZero() {
		in.Date = time.Now()
	}
	firm := strings.TrimSpace(in.Firm)
	if firm == "" {
		firm = "Your Firm"
	}
	recs := in.Recommendations

	b.coverPage(d, firm, in.Date)
	b.summaryPage(d, in, recs)
	b.chartPage(d, in, recs)
	for _, id := range assessment.CategoryIDs() {
		b.categoryPage(d, id, in, recs)
	}
	b.planPage(d, recs.Plan)
	b.ctaPage(d, recs.CTA)

	if d.pdf.Err() {
		return nil, fmt.Errorf("%w: %v", ErrBuildFailed, d.pdf.Error())
	}
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}
	return buf.Bytes(), nil
}

func (b *Builder) newDoc() *doc {
	pdf := gofpdf.New("P", "mm", "A4", b.fontDir)
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AliasNbPages("")
	pdf.SetTitle("AI Readiness Report", true)
	pdf.SetAuthor(b.brand.Name, true)

	d := &doc{
		pdf:     pdf,
		family:  coreFamily,
		tr:      pdf.UnicodeTranslatorFromDescriptor(""),
		primary: parseHex(b.brand.PrimaryColor, rgb{30, 58, 138}),
		accent:  parseHex(b.brand.AccentColor, rgb{14, 165, 233}),
	}
	if b.fontDir != "" {
		pdf.AddUTF8Font(fontFamily, "", fontRegular)
		pdf.AddUTF8Font(fontFamily, "B", fontBold)
		d.family = fontFamily
		d.tr = func(s string) string { return s }
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(coreFamily, "", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	return d
}

func (b *Builder) coverPage(d *doc, firm string, date time.Time) {
	pdf := d.pdf
	d.newPage("")

	pdf.SetFillColor(d.primary.r, d.primary.g, d.primary.b)
	pdf.Rect(0, 0, pageWidth, 8, "F")

	pdf.SetY(50)
	if b.logo != nil {
		pdf.RegisterImageOptionsReader("logo", gofpdf.ImageOptions{ImageType: b.logo.format}, bytes.NewReader(b.logo.data))
		w := 60.0
		h := w * float64(b.logo.height) / float64(b.logo.width)
		pdf.ImageOptions("logo", (pageWidth-w)/2, 50, w, h, false, gofpdf.ImageOptions{ImageType: b.logo.format}, 0, "")
		pdf.SetY(50 + h + 10)
	} else {
		d.setColor(d.primary)
		d.font("B", 26)
		pdf.CellFormat(0, 14, d.tr(b.brand.Name), "", 1, "C", false, 0, "")
		if b.brand.Tagline != "" {
			d.setColor(rgb{90, 90, 90})
			d.font("", 11)
			pdf.CellFormat(0, 7, d.tr(b.brand.Tagline), "", 1, "C", false, 0, "")
		}
		pdf.Ln(10)
	}

	pdf.SetY(pdf.GetY() + 30)
	d.setColor(rgb{20, 20, 20})
	d.font("B", 28)
	pdf.CellFormat(0, 14, d.tr("AI Readiness Report"), "", 1, "C", false, 0, "")
	pdf.Ln(6)
	d.font("", 14)
	pdf.CellFormat(0, 8, d.tr("Prepared for "+firm), "", 1, "C", false, 0, "")
	pdf.Ln(2)
	d.setColor(rgb{90, 90, 90})
	d.font("", 11)
	pdf.CellFormat(0, 7, date.Format("January 2, 2006"), "", 1, "C", false, 0, "")
}

func (b *Builder) summaryPage(d *doc, in Input, recs recommendations.Recommendations) {
	pdf := d.pdf
	d.newPage("Executive Summary")
	d.heading("Executive Summary")

	level := string(recs.Overall.Level)
	if level == "" {
		level = "-"
	}
	d.ensureSpace(22)
	y := pdf.GetY()
	pdf.SetFillColor(235, 241, 250)
	pdf.Rect(marginLeft, y, contentWidth, 20, "F")
	pdf.SetXY(marginLeft+5, y+3)
	d.setColor(d.primary)
	d.font("B", 14)
	pdf.CellFormat(contentWidth-10, 7, d.tr("Overall readiness: "+level), "", 2, "L", false, 0, "")
	d.setColor(rgb{40, 40, 40})
	d.font("", 11)
	pdf.CellFormat(contentWidth-10, 7, fmt.Sprintf("Average score: %.1f / 5", recs.Overall.Score), "", 1, "L", false, 0, "")
	pdf.SetY(y + 26)

	d.paragraph(recs.Overall.Summary, "", 11, 5.5, 0)
	pdf.Ln(4)

	if len(recs.Overall.TopPriorities) > 0 {
		d.subheading("Top priorities")
		for i, p := range recs.Overall.TopPriorities {
			d.listItem(strconv.Itoa(i+1)+".", p, 0)
		}
		pdf.Ln(4)
	}

	d.subheading("Scores by category")
	d.ensureSpace(8)
	d.font("B", 10)
	pdf.SetFillColor(d.primary.r, d.primary.g, d.primary.b)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(90, 8, "Category", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, "Score", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 8, "Level", "1", 1, "C", true, 0, "")
	d.setColor(rgb{30, 30, 30})
	d.font("", 10)
	for _, id := range assessment.CategoryIDs() {
		d.ensureSpace(8)
		score, lvl := categoryScore(id, in, recs)
		pdf.CellFormat(90, 8, d.tr(categoryName(id)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 8, fmt.Sprintf("%.1f / 5", score), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 8, d.tr(lvl), "1", 1, "C", false, 0, "")
	}
}

func (b *Builder) chartPage(d *doc, in Input, recs recommendations.Recommendations) {
	pdf := d.pdf
	d.newPage("Readiness Profile")
	d.heading("Readiness Profile")

	if len(in.ChartPNG) > 0 {
		chartImg, err := decodeImage(in.ChartPNG)
		if err == nil {
			pdf.RegisterImageOptionsReader("chart", gofpdf.ImageOptions{ImageType: chartImg.format}, bytes.NewReader(chartImg.data))
			w := 150.0
			h := w * float64(chartImg.height) / float64(chartImg.width)
			if maxH := contentBottom - pdf.GetY(); h > maxH {
				w = w * maxH / h
				h = maxH
			}
			pdf.ImageOptions("chart", (pageWidth-w)/2, pdf.GetY(), w, h, false, gofpdf.ImageOptions{ImageType: chartImg.format}, 0, "")
			pdf.SetY(pdf.GetY() + h + 4)
			return
		}
		slog.Warn("chart image invalid, drawing bars", "err", err)
	}

	const labelW, barW, barH = 55.0, 90.0, 7.0
	for _, id := range assessment.CategoryIDs() {
		d.ensureSpace(barH + 6)
		score, _ := categoryScore(id, in, recs)
		y := pdf.GetY()
		d.setColor(rgb{30, 30, 30})
		d.font("", 11)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(labelW, barH, d.tr(categoryName(id)), "", 0, "L", false, 0, "")
		pdf.SetFillColor(226, 232, 240)
		pdf.Rect(marginLeft+labelW, y, barW, barH, "F")
		if score > 0 {
			pdf.SetFillColor(d.accent.r, d.accent.g, d.accent.b)
			pdf.Rect(marginLeft+labelW, y, barW*clamp(score, 0, 5)/5, barH, "F")
		}
		pdf.SetXY(marginLeft+labelW+barW+3, y)
		pdf.CellFormat(20, barH, fmt.Sprintf("%.1f / 5", score), "", 1, "L", false, 0, "")
		pdf.SetY(y + barH + 6)
	}
	pdf.Ln(2)
	d.setColor(rgb{110, 110, 110})
	d.paragraph("The radar chart could not be generated, so scores are shown as bars.", "", 9, 5, 0)
}

func (b *Builder) categoryPage(d *doc, id assessment.CategoryID, in Input, recs recommendations.Recommendations) {
	pdf := d.pdf
	name := categoryName(id)
	d.newPage(name)
	d.heading(name)

	score, level := categoryScore(id, in, recs)
	d.setColor(d.primary)
	d.font("B", 12)
	pdf.CellFormat(0, 7, d.tr(fmt.Sprintf("Score: %.1f / 5   Level: %s", score, level)), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	cat, _ := recs.Category(id)
	if cat.WhatThisMeans != "" {
		d.subheading("What this means")
		d.paragraph(cat.WhatThisMeans, "", 11, 5.5, 0)
		pdf.Ln(3)
	}
	if len(cat.QuickWins) > 0 {
		d.subheading("Quick wins")
		for _, w := range cat.QuickWins {
			d.listItem("•", w, 0)
		}
		pdf.Ln(3)
	}
	if len(cat.Recommendations) > 0 {
		d.subheading("Recommendations")
		for i, r := range cat.Recommendations {
			d.ensureSpace(14)
			d.paragraph(fmt.Sprintf("%d. %s", i+1, r.Title), "B", 11, 6, 0)
			if r.WhyItMatters != "" {
				d.paragraph("Why it matters: "+r.WhyItMatters, "", 10, 5, 5)
			}
			for _, step := range r.HowToExecute {
				d.listItem("•", step, 5)
			}
			if meta := recommendationMeta(r); meta != "" {
				d.setColor(rgb{100, 100, 100})
				d.paragraph(meta, "", 9, 5, 5)
			}
			pdf.Ln(3)
		}
	}
}

func (b *Builder) planPage(d *doc, plan recommendations.Plan) {
	if !plan.Complete() {
		plan = recommendations.DefaultPlan()
	}
	d.newPage("30/60/90-Day Plan")
	d.heading("30/60/90-Day Plan")
	buckets := []struct {
		title string
		items []string
	}{
		{"First 30 days", plan.Day30},
		{"Days 31-60", plan.Day60},
		{"Days 61-90", plan.Day90},
	}
	for _, bucket := range buckets {
		d.subheading(bucket.title)
		for _, item := range bucket.items {
			d.listItem("•", item, 0)
		}
		d.pdf.Ln(4)
	}
}

func (b *Builder) ctaPage(d *doc, cta recommendations.CTA) {
	pdf := d.pdf
	if cta.Copy == "" {
		cta.Copy = b.cta.Copy
	}
	if cta.LinkText == "" {
		cta.LinkText = b.cta.LinkText
	}
	if cta.LinkHref == "" {
		cta.LinkHref = b.cta.LinkHref
	}
	if cta.LinkHref == "" {
		cta.LinkHref = b.brand.BookingURL
	}
	if cta.LinkText == "" && cta.LinkHref != "" {
		cta.LinkText = cta.LinkHref
	}

	d.newPage("Next Steps")
	d.heading("Next Steps")
	d.paragraph(cta.Copy, "", 12, 6, 0)
	pdf.Ln(6)

	if cta.LinkHref != "" {
		d.ensureSpace(12)
		d.font("B", 12)
		pdf.SetFillColor(d.primary.r, d.primary.g, d.primary.b)
		pdf.SetTextColor(255, 255, 255)
		w := pdf.GetStringWidth(d.tr(cta.LinkText)) + 16
		if w > contentWidth {
			w = contentWidth
		}
		pdf.CellFormat(w, 11, d.tr(cta.LinkText), "", 1, "C", true, 0, cta.LinkHref)
		pdf.Ln(8)
	}

	d.subheading("Contact")
	d.setColor(rgb{40, 40, 40})
	for _, line := range []string{b.brand.Name, b.brand.Website, b.brand.ContactEmail, b.brand.ContactPhone} {
		if strings.TrimSpace(line) == "" {
			continue
		}
		d.paragraph(line, "", 11, 6, 0)
	}
}

func (d *doc) newPage(title string) {
	d.contTitle = title
	d.pdf.AddPage()
}

// ensureSpace starts a continuation page when h more millimetres would cross
// the bottom margin.
func (d *doc) ensureSpace(h float64) {
	if d.pdf.GetY()+h <= contentBottom {
		return
	}
	d.pdf.AddPage()
	if d.contTitle == "" {
		return
	}
	d.setColor(rgb{120, 120, 120})
	d.font("", 9)
	d.pdf.CellFormat(0, 6, d.tr(d.contTitle+" (continued)"), "", 1, "L", false, 0, "")
	d.pdf.Ln(2)
}

func (d *doc) font(style string, size float64) {
	d.pdf.SetFont(d.family, style, size)
}

func (d *doc) setColor(c rgb) {
	d.pdf.SetTextColor(c.r, c.g, c.b)
}

func (d *doc) measure(s string) float64 {
	return d.pdf.GetStringWidth(d.tr(s))
}

func (d *doc) heading(title string) {
	d.setColor(d.primary)
	d.font("B", 20)
	d.pdf.CellFormat(0, 11, d.tr(title), "", 1, "L", false, 0, "")
	y := d.pdf.GetY()
	d.pdf.SetDrawColor(d.accent.r, d.accent.g, d.accent.b)
	d.pdf.SetLineWidth(0.6)
	d.pdf.Line(marginLeft, y+1, marginLeft+40, y+1)
	d.pdf.SetY(y + 6)
	d.setColor(rgb{30, 30, 30})
}

func (d *doc) subheading(title string) {
	d.ensureSpace(14)
	d.setColor(d.primary)
	d.font("B", 13)
	d.pdf.CellFormat(0, 8, d.tr(title), "", 1, "L", false, 0, "")
	d.setColor(rgb{30, 30, 30})
}

// paragraph wraps text to the content width minus indent. The current text
// color is kept.
func (d *doc) paragraph(text, style string, size, lineH, indent float64) {
	d.font(style, size)
	for _, line := range WrapText(text, contentWidth-indent, d.measure) {
		d.ensureSpace(lineH)
		d.font(style, size)
		d.pdf.SetX(marginLeft + indent)
		d.pdf.CellFormat(contentWidth-indent, lineH, d.tr(line), "", 1, "L", false, 0, "")
	}
}

func (d *doc) listItem(marker, text string, indent float64) {
	const markerW, lineH, size = 6.0, 5.5, 10.5
	d.font("", size)
	d.setColor(rgb{30, 30, 30})
	lines := WrapText(text, contentWidth-indent-markerW, d.measure)
	for i, line := range lines {
		d.ensureSpace(lineH)
		d.font("", size)
		d.pdf.SetX(marginLeft + indent)
		m := ""
		if i == 0 {
			m = marker
		}
		d.pdf.CellFormat(markerW, lineH, d.tr(m), "", 0, "L", false, 0, "")
		d.pdf.CellFormat(contentWidth-indent-markerW, lineH, d.tr(line), "", 1, "L", false, 0, "")
	}
}

func categoryName(id assessment.CategoryID) string {
	if c, ok := assessment.CategoryByID(id); ok {
		return c.Name
	}
	return string(id)
}

// categoryScore prefers the caller's score and falls back to the
// recommendation entry.
func categoryScore(id assessment.CategoryID, in Input, recs recommendations.Recommendations) (float64, string) {
	cat, ok := recs.Category(id)
	score, has := in.Scores[id]
	if !has && ok {
		score = cat.Score
	}
	level := "-"
	if ok && cat.Level != "" {
		level = string(cat.Level)
	}
	return score, level
}

func recommendationMeta(r recommendations.Recommendation) string {
	var parts []string
	if r.Owner != "" {
		parts = append(parts, "Owner: "+r.Owner)
	}
	if r.Timeline != "" {
		parts = append(parts, "Timeline: "+r.Timeline)
	}
	if r.SuccessMetric != "" {
		parts = append(parts, "Success metric: "+r.SuccessMetric)
	}
	return strings.Join(parts, " | ")
}

func parseHex(hex string, fallback rgb) rgb {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) != 6 {
		return fallback
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return fallback
	}
	return rgb{int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
