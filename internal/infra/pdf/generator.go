// Package pdf renders an estimate as a printable document with maroto/v2.
package pdf

import (
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/page"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/johnfercher/maroto/v2/pkg/repository"

	"github.com/Spok95/smeta-bot/internal/domain/estimate"
	"github.com/Spok95/smeta-bot/internal/domain/profile"
	"github.com/Spok95/smeta-bot/internal/infra/dataurl"
)

var (
	colorPrimary   = &props.Color{Red: 17, Green: 24, Blue: 39}
	colorSecondary = &props.Color{Red: 107, Green: 114, Blue: 128}
	colorTableHead = &props.Color{Red: 241, Green: 245, Blue: 249}
	colorBorder    = &props.Color{Red: 226, Green: 232, Blue: 240}
)

const fontFamily = "estimate"

// Generator держит загруженные шрифты. Без шрифта используется встроенный
// Arial, в котором нет кириллицы, поэтому в проде font_path обязателен.
type Generator struct {
	fonts []*entity.CustomFont
}

// New loads the TTF fonts when paths are given. boldPath falls back to fontPath.
func New(fontPath, boldPath string) (*Generator, error) {
	if fontPath == "" {
		return &Generator{}, nil
	}
	if boldPath == "" {
		boldPath = fontPath
	}
	fonts, err := repository.New().
		AddUTF8Font(fontFamily, fontstyle.Normal, fontPath).
		AddUTF8Font(fontFamily, fontstyle.Bold, boldPath).
		Load()
	if err != nil {
		return nil, fmt.Errorf("pdf: load fonts: %w", err)
	}
	return &Generator{fonts: fonts}, nil
}

// FileName is the attachment name for an estimate number.
func FileName(number string) string {
	return fileName("Смета", number)
}

func fileName(kind, number string) string {
	n := strings.TrimSpace(number)
	if n == "" {
		n = "б-н"
	}
	return fmt.Sprintf("%s-%s.pdf", kind, strings.NewReplacer("/", "-", "\\", "-", " ", "_").Replace(n))
}

// Generate returns the PDF bytes. The document must already hold only valid items.
func (g *Generator) Generate(doc estimate.Document, company profile.Profile) ([]byte, error) {
	if len(doc.Items) == 0 {
		return nil, estimate.ErrNoValidItems
	}

	m := g.newMaroto()
	if err := m.RegisterFooter(buildFooter(doc)); err != nil {
		return nil, fmt.Errorf("pdf: register footer: %w", err)
	}

	m.AddRows(buildHeader(company)...)
	m.AddRows(row.New(1).WithStyle(&props.Cell{BorderType: border.Bottom, BorderColor: colorBorder}))
	m.AddRows(row.New(6))
	m.AddRows(buildMeta(doc)...)
	m.AddRows(row.New(6))
	m.AddRows(buildItemsTable(doc)...)
	m.AddRows(row.New(4))
	m.AddRows(buildTotals(doc)...)

	if images := buildImages(doc); len(images) > 0 {
		m.AddPages(page.New().Add(images...))
	}

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generate: %w", err)
	}
	return out.GetBytes(), nil
}

func (g *Generator) newMaroto() core.Maroto {
	b := config.NewBuilder().
		WithLeftMargin(15).
		WithTopMargin(12).
		WithRightMargin(15)
	if len(g.fonts) > 0 {
		b = b.WithCustomFonts(g.fonts).WithDefaultFont(&props.Font{Family: fontFamily})
	}
	return maroto.New(b.Build())
}

func imageExt(mime string) (extension.Type, bool) {
	switch mime {
	case "image/png":
		return extension.Png, true
	case "image/jpeg", "image/jpg":
		return extension.Jpg, true
	}
	return "", false
}

// decodeImage skips anything that is not an embeddable raster image.
func decodeImage(s *string) ([]byte, extension.Type, bool) {
	if s == nil || *s == "" {
		return nil, "", false
	}
	mime, data, err := dataurl.Decode(*s)
	if err != nil {
		return nil, "", false
	}
	ext, ok := imageExt(mime)
	return data, ext, ok
}

func buildHeader(company profile.Profile) []core.Row {
	if company.Empty() {
		return nil
	}
	info := col.New(8)
	info.Add(text.New(company.Name, props.Text{Size: 14, Style: fontstyle.Bold, Color: colorPrimary}))
	if company.Details != "" {
		info.Add(text.New(company.Details, props.Text{Size: 8, Color: colorSecondary, Top: 8}))
	}

	logo := col.New(4)
	if data, ext, ok := decodeImage(company.Logo); ok {
		logo.Add(image.NewFromBytes(data, ext, props.Rect{Percent: 85, Center: false}))
	}
	return []core.Row{row.New(22).Add(info, logo)}
}

func buildMeta(doc estimate.Document) []core.Row {
	client := doc.ClientInfo
	if strings.TrimSpace(client) == "" {
		client = "Не указан"
	}
	return []core.Row{
		row.New(10).Add(col.New(12).Add(text.New(
			fmt.Sprintf("Смета № %s от %s", doc.Number, estimate.FormatDate(doc.Date)),
			props.Text{Size: 16, Style: fontstyle.Bold, Color: colorPrimary},
		))),
		row.New(6).Add(col.New(12).Add(text.New(
			"Клиент / Объект: "+client,
			props.Text{Size: 10, Color: colorSecondary},
		))),
	}
}

func buildItemsTable(doc estimate.Document) []core.Row {
	head := props.Text{Size: 8, Style: fontstyle.Bold, Color: colorPrimary, Top: 1.5}
	headRight := props.Text{Size: 8, Style: fontstyle.Bold, Color: colorPrimary, Top: 1.5, Align: align.Right}
	rows := []core.Row{
		row.New(7).Add(
			col.New(1).Add(text.New("№", head)),
			col.New(5).Add(text.New("Наименование", head)),
			col.New(1).Add(text.New("Кол-во", headRight)),
			col.New(1).Add(text.New("Ед.изм.", head)),
			col.New(2).Add(text.New("Цена", headRight)),
			col.New(2).Add(text.New("Сумма", headRight)),
		).WithStyle(&props.Cell{BackgroundColor: colorTableHead, BorderType: border.Bottom, BorderColor: colorBorder}),
	}

	normal := props.Text{Size: 8, Color: colorPrimary, Top: 1}
	right := props.Text{Size: 8, Color: colorPrimary, Top: 1, Align: align.Right}
	for i, it := range doc.Items {
		rows = append(rows, row.New(7).Add(
			col.New(1).Add(text.New(fmt.Sprint(i+1), normal)),
			col.New(5).Add(text.New(it.Name, normal)),
			col.New(1).Add(text.New(estimate.FormatQuantity(it.Quantity), right)),
			col.New(1).Add(text.New(estimate.UnitOrDefault(it.Unit), normal)),
			col.New(2).Add(text.New(estimate.FormatMoney(it.Price), right)),
			col.New(2).Add(text.New(estimate.FormatMoney(it.Sum()), right)),
		).WithStyle(&props.Cell{BorderType: border.Bottom, BorderColor: colorBorder}))
	}
	return rows
}

func totalRow(label, value string, bold bool) core.Row {
	style := props.Text{Size: 9, Color: colorSecondary, Align: align.Right}
	if bold {
		style = props.Text{Size: 11, Style: fontstyle.Bold, Color: colorPrimary, Align: align.Right}
	}
	return row.New(6).Add(
		col.New(8).Add(text.New(label, style)),
		col.New(4).Add(text.New(value, style)),
	)
}

func buildTotals(doc estimate.Document) []core.Row {
	c := doc.Calculation
	rows := []core.Row{totalRow("Подытог:", estimate.FormatMoney(c.Subtotal), false)}
	if c.DiscountAmount > 0 {
		rows = append(rows, totalRow(
			fmt.Sprintf("Скидка (%s):", doc.DiscountLabel()),
			"-"+estimate.FormatMoney(c.DiscountAmount), false))
	}
	if c.TaxAmount > 0 {
		rows = append(rows, totalRow(
			fmt.Sprintf("Налог (%s%%):", estimate.FormatQuantity(doc.Tax)),
			"+"+estimate.FormatMoney(c.TaxAmount), false))
	}
	rows = append(rows, row.New(2), totalRow("Итого:", estimate.FormatMoney(c.GrandTotal), true))
	return rows
}

// buildImages lays out item photos, one per block, on a separate page.
func buildImages(doc estimate.Document) []core.Row {
	var rows []core.Row
	for i, it := range doc.Items {
		data, ext, ok := decodeImage(it.Image)
		if !ok {
			continue
		}
		if rows == nil {
			rows = append(rows, row.New(12).Add(col.New(12).Add(text.New(
				"Прикрепленные изображения",
				props.Text{Size: 14, Style: fontstyle.Bold, Color: colorPrimary},
			))))
		}
		rows = append(rows,
			row.New(7).Add(col.New(12).Add(text.New(
				fmt.Sprintf("Позиция #%d: %s", i+1, it.Name),
				props.Text{Size: 9, Color: colorSecondary},
			))),
			row.New(70).Add(col.New(8).Add(image.NewFromBytes(data, ext, props.Rect{Percent: 95}))),
			row.New(4),
		)
	}
	return rows
}

func buildFooter(doc estimate.Document) core.Row {
	return row.New(8).Add(col.New(12).Add(text.New(
		fmt.Sprintf("Смета № %s", doc.Number),
		props.Text{Size: 7, Color: colorSecondary, Align: align.Right, Top: 3},
	)))
}
