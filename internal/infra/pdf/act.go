package pdf

import (
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/Spok95/smeta-bot/internal/domain/act"
	"github.com/Spok95/smeta-bot/internal/domain/estimate"
	"github.com/Spok95/smeta-bot/internal/domain/profile"
)

const actStatement = "Вышеперечисленные работы выполнены полностью и в срок. " +
	"Заказчик претензий по объему, качеству и срокам выполнения работ не имеет."

// ActFileName is the attachment name for an act number.
func ActFileName(number string) string {
	return fileName("Акт", number)
}

// GenerateAct renders the certificate of completed works.
func (g *Generator) GenerateAct(a act.Act, company profile.Profile) ([]byte, error) {
	if len(a.Lines) == 0 {
		return nil, act.ErrNothingToCertify
	}
	m := g.newMaroto()
	if err := m.RegisterFooter(row.New(8).Add(col.New(12).Add(text.New(
		"Акт № "+a.Number,
		props.Text{Size: 7, Color: colorSecondary, Align: align.Right, Top: 3},
	)))); err != nil {
		return nil, fmt.Errorf("pdf: register footer: %w", err)
	}

	m.AddRows(buildHeader(company)...)
	m.AddRows(row.New(1).WithStyle(&props.Cell{BorderType: border.Bottom, BorderColor: colorBorder}))
	m.AddRows(row.New(6))
	m.AddRows(buildActMeta(a, company)...)
	m.AddRows(row.New(6))
	m.AddRows(buildActTable(a)...)
	m.AddRows(row.New(4))
	m.AddRows(totalRow("Итого:", estimate.FormatMoney(a.Total), true))
	m.AddRows(row.New(6))
	m.AddRows(buildActSummary(a)...)
	m.AddRows(row.New(14))
	m.AddRows(buildSignatures())

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generate act: %w", err)
	}
	return out.GetBytes(), nil
}

func orUnset(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Не указан"
	}
	return s
}

func buildActMeta(a act.Act, company profile.Profile) []core.Row {
	plain := props.Text{Size: 10, Color: colorSecondary}
	object := a.Project.Name
	if a.Project.Address != "" {
		object += ", " + a.Project.Address
	}
	return []core.Row{
		row.New(10).Add(col.New(12).Add(text.New(
			fmt.Sprintf("Акт № %s от %s", a.Number, estimate.FormatDate(a.Date)),
			props.Text{Size: 16, Style: fontstyle.Bold, Color: colorPrimary},
		))),
		row.New(7).Add(col.New(12).Add(text.New("о приемке выполненных работ", plain))),
		row.New(6).Add(col.New(12).Add(text.New("Исполнитель: "+orUnset(company.Name), plain))),
		row.New(6).Add(col.New(12).Add(text.New("Заказчик: "+orUnset(a.Project.Client), plain))),
		row.New(6).Add(col.New(12).Add(text.New("Объект: "+orUnset(object), plain))),
	}
}

func buildActTable(a act.Act) []core.Row {
	head := props.Text{Size: 8, Style: fontstyle.Bold, Color: colorPrimary, Top: 1.5}
	headRight := props.Text{Size: 8, Style: fontstyle.Bold, Color: colorPrimary, Top: 1.5, Align: align.Right}
	rows := []core.Row{
		row.New(7).Add(
			col.New(1).Add(text.New("№", head)),
			col.New(8).Add(text.New("Наименование работ", head)),
			col.New(3).Add(text.New("Сумма", headRight)),
		).WithStyle(&props.Cell{BackgroundColor: colorTableHead, BorderType: border.Bottom, BorderColor: colorBorder}),
	}
	normal := props.Text{Size: 8, Color: colorPrimary, Top: 1}
	right := props.Text{Size: 8, Color: colorPrimary, Top: 1, Align: align.Right}
	for i, l := range a.Lines {
		rows = append(rows, row.New(7).Add(
			col.New(1).Add(text.New(fmt.Sprint(i+1), normal)),
			col.New(8).Add(text.New(l.Title, normal)),
			col.New(3).Add(text.New(estimate.FormatMoney(l.Amount), right)),
		).WithStyle(&props.Cell{BorderType: border.Bottom, BorderColor: colorBorder}))
	}
	return rows
}

func buildActSummary(a act.Act) []core.Row {
	plain := props.Text{Size: 9, Color: colorPrimary}
	return []core.Row{
		row.New(6).Add(col.New(12).Add(text.New(
			fmt.Sprintf("Всего выполнено работ на сумму %s", estimate.FormatMoney(a.Total)), plain))),
		row.New(6).Add(col.New(12).Add(text.New(a.TotalInWords,
			props.Text{Size: 9, Style: fontstyle.Bold, Color: colorPrimary}))),
		row.New(12).Add(col.New(12).Add(text.New(actStatement,
			props.Text{Size: 8, Color: colorSecondary, Top: 3}))),
	}
}

func buildSignatures() core.Row {
	style := props.Text{Size: 9, Color: colorPrimary}
	return row.New(10).Add(
		col.New(6).Add(text.New("Исполнитель ____________________", style)),
		col.New(6).Add(text.New("Заказчик ____________________", style)),
	)
}
