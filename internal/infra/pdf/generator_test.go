package pdf

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/Spok95/smeta-bot/internal/domain/act"
	"github.com/Spok95/smeta-bot/internal/domain/estimate"
	"github.com/Spok95/smeta-bot/internal/domain/profile"
	"github.com/Spok95/smeta-bot/internal/domain/projects"
	"github.com/Spok95/smeta-bot/internal/infra/dataurl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return dataurl.Encode("image/png", buf.Bytes())
}

func sampleDocument(t *testing.T) estimate.Document {
	img := pngDataURL(t)
	e := estimate.Estimate{
		Number:       "12",
		Date:         "2024-03-09",
		ClientInfo:   "Ivanov, Lenina 1",
		Discount:     10,
		DiscountType: estimate.DiscountPercent,
		Tax:          20,
		Items: []estimate.Item{
			{ID: 1, Name: "Plaster", Quantity: 2, Price: 100, Unit: "m2", Type: estimate.ItemWork, Image: &img},
			{ID: 2, Name: "Paint", Quantity: 1, Price: 50, Type: estimate.ItemMaterial},
			{ID: 3, Name: "", Quantity: 1, Price: 10},
		},
	}
	doc, err := estimate.NewDocument(e)
	require.NoError(t, err)
	return doc
}

func TestGenerate(t *testing.T) {
	g, err := New("", "")
	require.NoError(t, err)

	logo := pngDataURL(t)
	out, err := g.Generate(sampleDocument(t), profile.Profile{Name: "Builder Ltd", Details: "INN 1234", Logo: &logo})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestGenerateWithoutProfileOrImages(t *testing.T) {
	g, err := New("", "")
	require.NoError(t, err)
	doc := sampleDocument(t)
	doc.Items[0].Image = nil
	out, err := g.Generate(doc, profile.Profile{})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestGenerateRejectsEmpty(t *testing.T) {
	g, err := New("", "")
	require.NoError(t, err)
	_, err = g.Generate(estimate.Document{}, profile.Profile{})
	assert.ErrorIs(t, err, estimate.ErrNoValidItems)
}

func TestNewFailsOnMissingFont(t *testing.T) {
	_, err := New("/nonexistent/font.ttf", "")
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Смета-12.pdf", FileName("12"))
	assert.Equal(t, "Смета-А-7_бис.pdf", FileName("А/7 бис"))
	assert.Equal(t, "Смета-б-н.pdf", FileName(" "))
}

func TestDecodeImageSkipsNonImages(t *testing.T) {
	txt := dataurl.Encode("text/plain", []byte("hi"))
	_, _, ok := decodeImage(&txt)
	assert.False(t, ok)
	_, _, ok = decodeImage(nil)
	assert.False(t, ok)
}

func TestGenerateAct(t *testing.T) {
	g, err := New("", "")
	require.NoError(t, err)
	a := act.Act{
		Number:       "3",
		Date:         "2024-03-10",
		Project:      projects.Project{ID: 7, Name: "Kitchen", Client: "Sidorov", Address: "Lesnaya 1"},
		Lines:        []act.Line{{EstimateID: 1, Title: "Works, estimate 1", Amount: 1200}},
		Total:        1200,
		TotalInWords: "One thousand two hundred",
	}
	out, err := g.GenerateAct(a, profile.Profile{Name: "Builder Ltd"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	_, err = g.GenerateAct(act.Act{}, profile.Profile{})
	assert.ErrorIs(t, err, act.ErrNothingToCertify)
	assert.Equal(t, "Акт-б-н.pdf", ActFileName("б/н"))
}
