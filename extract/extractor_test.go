package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"caixa_scrooper/models"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	return string(data)
}

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return doc
}

func TestExtract_Basic(t *testing.T) {
	rec, err := New(nil, "").ExtractHTML(loadFixture(t, "detail_basic.html"))
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	want := map[string]string{
		models.FieldTitle:            "RESIDENCIAL PONTA NEGRA",
		models.FieldDescription:      "Casa, 3 quartos, 2 vagas de garagem.",
		models.FieldAddress:          "RUA DAS DUNAS, N. 100, PONTA NEGRA - NATAL/RN",
		models.FieldAppraisalValue:   "R$ 150.000,00",
		models.FieldMinimumSaleValue: "R$ 98.500,00",
		models.FieldPropertyType:     "Casa",
		models.FieldRooms:            "3",
		models.FieldParking:          "2",
		models.FieldPropertyCode:     "1444400123456",
		models.FieldRegistrations:    "45.678",
		models.FieldJurisdiction:     "NATAL-RN",
		models.FieldTaxRegistration:  "1.234.567-8",
		models.FieldTotalArea:        "250,00m2",
		models.FieldPrivateArea:      "120,50m2",
		models.FieldPaymentTerms:     "Recursos próprios. Permite financiamento.",
		models.FieldExpenseRules:     "Condomínio sob responsabilidade do comprador.",
		models.FieldLink:             "",
	}
	for field, expected := range want {
		if got := rec.Get(field); got != expected {
			t.Errorf("%s: expected %q, got %q", field, expected, got)
		}
	}
}

func TestExtract_SparsePageLeavesFieldsEmpty(t *testing.T) {
	rec, err := New(nil, "").ExtractHTML(loadFixture(t, "detail_sparse.html"))
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	if rec.Jurisdiction != "MOSSORÓ-RN" {
		t.Fatalf("expected jurisdiction from label sibling, got %q", rec.Jurisdiction)
	}
	if rec.AppraisalValue != "R$ 80.000,00" {
		t.Fatalf("expected appraisal from second variant, got %q", rec.AppraisalValue)
	}
	for _, field := range []string{
		models.FieldTitle,
		models.FieldAddress,
		models.FieldMinimumSaleValue,
		models.FieldRooms,
		models.FieldPaymentTerms,
		models.FieldExpenseRules,
	} {
		if got := rec.Get(field); got != "" {
			t.Errorf("%s: expected empty, got %q", field, got)
		}
	}
}

func TestExtract_EmptyDocument(t *testing.T) {
	rec, err := New(nil, "").ExtractHTML("")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	for i, v := range rec.Values() {
		if v != "" {
			t.Errorf("field %s: expected empty, got %q", models.FieldNames()[i], v)
		}
	}
}

func TestLabelValue_CollapsesWhitespace(t *testing.T) {
	doc := parse(t, `<div><div><label>Valor de avaliação</label></div><div>
		R$   150.000,00
	</div></div>`)

	if got := LabelValue(doc, "label", "Valor de avaliação"); got != "R$ 150.000,00" {
		t.Fatalf("expected %q, got %q", "R$ 150.000,00", got)
	}
}

func TestLabelValue_FirstVariantWins(t *testing.T) {
	doc := parse(t, `
		<div><div><label>Avaliação</label></div><div>second</div></div>
		<div><div><label>Valor de avaliação</label></div><div>first</div></div>`)

	// "Avaliação" also matches the first label, so order of variants decides.
	if got := LabelValue(doc, "label", "Valor de avaliação", "Avaliação"); got != "first" {
		t.Fatalf("expected first variant result, got %q", got)
	}
	if got := LabelValue(doc, "label", "Inexistente", "Avaliação"); got != "second" {
		t.Fatalf("expected fallback variant result, got %q", got)
	}
}

func TestLabelValue_CaseInsensitive(t *testing.T) {
	doc := parse(t, `<div><div><label>  COMARCA: </label></div><div>NATAL</div></div>`)

	if got := LabelValue(doc, "", "comarca"); got != "NATAL" {
		t.Fatalf("expected NATAL, got %q", got)
	}
}

func TestLabelValue_NoSibling(t *testing.T) {
	doc := parse(t, `<div><div><label>Comarca</label></div></div>`)

	if got := LabelValue(doc, "label", "Comarca"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestLabelValue_EmptySiblingFallsThrough(t *testing.T) {
	doc := parse(t, `
		<div><div><label>Vagas</label></div><div>   </div></div>
		<div><div><label>Garagem</label></div><div>1</div></div>`)

	if got := LabelValue(doc, "label", "Vagas", "Garagem"); got != "1" {
		t.Fatalf("expected 1, got %q", got)
	}
}

func TestSelectorText_Fallbacks(t *testing.T) {
	doc := parse(t, `<div class="pagamento"> </div><p>  texto   livre </p>`)

	if got := SelectorText(doc, ".descricao-imovel", "p"); got != "texto livre" {
		t.Fatalf("expected fallback text, got %q", got)
	}
	if got := SelectorText(doc, ".pagamento"); got != "" {
		t.Fatalf("expected empty for blank element, got %q", got)
	}
	if got := SelectorText(doc); got != "" {
		t.Fatalf("expected empty with no selectors, got %q", got)
	}
}

func TestExtract_CustomRules(t *testing.T) {
	rules := []FieldRule{
		{Field: models.FieldTitle, Selectors: []string{"#nome"}},
		{Field: models.FieldJurisdiction, Labels: []string{"Foro"}},
		{Field: models.FieldLink, Selectors: []string{"a"}},
	}
	doc := parse(t, `<span id="nome">Lote 7</span><div><dt>Foro</dt></div><div>Parnamirim</div><a>x</a>`)

	rec := New(rules, "dt").Extract(doc)
	if rec.Title != "Lote 7" {
		t.Fatalf("unexpected title %q", rec.Title)
	}
	if rec.Jurisdiction != "Parnamirim" {
		t.Fatalf("unexpected jurisdiction %q", rec.Jurisdiction)
	}
	if rec.Link != "" {
		t.Fatalf("link must not be extracted, got %q", rec.Link)
	}
}
