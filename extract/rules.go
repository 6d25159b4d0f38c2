package extract

import "caixa_scrooper/models"

// FieldRule describes how one record field is found. Selectors are tried
// before labels; within each list the first non-empty result wins.
type FieldRule struct {
	Field     string   `yaml:"field"`
	Selectors []string `yaml:"selectors"`
	Labels    []string `yaml:"labels"`
}

// DefaultRules covers the Caixa detail page wording across property types.
var DefaultRules = []FieldRule{
	{Field: models.FieldTitle, Selectors: []string{"h1, .titulo-imovel, h2"}},
	{Field: models.FieldDescription, Selectors: []string{".descricao-imovel", "p"}},
	{Field: models.FieldAddress, Labels: []string{"Endereço", "Localização"}},
	{Field: models.FieldAppraisalValue, Labels: []string{"Valor de avaliação", "Avaliação"}},
	{Field: models.FieldMinimumSaleValue, Labels: []string{"Valor mínimo de venda", "Lance mínimo"}},
	{Field: models.FieldPropertyType, Labels: []string{"Tipo de imóvel", "Tipo"}},
	{Field: models.FieldRooms, Labels: []string{"Quartos", "Dormitórios"}},
	{Field: models.FieldParking, Labels: []string{"Vagas", "Garagem"}},
	{Field: models.FieldPropertyCode, Labels: []string{"Número do imóvel", "Código do imóvel"}},
	{Field: models.FieldRegistrations, Labels: []string{"Matrícula"}},
	{Field: models.FieldJurisdiction, Labels: []string{"Comarca"}},
	{Field: models.FieldTaxRegistration, Labels: []string{"Inscrição imobiliária", "IPTU"}},
	{Field: models.FieldTotalArea, Labels: []string{"Área total", "Área do terreno"}},
	{Field: models.FieldPrivateArea, Labels: []string{"Área privativa", "Área útil", "Área construída"}},
	{
		Field:     models.FieldPaymentTerms,
		Selectors: []string{".formas-pagamento, .pagamento"},
		Labels:    []string{"Formas de pagamento"},
	},
	{
		Field:     models.FieldExpenseRules,
		Selectors: []string{".despesas, .regras-despesas"},
		Labels:    []string{"Despesas", "Responsabilidade"},
	},
}
