package models

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// SearchCriteria selects the region (two-letter state code) and locality
// used to fill the search form.
type SearchCriteria struct {
	Region   string `json:"region" yaml:"region" validate:"required,len=2,alpha"`
	Locality string `json:"locality" yaml:"locality" validate:"required"`
}

// Normalize upper-cases the region and trims both values.
func (c SearchCriteria) Normalize() SearchCriteria {
	return SearchCriteria{
		Region:   strings.ToUpper(strings.TrimSpace(c.Region)),
		Locality: strings.TrimSpace(c.Locality),
	}
}

func (c SearchCriteria) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid search criteria: %w", err)
	}
	return nil
}
