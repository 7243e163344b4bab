// Package sources contains the per-directory search adapters. Each
// adapter turns a query into raw product candidates; failures yield an
// error the pipeline converts into an empty result for that source.
package sources

import (
	"time"

	"github.com/google/uuid"
	"github.com/xhad/ideascout/internal/models"
)

func newProduct(companyName, tagline, website, description string, relevant bool, source models.Source) models.Product {
	if tagline == "" {
		tagline = "No tagline available"
	}
	return models.Product{
		ID:          uuid.NewString(),
		CompanyName: companyName,
		Tagline:     tagline,
		Website:     website,
		Description: description,
		IsRelevant:  relevant,
		Source:      source,
		CreatedAt:   time.Now().UTC(),
	}
}
