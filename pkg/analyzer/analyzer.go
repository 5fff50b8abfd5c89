package analyzer

import (
	"github.com/amosWeiskopf/site2md/internal/models"
	"github.com/amosWeiskopf/site2md/pkg/utils"
)

// Analyzer computes run statistics over a consolidated document
type Analyzer struct{}

// New creates a new Analyzer instance
func New() *Analyzer {
	return &Analyzer{}
}

// Summarize counts pages by outcome and estimates the reading time of the
// extracted text. Diagnostics and "Content not found" bodies are not counted
// as words.
func (a *Analyzer) Summarize(doc *models.ConsolidatedDocument) models.RunSummary {
	var summary models.RunSummary
	if doc == nil {
		return summary
	}

	summary.TotalPages = len(doc.Pages)
	for _, page := range doc.Pages {
		switch {
		case !page.Succeeded:
			summary.Failed++
		case page.Body == models.ContentNotFound:
			summary.Succeeded++
			summary.ContentNotFound++
		default:
			summary.Succeeded++
			summary.Words += utils.WordCount(page.Body)
		}
	}

	if summary.Words > 0 {
		summary.ReadingMinutes = utils.ReadingMinutes(summary.Words)
	}
	return summary
}
