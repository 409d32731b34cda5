package notionsync

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/jomei/notionapi"

	"github.com/dvloznov/treasury/internal/domain"
	"github.com/dvloznov/treasury/internal/treasury"
)

// Property names of the risk alerts database.
const (
	PropAccountID   = "Account ID"
	PropAccountName = "Account Name"
	PropAccountType = "Account Type"
	PropCurrent     = "Current Balance"
	PropWorst       = "Worst Balance"
	PropWorstDate   = "Worst Date"
	PropWorstLabel  = "Worst Balance (formatted)"
	PropAsOf        = "As Of"
	PropHorizon     = "Horizon Days"
	PropAtRisk      = "At Risk"
)

// Alert is the scan context a risk alert page is written with.
type Alert struct {
	AsOf        civil.Date
	HorizonDays int
	Currency    domain.Currency
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{
				Content: content,
			},
		},
	}
}

func dateProperty(d civil.Date) notionapi.DateProperty {
	start := notionapi.Date(d.In(time.UTC))
	return notionapi.DateProperty{
		Date: &notionapi.DateObject{Start: &start},
	}
}

// RiskAlertToNotionProperties converts an at-risk account projection to
// Notion properties.
func RiskAlertToNotionProperties(acc treasury.AccountProjection, alert Alert) notionapi.Properties {
	props := notionapi.Properties{
		PropAccountID: notionapi.TitleProperty{
			Title: richText(acc.AccountID),
		},
		PropCurrent: notionapi.NumberProperty{
			Number: acc.CurrentBalance.InexactFloat64(),
		},
		PropWorst: notionapi.NumberProperty{
			Number: acc.Worst.Amount.InexactFloat64(),
		},
		PropWorstDate: dateProperty(acc.Worst.Date),
		PropAsOf:      dateProperty(alert.AsOf),
		PropHorizon: notionapi.NumberProperty{
			Number: float64(alert.HorizonDays),
		},
		PropAtRisk: notionapi.CheckboxProperty{
			Checkbox: acc.AtRisk,
		},
	}

	if acc.Name != "" {
		props[PropAccountName] = notionapi.RichTextProperty{
			RichText: richText(acc.Name),
		}
	}
	if acc.Type != "" {
		props[PropAccountType] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: acc.Type,
			},
		}
	}
	if alert.Currency != "" {
		props[PropWorstLabel] = notionapi.RichTextProperty{
			RichText: richText(alert.Currency.Format(acc.Worst.Amount)),
		}
	}
	return props
}

// ClearedAlertProperties marks an alert page as no longer at risk.
func ClearedAlertProperties(alert Alert) notionapi.Properties {
	return notionapi.Properties{
		PropAtRisk: notionapi.CheckboxProperty{Checkbox: false},
		PropAsOf:   dateProperty(alert.AsOf),
	}
}

// extractAccountID extracts the account ID from a Notion page's properties.
// Returns empty string if not found.
func extractAccountID(page notionapi.Page) string {
	if prop, ok := page.Properties[PropAccountID]; ok {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			if len(title.Title) > 0 {
				return title.Title[0].PlainText
			}
		}
	}
	return ""
}
