package crm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

type pageCreator interface {
	Create(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

type notionSyncer struct {
	pages      pageCreator
	databaseID string
	limiter    *rate.Limiter
}

// NewNotion returns nil when the token or database is missing. Calls are
// throttled to Notion's documented 3 requests per second.
func NewNotion(token, databaseID string) Syncer {
	if strings.TrimSpace(token) == "" || strings.TrimSpace(databaseID) == "" {
		return nil
	}
	client := notionapi.NewClient(notionapi.Token(token))
	return newNotionSyncer(client.Page, databaseID)
}

func newNotionSyncer(pages pageCreator, databaseID string) *notionSyncer {
	return &notionSyncer{pages: pages, databaseID: databaseID, limiter: rate.NewLimiter(3, 1)}
}

func (n *notionSyncer) Name() string { return "notion" }

func (n *notionSyncer) Sync(ctx context.Context, c Contact) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "notion: rate limit")
	}
	_, err := n.pages.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(n.databaseID),
		},
		Properties: notionProperties(c, time.Now()),
	})
	if err != nil {
		return eris.Wrap(err, fmt.Sprintf("notion: create lead page in %s", n.databaseID))
	}
	return nil
}

func notionProperties(c Contact, now time.Time) notionapi.Properties {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		name = c.Email
	}
	created := notionapi.Date(now)
	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: richText(name),
		},
		"Email": notionapi.EmailProperty{
			Type:  notionapi.PropertyTypeEmail,
			Email: c.Email,
		},
		"Firm": notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(c.Firm),
		},
		"Form": notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: c.FormType},
		},
		"Wants Demo": notionapi.CheckboxProperty{
			Type:     notionapi.PropertyTypeCheckbox,
			Checkbox: c.WantsDemo,
		},
		"Submitted": notionapi.DateProperty{
			Type: notionapi.PropertyTypeDate,
			Date: &notionapi.DateObject{Start: &created},
		},
	}
	if c.Title != "" {
		props["Title"] = notionapi.RichTextProperty{Type: notionapi.PropertyTypeRichText, RichText: richText(c.Title)}
	}
	if c.Phone != "" {
		props["Phone"] = notionapi.PhoneNumberProperty{Type: notionapi.PropertyTypePhoneNumber, PhoneNumber: c.Phone}
	}
	if c.Notes != "" {
		props["Notes"] = notionapi.RichTextProperty{Type: notionapi.PropertyTypeRichText, RichText: richText(c.Notes)}
	}
	if c.Level != "" {
		props["Readiness Level"] = notionapi.SelectProperty{Type: notionapi.PropertyTypeSelect, Select: notionapi.Option{Name: c.Level}}
		props["Readiness Score"] = notionapi.NumberProperty{Type: notionapi.PropertyTypeNumber, Number: c.Score}
	}
	return props
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: s},
	}}
}
