package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
)

// defaultRetries is how often the SDK retries rate-limited requests.
const defaultRetries = 3

// NotionClient implements NotionService on top of the Notion SDK.
type NotionClient struct {
	client *notionapi.Client
}

var _ NotionService = (*NotionClient)(nil)

// NewNotionClient creates a client authenticated with token. Rate-limited
// requests are retried unless opts override it.
func NewNotionClient(token string, opts ...notionapi.ClientOption) *NotionClient {
	opts = append([]notionapi.ClientOption{notionapi.WithRetry(defaultRetries)}, opts...)
	return &NotionClient{
		client: notionapi.NewClient(notionapi.Token(token), opts...),
	}
}

// CheckDatabase verifies that the alerts database exists and is shared
// with the integration.
func (n *NotionClient) CheckDatabase(ctx context.Context, databaseID string) error {
	if _, err := n.client.Database.Get(ctx, notionapi.DatabaseID(databaseID)); err != nil {
		return fmt.Errorf("CheckDatabase: %w", err)
	}
	return nil
}

// CreatePage adds an alert page to the database.
func (n *NotionClient) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	page, err := n.client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	})
	if err != nil {
		return nil, fmt.Errorf("CreatePage: %w", err)
	}
	return page, nil
}

// UpdatePage overwrites the given properties of an alert page.
func (n *NotionClient) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	page, err := n.client.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Properties: properties,
	})
	if err != nil {
		return nil, fmt.Errorf("UpdatePage: %w", err)
	}
	return page, nil
}

// QueryDatabase returns one page of query results.
func (n *NotionClient) QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	resp, err := n.client.Database.Query(ctx, notionapi.DatabaseID(databaseID), filter)
	if err != nil {
		return nil, fmt.Errorf("QueryDatabase: %w", err)
	}
	return resp, nil
}

// DeletePage archives an alert page. Notion keeps archived pages in trash.
func (n *NotionClient) DeletePage(ctx context.Context, pageID string) error {
	_, err := n.client.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Archived: true,
	})
	if err != nil {
		return fmt.Errorf("DeletePage: %w", err)
	}
	return nil
}
