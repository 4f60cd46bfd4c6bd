package usecase

import (
	"context"
	"errors"
	"testing"

	chatdomain "github.com/amo-ladoja/neriah/internal/chat/domain"
	itemdomain "github.com/amo-ladoja/neriah/internal/item/domain"
	itemrepo "github.com/amo-ladoja/neriah/internal/item/repository"
)

type fakeChatRepo struct {
	items        []itemdomain.Item
	receipts     []itemdomain.Item
	lastQuery    chatdomain.ItemQuery
	lastReceipts chatdomain.ReceiptQuery
}

func (f *fakeChatRepo) SearchItems(userID string, q chatdomain.ItemQuery) ([]itemdomain.Item, error) {
	f.lastQuery = q
	return f.items, nil
}

func (f *fakeChatRepo) SearchReceipts(userID string, q chatdomain.ReceiptQuery) ([]itemdomain.Item, error) {
	f.lastReceipts = q
	return f.receipts, nil
}

type fakeItemLookup struct {
	byID map[string]itemdomain.Item
}

func (f *fakeItemLookup) InsertBatch(items []itemdomain.Item) error { return nil }
func (f *fakeItemLookup) FindExistingEmailIDs(userID string, emailIDs []string) (map[string]bool, error) {
	return nil, nil
}
func (f *fakeItemLookup) List(userID string, filter itemrepo.ItemFilter) ([]itemdomain.Item, int64, error) {
	return nil, 0, nil
}
func (f *fakeItemLookup) FindByID(userID, itemID string) (*itemdomain.Item, error) { return nil, nil }
func (f *fakeItemLookup) FindByIDs(userID string, itemIDs []string) ([]itemdomain.Item, error) {
	var out []itemdomain.Item
	for _, id := range itemIDs {
		if item, ok := f.byID[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}
func (f *fakeItemLookup) Update(item *itemdomain.Item) error { return nil }
func (f *fakeItemLookup) DeleteAllByUser(userID string) (int64, error) { return 0, nil }

type fakeSearcher struct {
	ids []string
	err error
}

func (f *fakeSearcher) SemanticSearch(ctx context.Context, userID, query string, limit int) ([]string, []float64, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	scores := make([]float64, len(f.ids))
	return f.ids, scores, nil
}

func TestQuery_MapsItemsToCards(t *testing.T) {
	repo := &fakeChatRepo{items: []itemdomain.Item{
		{
			ID:          "item-1",
			Title:       "Reply to Jamie",
			Category:    itemdomain.CategoryTask,
			Priority:    itemdomain.PriorityHigh,
			SenderEmail: "jamie@example.com",
		},
		{
			ID:       "item-2",
			Title:    "Receipt from Acme",
			Category: itemdomain.CategoryReceipt,
			Priority: itemdomain.PriorityMedium,
		},
	}}
	uc := NewChatUsecase(repo, &fakeItemLookup{}, nil)

	resp, err := uc.Query(context.Background(), "user-1", "show urgent tasks")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Kind != "items" {
		t.Errorf("kind = %q", resp.Kind)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(resp.Items))
	}

	first := resp.Items[0]
	if first.Kind != "task" {
		t.Errorf("card kind = %q; want task", first.Kind)
	}
	if first.Subtitle != "High · From jamie@example.com" {
		t.Errorf("subtitle = %q", first.Subtitle)
	}

	second := resp.Items[1]
	if second.Kind != "receipt" {
		t.Errorf("card kind = %q; want receipt", second.Kind)
	}
	if second.Subtitle != "Medium · From Unknown sender" {
		t.Errorf("subtitle = %q", second.Subtitle)
	}

	// The parsed question narrowed the search
	if repo.lastQuery.Priority != "urgent" {
		t.Errorf("priority filter = %q", repo.lastQuery.Priority)
	}
	if len(repo.lastQuery.Categories) == 0 {
		t.Error("task kind should map to task-like categories")
	}
	if repo.lastQuery.Limit != 5 {
		t.Errorf("limit = %d; want 5", repo.lastQuery.Limit)
	}
}

func TestQuery_EmptyResultMessage(t *testing.T) {
	uc := NewChatUsecase(&fakeChatRepo{}, &fakeItemLookup{}, nil)

	resp, err := uc.Query(context.Background(), "user-1", "anything about dragons")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Items) != 0 {
		t.Errorf("expected no cards, got %d", len(resp.Items))
	}
	if resp.Message != "I couldn't find any matching items. Try a different query." {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestQuery_SemanticFallback(t *testing.T) {
	lookup := &fakeItemLookup{byID: map[string]itemdomain.Item{
		"item-1": {ID: "item-1", Title: "Pending one", Status: itemdomain.StatusPending, Category: itemdomain.CategoryTask},
		"item-2": {ID: "item-2", Title: "Done one", Status: itemdomain.StatusCompleted, Category: itemdomain.CategoryTask},
		"item-3": {ID: "item-3", Title: "Pending two", Status: itemdomain.StatusPending, Category: itemdomain.CategoryMeeting},
	}}
	searcher := &fakeSearcher{ids: []string{"item-3", "item-2", "item-1"}}
	uc := NewChatUsecase(&fakeChatRepo{}, lookup, searcher)

	resp, err := uc.Query(context.Background(), "user-1", "that thing about planning")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 pending cards, got %d", len(resp.Items))
	}
	// Similarity order preserved, non-pending dropped
	if resp.Items[0].ID != "item-3" || resp.Items[1].ID != "item-1" {
		t.Errorf("cards = %+v", resp.Items)
	}
}

func TestQuery_SemanticFailureDegradesToEmpty(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("index unavailable")}
	uc := NewChatUsecase(&fakeChatRepo{}, &fakeItemLookup{}, searcher)

	resp, err := uc.Query(context.Background(), "user-1", "planning notes")
	if err != nil {
		t.Fatalf("semantic failure must not surface: %v", err)
	}
	if len(resp.Items) != 0 {
		t.Errorf("expected no cards, got %d", len(resp.Items))
	}
}

func TestCalculate_SumsReceipts(t *testing.T) {
	repo := &fakeChatRepo{receipts: []itemdomain.Item{
		{
			ID:              "r-1",
			Category:        itemdomain.CategoryReceipt,
			ReceiptCategory: "software",
			ReceiptDetails:  &itemdomain.ReceiptDetails{Vendor: "Acme", Amount: 10.5, Currency: "USD", Date: "2026-03-01"},
		},
		{
			ID:             "r-2",
			Category:       itemdomain.CategoryReceipt,
			ReceiptDetails: &itemdomain.ReceiptDetails{Vendor: "Globex", Amount: 4.5, Currency: "USD"},
		},
	}}
	uc := NewChatUsecase(repo, &fakeItemLookup{}, nil)

	resp, err := uc.Calculate(context.Background(), "user-1", "how much did I spend on software")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Total != "15.00" {
		t.Errorf("total = %q; want 15.00", resp.Total)
	}
	if resp.Currency != "USD" {
		t.Errorf("currency = %q", resp.Currency)
	}
	if len(resp.Receipts) != 2 {
		t.Fatalf("expected 2 receipt cards, got %d", len(resp.Receipts))
	}
	if resp.Receipts[0].Title != "Receipt from Acme" {
		t.Errorf("title = %q", resp.Receipts[0].Title)
	}
	if resp.Receipts[0].Subtitle != "$10.50 · Software · 2026-03-01" {
		t.Errorf("subtitle = %q", resp.Receipts[0].Subtitle)
	}
	if repo.lastReceipts.ReceiptCategory != "software" {
		t.Errorf("category filter = %q", repo.lastReceipts.ReceiptCategory)
	}
}

func TestCalculate_MixedCurrenciesFallBackToUSD(t *testing.T) {
	repo := &fakeChatRepo{receipts: []itemdomain.Item{
		{ID: "r-1", ReceiptDetails: &itemdomain.ReceiptDetails{Vendor: "A", Amount: 10, Currency: "EUR"}},
		{ID: "r-2", ReceiptDetails: &itemdomain.ReceiptDetails{Vendor: "B", Amount: 5, Currency: "GBP"}},
	}}
	uc := NewChatUsecase(repo, &fakeItemLookup{}, nil)

	resp, err := uc.Calculate(context.Background(), "user-1", "total spend")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Currency != "USD" {
		t.Errorf("currency = %q; want USD for mixed currencies", resp.Currency)
	}
	if resp.Total != "15.00" {
		t.Errorf("total = %q", resp.Total)
	}
}

func TestCalculate_DefaultWindowAndEmptyMessage(t *testing.T) {
	repo := &fakeChatRepo{}
	uc := NewChatUsecase(repo, &fakeItemLookup{}, nil)

	resp, err := uc.Calculate(context.Background(), "user-1", "spend at acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Message != "No receipts matched that query in the last 30 days." {
		t.Errorf("message = %q", resp.Message)
	}

	window := repo.lastReceipts.DateRange.End.Sub(repo.lastReceipts.DateRange.Start)
	if window.Hours() < 29*24 || window.Hours() > 31*24 {
		t.Errorf("default window = %v; want about 30 days", window)
	}
}
