package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	chatdomain "github.com/amo-ladoja/neriah/internal/chat/domain"
	"github.com/amo-ladoja/neriah/internal/chat/repository"
	itemdomain "github.com/amo-ladoja/neriah/internal/item/domain"
	itemrepo "github.com/amo-ladoja/neriah/internal/item/repository"
)

// SemanticSearcher is the optional similarity fallback when keyword
// filtering finds nothing
type SemanticSearcher interface {
	SemanticSearch(ctx context.Context, userID, query string, limit int) ([]string, []float64, error)
}

// ChatUsecase answers free-text questions over the user's extracted
// items
type ChatUsecase interface {
	Query(ctx context.Context, userID, text string) (*chatdomain.QueryResponse, error)
	Calculate(ctx context.Context, userID, text string) (*chatdomain.CalcResponse, error)
}

type chatUsecase struct {
	chatRepo repository.ChatRepository
	itemRepo itemrepo.ItemRepository
	searcher SemanticSearcher
}

// NewChatUsecase creates a new instance of chatUsecase. searcher may
// be nil when no semantic index is configured.
func NewChatUsecase(chatRepo repository.ChatRepository, itemRepo itemrepo.ItemRepository, searcher SemanticSearcher) ChatUsecase {
	return &chatUsecase{
		chatRepo: chatRepo,
		itemRepo: itemRepo,
		searcher: searcher,
	}
}

func kindCategories(kind string) []string {
	switch kind {
	case "receipt":
		return []string{string(itemdomain.CategoryReceipt), string(itemdomain.CategoryInvoice)}
	case "meeting":
		return []string{string(itemdomain.CategoryMeeting)}
	case "task":
		return []string{
			string(itemdomain.CategoryTask), string(itemdomain.CategoryReply),
			string(itemdomain.CategoryFollowUp), string(itemdomain.CategoryDeadline),
			string(itemdomain.CategoryReview),
		}
	}
	return nil
}

func cardKind(category itemdomain.Category) string {
	switch {
	case category == itemdomain.CategoryMeeting:
		return "meeting"
	case category.IsReceiptLike():
		return "receipt"
	default:
		return "task"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func mapItemToCard(item itemdomain.Item) chatdomain.ItemCard {
	sender := item.SenderEmail
	if sender == "" {
		sender = item.SenderName
	}
	if sender == "" {
		sender = "Unknown sender"
	}

	var subtitleParts []string
	if item.Priority != "" {
		subtitleParts = append(subtitleParts, capitalize(string(item.Priority)))
	}
	subtitleParts = append(subtitleParts, "From "+sender)

	return chatdomain.ItemCard{
		ID:       item.ID,
		Title:    item.Title,
		Subtitle: strings.Join(subtitleParts, " · "),
		Kind:     cardKind(item.Category),
	}
}

func (u *chatUsecase) Query(ctx context.Context, userID, text string) (*chatdomain.QueryResponse, error) {
	now := time.Now()
	negations := ExtractNegations(text)

	query := chatdomain.ItemQuery{
		Categories: kindCategories(ExtractItemKind(text)),
		Priority:   ExtractPriority(text),
		DateRange:  ExtractDateRange(text, now),
		Keywords:   ExtractKeywords(text, negations),
		Negations:  negations,
		Limit:      5,
	}

	items, err := u.chatRepo.SearchItems(userID, query)
	if err != nil {
		return nil, err
	}

	if len(items) == 0 && u.searcher != nil && strings.TrimSpace(text) != "" {
		items = u.semanticFallback(ctx, userID, text)
	}

	cards := make([]chatdomain.ItemCard, 0, len(items))
	for _, item := range items {
		cards = append(cards, mapItemToCard(item))
	}

	message := "Here are a few matches from your dashboard."
	if len(cards) == 0 {
		message = "I couldn't find any matching items. Try a different query."
	}

	return &chatdomain.QueryResponse{
		Kind:    "items",
		Message: message,
		Items:   cards,
	}, nil
}

// semanticFallback asks the vector index for similar items when the
// keyword filters found nothing. Best-effort: any failure just leaves
// the result empty.
func (u *chatUsecase) semanticFallback(ctx context.Context, userID, text string) []itemdomain.Item {
	itemIDs, _, err := u.searcher.SemanticSearch(ctx, userID, text, 5)
	if err != nil {
		log.Printf("[Chat] Semantic fallback failed for user %s: %v", userID, err)
		return nil
	}
	if len(itemIDs) == 0 {
		return nil
	}

	items, err := u.itemRepo.FindByIDs(userID, itemIDs)
	if err != nil {
		log.Printf("[Chat] Loading semantic matches failed: %v", err)
		return nil
	}

	// Keep only actionable ones, in similarity order
	byID := make(map[string]itemdomain.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	ordered := make([]itemdomain.Item, 0, len(itemIDs))
	for _, id := range itemIDs {
		if item, ok := byID[id]; ok && item.Status == itemdomain.StatusPending {
			ordered = append(ordered, item)
		}
	}
	return ordered
}

func (u *chatUsecase) Calculate(ctx context.Context, userID, text string) (*chatdomain.CalcResponse, error) {
	now := time.Now()

	dateRange := ExtractDateRange(text, now)
	if dateRange == nil {
		// Default window: the last 30 days
		dateRange = &chatdomain.DateRange{
			Start: now.AddDate(0, 0, -30),
			End:   now,
		}
	}

	query := chatdomain.ReceiptQuery{
		ReceiptCategory: ExtractCategory(text),
		Vendor:          ExtractVendor(text),
		DateRange:       *dateRange,
		Negations:       ExtractNegations(text),
		Limit:           5,
	}

	items, err := u.chatRepo.SearchReceipts(userID, query)
	if err != nil {
		return nil, err
	}

	var total float64
	currencies := make(map[string]bool)
	cards := make([]chatdomain.ItemCard, 0, len(items))
	currency := "USD"

	for _, item := range items {
		vendor := "Unknown vendor"
		amountLabel := "Amount missing"
		dateLabel := ""
		itemCurrency := "USD"

		if item.ReceiptDetails != nil {
			if item.ReceiptDetails.Vendor != "" {
				vendor = item.ReceiptDetails.Vendor
			}
			if item.ReceiptDetails.Amount > 0 {
				amountLabel = fmt.Sprintf("$%.2f", item.ReceiptDetails.Amount)
				total += item.ReceiptDetails.Amount
			}
			if item.ReceiptDetails.Currency != "" {
				itemCurrency = item.ReceiptDetails.Currency
			}
			dateLabel = item.ReceiptDetails.Date
		}
		if dateLabel == "" && item.EmailDate != nil {
			dateLabel = item.EmailDate.Format("2006-01-02")
		}

		category := item.ReceiptCategory
		if category == "" {
			category = "other"
		}

		subtitle := amountLabel + " · " + capitalize(category)
		if dateLabel != "" {
			subtitle += " · " + dateLabel
		}

		currencies[itemCurrency] = true
		currency = itemCurrency

		cards = append(cards, chatdomain.ItemCard{
			ID:       item.ID,
			Title:    "Receipt from " + vendor,
			Subtitle: subtitle,
			Kind:     "receipt",
		})
	}

	// Mixed currencies degrade to USD rather than summing apples and
	// oranges under one symbol
	if len(currencies) != 1 {
		currency = "USD"
	}

	message := "Here is the total spend for the selected period."
	if len(cards) == 0 {
		message = "No receipts matched that query in the last 30 days."
	}

	return &chatdomain.CalcResponse{
		Kind:     "calc",
		Message:  message,
		Total:    fmt.Sprintf("%.2f", total),
		Currency: currency,
		Receipts: cards,
	}, nil
}
