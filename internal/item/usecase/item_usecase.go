package usecase

import (
	"context"
	"errors"
	"time"

	authrepo "github.com/amo-ladoja/neriah/internal/auth/repository"
	itemdomain "github.com/amo-ladoja/neriah/internal/item/domain"
	"github.com/amo-ladoja/neriah/internal/item/repository"
	syncrepo "github.com/amo-ladoja/neriah/internal/sync/repository"
	"github.com/amo-ladoja/neriah/pkg/gmail"

	"golang.org/x/oauth2"
)

var (
	ErrItemNotFound       = errors.New("item not found")
	ErrNoGmailCredentials = errors.New("no Gmail credentials on file")
)

// ItemUsecase covers the user-facing actions on extracted items
type ItemUsecase interface {
	List(userID string, filter repository.ItemFilter) ([]itemdomain.Item, int64, error)
	Get(userID, itemID string) (*itemdomain.Item, error)
	Complete(userID, itemID string) (*itemdomain.Item, error)
	Snooze(userID, itemID string, until time.Time) (*itemdomain.Item, error)
	Delete(userID, itemID string) (*itemdomain.Item, error)
	LeaveFeedback(userID, itemID string, feedback itemdomain.Feedback, comment string) (*itemdomain.Item, error)
	DeleteAll(userID string) (int64, error)
	DownloadAttachment(ctx context.Context, userID, itemID, attachmentID string) (*gmail.Attachment, error)
}

type itemUsecase struct {
	itemRepo      repository.ItemRepository
	profileRepo   authrepo.ProfileRepository
	pushTokenRepo authrepo.PushTokenRepository
	runRepo       syncrepo.SyncRunRepository
	gmailSvc      *gmail.Service
}

// NewItemUsecase creates a new instance of itemUsecase
func NewItemUsecase(itemRepo repository.ItemRepository, profileRepo authrepo.ProfileRepository, pushTokenRepo authrepo.PushTokenRepository, runRepo syncrepo.SyncRunRepository, gmailSvc *gmail.Service) ItemUsecase {
	return &itemUsecase{
		itemRepo:      itemRepo,
		profileRepo:   profileRepo,
		pushTokenRepo: pushTokenRepo,
		runRepo:       runRepo,
		gmailSvc:      gmailSvc,
	}
}

func (u *itemUsecase) List(userID string, filter repository.ItemFilter) ([]itemdomain.Item, int64, error) {
	return u.itemRepo.List(userID, filter)
}

func (u *itemUsecase) Get(userID, itemID string) (*itemdomain.Item, error) {
	item, err := u.itemRepo.FindByID(userID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	return item, nil
}

func (u *itemUsecase) Complete(userID, itemID string) (*itemdomain.Item, error) {
	item, err := u.Get(userID, itemID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	item.Status = itemdomain.StatusCompleted
	item.CompletedAt = &now
	item.SnoozedUntil = nil

	if err := u.itemRepo.Update(item); err != nil {
		return nil, err
	}
	return item, nil
}

func (u *itemUsecase) Snooze(userID, itemID string, until time.Time) (*itemdomain.Item, error) {
	if until.Before(time.Now()) {
		return nil, errors.New("snooze time must be in the future")
	}

	item, err := u.Get(userID, itemID)
	if err != nil {
		return nil, err
	}

	item.Status = itemdomain.StatusSnoozed
	item.SnoozedUntil = &until

	if err := u.itemRepo.Update(item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete is a status transition, not a row delete
func (u *itemUsecase) Delete(userID, itemID string) (*itemdomain.Item, error) {
	item, err := u.Get(userID, itemID)
	if err != nil {
		return nil, err
	}

	item.Status = itemdomain.StatusDeleted

	if err := u.itemRepo.Update(item); err != nil {
		return nil, err
	}
	return item, nil
}

func (u *itemUsecase) LeaveFeedback(userID, itemID string, feedback itemdomain.Feedback, comment string) (*itemdomain.Item, error) {
	if feedback != itemdomain.FeedbackPositive && feedback != itemdomain.FeedbackNegative {
		return nil, errors.New("feedback must be positive or negative")
	}

	item, err := u.Get(userID, itemID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	item.UserFeedback = feedback
	item.FeedbackComment = comment
	item.FeedbackAt = &now

	if err := u.itemRepo.Update(item); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteAll wipes the user's extracted data: items, push tokens and
// sync history. The profile's sync flags are reset so a later initial
// extraction starts from scratch.
func (u *itemUsecase) DeleteAll(userID string) (int64, error) {
	deleted, err := u.itemRepo.DeleteAllByUser(userID)
	if err != nil {
		return 0, err
	}

	if err := u.pushTokenRepo.DeleteTokensByUserID(userID); err != nil {
		return deleted, err
	}
	if err := u.runRepo.DeleteAllByUser(userID); err != nil {
		return deleted, err
	}

	profile, err := u.profileRepo.FindByID(userID)
	if err != nil {
		return deleted, err
	}
	if profile != nil {
		profile.InitialExtractionCompleted = false
		profile.LastSyncAt = nil
		if err := u.profileRepo.Update(profile); err != nil {
			return deleted, err
		}
	}

	return deleted, nil
}

// DownloadAttachment streams an attachment of the item's source email
// through the user's Gmail credentials
func (u *itemUsecase) DownloadAttachment(ctx context.Context, userID, itemID, attachmentID string) (*gmail.Attachment, error) {
	item, err := u.Get(userID, itemID)
	if err != nil {
		return nil, err
	}

	found := false
	for _, id := range item.AttachmentIDs {
		if id == attachmentID {
			found = true
			break
		}
	}
	if !found {
		return nil, errors.New("attachment does not belong to this item")
	}

	profile, err := u.profileRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if profile == nil || !profile.HasGmailCredentials() {
		return nil, ErrNoGmailCredentials
	}

	onRefresh := func(token *oauth2.Token) error {
		return u.profileRepo.UpdateGmailTokens(userID, token.AccessToken, token.RefreshToken, token.Expiry)
	}

	return u.gmailSvc.DownloadAttachment(ctx, profile.GmailAccessToken, profile.GmailRefreshToken, item.EmailID, attachmentID, onRefresh)
}
