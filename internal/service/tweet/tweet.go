package tweet

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/nkiryanov/minitwitter/internal/apperrors"
	"github.com/nkiryanov/minitwitter/internal/models"
	"github.com/nkiryanov/minitwitter/internal/repository"
)

// Form field the text errors are reported for
const TextField = "text"

// Tweets CRUD and search
// Every mutation takes the acting user explicitly and is scoped to tweets it owns
type TweetService struct {
	tweetRepo repository.TweetRepo
	now       func() time.Time
}

func NewService(tweetRepo repository.TweetRepo) *TweetService {
	return &TweetService{
		tweetRepo: tweetRepo,
		now:       time.Now,
	}
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return apperrors.NewValidationError(TextField, "This field is required.")
	}

	if n := utf8.RuneCountInString(text); n > models.TweetMaxLength {
		return apperrors.NewValidationError(
			TextField,
			fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", models.TweetMaxLength, n),
		)
	}

	return nil
}

// Every tweet, newest created first
func (s *TweetService) ListAll(ctx context.Context) ([]models.Tweet, error) {
	return s.list(ctx, repository.TweetFilter{})
}

// Tweet with the id owned by the user
// Missing tweet and tweet of another user are both apperrors.ErrTweetNotFound
func (s *TweetService) FindOwned(ctx context.Context, tweetID uuid.UUID, user models.User) (models.Tweet, error) {
	if user.ID == uuid.Nil || tweetID == uuid.Nil {
		return models.Tweet{}, apperrors.ErrTweetNotFound
	}

	return s.tweetRepo.GetTweet(ctx, repository.TweetFilter{ID: tweetID, OwnerID: user.ID})
}

// Create tweet owned by the user
// photo is a path inside media storage or empty
func (s *TweetService) Create(ctx context.Context, user models.User, text string, photo string) (models.Tweet, error) {
	if err := validateText(text); err != nil {
		return models.Tweet{}, err
	}

	now := s.now()
	return s.tweetRepo.CreateTweet(ctx, models.Tweet{
		ID:        uuid.New(),
		UserID:    user.ID,
		Text:      text,
		Photo:     photo,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Replace text and photo of the tweet owned by the user
func (s *TweetService) Update(ctx context.Context, user models.User, tweet models.Tweet, text string, photo string) (models.Tweet, error) {
	if !tweet.IsOwnedBy(&user) {
		return models.Tweet{}, apperrors.ErrTweetNotFound
	}

	if err := validateText(text); err != nil {
		return models.Tweet{}, err
	}

	tweet.Text = text
	tweet.Photo = photo
	tweet.UpdatedAt = s.now()

	return s.tweetRepo.UpdateTweet(ctx, tweet)
}

func (s *TweetService) Delete(ctx context.Context, user models.User, tweet models.Tweet) error {
	if !tweet.IsOwnedBy(&user) {
		return apperrors.ErrTweetNotFound
	}

	return s.tweetRepo.DeleteTweet(ctx, tweet.ID, user.ID)
}

// Tweets whose text or owner username contains q, case-insensitive
// Empty q returns the same as ListAll
func (s *TweetService) Search(ctx context.Context, q string) ([]models.Tweet, error) {
	if q == "" {
		return s.ListAll(ctx)
	}

	return s.list(ctx, repository.TweetFilter{Contains: q})
}

func (s *TweetService) list(ctx context.Context, filter repository.TweetFilter) ([]models.Tweet, error) {
	tweets, err := s.tweetRepo.ListTweets(ctx, filter)
	if err != nil {
		return nil, err
	}

	if tweets == nil {
		tweets = []models.Tweet{}
	}
	return tweets, nil
}
