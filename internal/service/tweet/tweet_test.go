package tweet

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/minitwitter/internal/apperrors"
	"github.com/nkiryanov/minitwitter/internal/models"
	"github.com/nkiryanov/minitwitter/internal/repository"
	"github.com/nkiryanov/minitwitter/internal/repository/postgres"
	"github.com/nkiryanov/minitwitter/internal/testutil"
)

func TestTweet(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Create service with users alice and bob within transaction
	inTx := func(t *testing.T, fn func(s *TweetService, alice models.User, bob models.User)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)

			alice, err := storage.User().CreateUser(t.Context(), repository.CreateUserParams{Username: "alice", HashedPassword: "hash"})
			require.NoError(t, err)
			bob, err := storage.User().CreateUser(t.Context(), repository.CreateUserParams{Username: "bob", HashedPassword: "hash"})
			require.NoError(t, err)

			fn(NewService(storage.Tweet()), alice, bob)
		})
	}

	// Clock moving one minute forward on every call
	tickingClock := func() func() time.Time {
		now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		return func() time.Time {
			now = now.Add(time.Minute)
			return now
		}
	}

	t.Run("Create", func(t *testing.T) {
		t.Run("create then find", func(t *testing.T) {
			for _, text := range []string{"a", "hello world", "привет, мир", strings.Repeat("x", 280), strings.Repeat("ж", 280)} {
				inTx(t, func(s *TweetService, alice models.User, _ models.User) {
					created, err := s.Create(t.Context(), alice, text, "")
					require.NoError(t, err, "tweet with %d characters has to be created", len([]rune(text)))

					got, err := s.FindOwned(t.Context(), created.ID, alice)

					require.NoError(t, err)
					require.Equal(t, text, got.Text)
					require.Equal(t, alice.ID, got.UserID, "creator has to be owner")
					require.Equal(t, "alice", got.Username)
					require.False(t, got.HasPhoto())
					require.Equal(t, got.CreatedAt, got.UpdatedAt, "new tweet is not updated yet")
				})
			}
		})

		t.Run("with photo", func(t *testing.T) {
			inTx(t, func(s *TweetService, alice models.User, _ models.User) {
				created, err := s.Create(t.Context(), alice, "cat", "photos/cat.png")
				require.NoError(t, err)

				require.True(t, created.HasPhoto())
				require.Equal(t, "photos/cat.png", created.Photo)
			})
		})

		tests := []struct {
			name    string
			text    string
			message string
		}{
			{"empty", "", "This field is required."},
			{"only spaces", "   ", "This field is required."},
			{"281 characters", strings.Repeat("x", 281), "Ensure this value has at most 280 characters (it has 281)."},
			{"281 runes", strings.Repeat("ж", 281), "Ensure this value has at most 280 characters (it has 281)."},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				inTx(t, func(s *TweetService, alice models.User, _ models.User) {
					_, err := s.Create(t.Context(), alice, tt.text, "")

					var verr *apperrors.ValidationError
					require.ErrorAs(t, err, &verr)
					require.Equal(t, tt.message, verr.Fields[TextField])

					all, err := s.ListAll(t.Context())
					require.NoError(t, err)
					require.Empty(t, all, "invalid tweet must not be persisted")
				})
			})
		}
	})

	t.Run("FindOwned", func(t *testing.T) {
		inTx(t, func(s *TweetService, alice models.User, bob models.User) {
			created, err := s.Create(t.Context(), alice, "alice tweet", "")
			require.NoError(t, err)

			_, err = s.FindOwned(t.Context(), created.ID, bob)
			require.ErrorIs(t, err, apperrors.ErrTweetNotFound, "other owner tweet is not found")

			_, err = s.FindOwned(t.Context(), uuid.New(), alice)
			require.ErrorIs(t, err, apperrors.ErrTweetNotFound)

			_, err = s.FindOwned(t.Context(), created.ID, models.User{})
			require.ErrorIs(t, err, apperrors.ErrTweetNotFound, "anonymous owns nothing")
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("update ok", func(t *testing.T) {
			inTx(t, func(s *TweetService, alice models.User, _ models.User) {
				s.now = tickingClock()
				created, err := s.Create(t.Context(), alice, "before", "photos/old.png")
				require.NoError(t, err)

				updated, err := s.Update(t.Context(), alice, created, "after", "")

				require.NoError(t, err)
				assert.Equal(t, created.ID, updated.ID, "id must not change")
				assert.Equal(t, created.UserID, updated.UserID, "owner must not change")
				assert.True(t, created.CreatedAt.Equal(updated.CreatedAt), "created must not change")
				assert.True(t, updated.UpdatedAt.After(created.UpdatedAt), "updated must advance")
				assert.Equal(t, "after", updated.Text)
				assert.Empty(t, updated.Photo)
			})
		})

		t.Run("updated advances with frozen clock", func(t *testing.T) {
			inTx(t, func(s *TweetService, alice models.User, _ models.User) {
				frozen := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
				s.now = func() time.Time { return frozen }

				tweet, err := s.Create(t.Context(), alice, "v0", "")
				require.NoError(t, err)

				for _, text := range []string{"v1", "v2", "v3"} {
					updated, err := s.Update(t.Context(), alice, tweet, text, "")
					require.NoError(t, err)
					require.True(t, updated.UpdatedAt.After(tweet.UpdatedAt), "updated must advance on every update")
					tweet = updated
				}
			})
		})

		t.Run("invalid text", func(t *testing.T) {
			inTx(t, func(s *TweetService, alice models.User, _ models.User) {
				created, err := s.Create(t.Context(), alice, "before", "")
				require.NoError(t, err)

				_, err = s.Update(t.Context(), alice, created, strings.Repeat("x", 281), "")

				var verr *apperrors.ValidationError
				require.ErrorAs(t, err, &verr)

				got, err := s.FindOwned(t.Context(), created.ID, alice)
				require.NoError(t, err)
				require.Equal(t, "before", got.Text, "invalid update must not be persisted")
			})
		})

		t.Run("bob edits alice tweet", func(t *testing.T) {
			inTx(t, func(s *TweetService, alice models.User, bob models.User) {
				created, err := s.Create(t.Context(), alice, "alice tweet", "")
				require.NoError(t, err)

				_, err = s.Update(t.Context(), bob, created, "hijacked", "")
				require.ErrorIs(t, err, apperrors.ErrTweetNotFound)

				forged := created
				forged.UserID = bob.ID
				_, err = s.Update(t.Context(), bob, forged, "hijacked", "")
				require.ErrorIs(t, err, apperrors.ErrTweetNotFound, "repository must check owner too")

				got, err := s.FindOwned(t.Context(), created.ID, alice)
				require.NoError(t, err)
				require.Equal(t, "alice tweet", got.Text)
			})
		})
	})

	t.Run("Delete", func(t *testing.T) {
		inTx(t, func(s *TweetService, alice models.User, bob models.User) {
			created, err := s.Create(t.Context(), alice, "bye", "")
			require.NoError(t, err)

			err = s.Delete(t.Context(), bob, created)
			require.ErrorIs(t, err, apperrors.ErrTweetNotFound, "only owner may delete")

			err = s.Delete(t.Context(), alice, created)
			require.NoError(t, err)

			_, err = s.FindOwned(t.Context(), created.ID, alice)
			require.ErrorIs(t, err, apperrors.ErrTweetNotFound, "deleted tweet is not found")

			err = s.Delete(t.Context(), alice, created)
			require.ErrorIs(t, err, apperrors.ErrTweetNotFound, "second delete must fail")
		})
	})

	t.Run("ListAll", func(t *testing.T) {
		t.Run("empty", func(t *testing.T) {
			inTx(t, func(s *TweetService, _ models.User, _ models.User) {
				all, err := s.ListAll(t.Context())

				require.NoError(t, err)
				require.NotNil(t, all)
				require.Empty(t, all)
			})
		})

		t.Run("newest first", func(t *testing.T) {
			inTx(t, func(s *TweetService, alice models.User, bob models.User) {
				s.now = tickingClock()
				first, err := s.Create(t.Context(), alice, "first", "")
				require.NoError(t, err)
				second, err := s.Create(t.Context(), bob, "second", "")
				require.NoError(t, err)

				// Updating does not reorder: ordering is by creation
				_, err = s.Update(t.Context(), alice, first, "first edited", "")
				require.NoError(t, err)

				all, err := s.ListAll(t.Context())

				require.NoError(t, err)
				require.Len(t, all, 2)
				require.Equal(t, second.ID, all[0].ID)
				require.Equal(t, first.ID, all[1].ID)
			})
		})
	})

	t.Run("Search", func(t *testing.T) {
		inTx(t, func(s *TweetService, alice models.User, bob models.User) {
			s.now = tickingClock()
			hello, err := s.Create(t.Context(), alice, "hello world", "")
			require.NoError(t, err)
			bobs, err := s.Create(t.Context(), bob, "good morning", "")
			require.NoError(t, err)
			mixed, err := s.Create(t.Context(), alice, "Say Hello to BOB", "")
			require.NoError(t, err)

			all, err := s.ListAll(t.Context())
			require.NoError(t, err)
			require.Equal(t, mixed.ID, all[0].ID, "newest tweet comes first")

			ids := func(tweets []models.Tweet) []uuid.UUID {
				res := []uuid.UUID{}
				for _, tw := range tweets {
					res = append(res, tw.ID)
				}
				return res
			}

			t.Run("empty query same as list all", func(t *testing.T) {
				got, err := s.Search(t.Context(), "")

				require.NoError(t, err)
				require.Equal(t, ids(all), ids(got))
			})

			tests := []struct {
				q    string
				want []uuid.UUID
			}{
				{"HELLO", []uuid.UUID{mixed.ID, hello.ID}},
				{"bob", []uuid.UUID{mixed.ID, bobs.ID}},
				{"ALI", []uuid.UUID{mixed.ID, hello.ID}},
				{"morning", []uuid.UUID{bobs.ID}},
				{"nothing like this", []uuid.UUID{}},
			}

			for _, tt := range tests {
				t.Run(tt.q, func(t *testing.T) {
					got, err := s.Search(t.Context(), tt.q)

					require.NoError(t, err)
					require.NotNil(t, got)
					require.Equal(t, tt.want, ids(got), "matches in list all order")

					q := strings.ToLower(tt.q)
					for _, tw := range got {
						matched := strings.Contains(strings.ToLower(tw.Text), q) || strings.Contains(strings.ToLower(tw.Username), q)
						require.True(t, matched, "tweet %q by %q does not match %q", tw.Text, tw.Username, tt.q)
					}
				})
			}
		})
	})

	t.Run("alice tweets hello world", func(t *testing.T) {
		inTx(t, func(s *TweetService, alice models.User, bob models.User) {
			_, err := s.Create(t.Context(), bob, "older tweet", "")
			require.NoError(t, err)
			created, err := s.Create(t.Context(), alice, "hello world", "")
			require.NoError(t, err)

			all, err := s.ListAll(t.Context())
			require.NoError(t, err)
			require.Equal(t, created.ID, all[0].ID, "new tweet appears first")

			found, err := s.Search(t.Context(), "HELLO")
			require.NoError(t, err)
			require.Len(t, found, 1)
			require.Equal(t, created.ID, found[0].ID)

			found, err = s.Search(t.Context(), "bob")
			require.NoError(t, err)
			for _, tw := range found {
				require.NotEqual(t, created.ID, tw.ID, "bob search must not return alice tweet")
			}
		})
	})
}
