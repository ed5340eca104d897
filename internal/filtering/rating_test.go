package filtering

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kiraproject/fs-recommender/internal/profile"
)

func testCascade(t *testing.T, corpus *profile.Corpus) *Cascade {
	t.Helper()
	return NewCascade(nil, &CascadeDeps{
		Taxonomy: testTaxonomy(t),
		Corpus:   corpus,
		Logger:   zap.NewNop(),
	})
}

func TestBucketsWithoutRatingSignal(t *testing.T) {
	t.Parallel()

	pool := testPool()
	cascade := testCascade(t, &profile.Corpus{})

	user := &profile.UserProfile{ID: "u1", Skills: vec(10), Preferences: []int{4}}

	preferred, alternate, err := cascade.Buckets(context.Background(), pool, user)
	require.NoError(t, err)

	// Content-based fallback: both buckets are the same filtered pool.
	assert.Equal(t, preferred.URIs(), alternate.URIs())
	assert.Equal(t, []string{"occ:soft", "occ:web", "occ:game"}, preferred.URIs())
}

func TestBucketsAfterSkipExcludeShown(t *testing.T) {
	t.Parallel()

	pool := testPool()
	cascade := testCascade(t, &profile.Corpus{})

	user := &profile.UserProfile{
		ID:                "u1",
		Skills:            vec(10),
		Preferences:       []int{4},
		RecommendationLog: []string{"occ:soft"},
		RatingLog:         []int{profile.RatingSkipped},
	}

	preferred, alternate, err := cascade.Buckets(context.Background(), pool, user)
	require.NoError(t, err)

	assert.Equal(t, preferred.URIs(), alternate.URIs())
	assert.NotContains(t, preferred.URIs(), "occ:soft", "a skipped recommendation must not return")
	assert.Contains(t, preferred.URIs(), "occ:web")
}

func TestBucketsDecisiveRatingUsesPeers(t *testing.T) {
	t.Parallel()

	pool := testPool()
	corpus := &profile.Corpus{Users: []*profile.UserProfile{
		{
			// Peer who also liked occ:soft, later liked occ:web and occ:nurse.
			ID:                "peer1",
			RecommendationLog: []string{"occ:soft", "occ:web", "occ:nurse", "occ:cook"},
			RatingLog:         []int{profile.RatingLiked, profile.RatingLiked, profile.RatingLiked, profile.RatingDisliked},
		},
		{
			// Peer with a different reaction to occ:soft contributes nothing.
			ID:                "peer2",
			RecommendationLog: []string{"occ:soft", "occ:game"},
			RatingLog:         []int{profile.RatingDisliked, profile.RatingLiked},
		},
	}}
	cascade := testCascade(t, corpus)

	user := &profile.UserProfile{
		ID:                "u1",
		Skills:            vec(10),
		Preferences:       []int{4},
		RecommendationLog: []string{"occ:soft"},
		RatingLog:         []int{profile.RatingLiked},
	}

	preferred, alternate, err := cascade.Buckets(context.Background(), pool, user)
	require.NoError(t, err)

	// occ:soft is already shown, occ:cook was disliked by the peer. occ:web
	// matches sector 4, occ:nurse does not.
	assert.Equal(t, []string{"occ:web"}, preferred.URIs())
	assert.Equal(t, []string{"occ:nurse"}, alternate.URIs())
}

func TestBucketsPeerLikedCandidateSurvivesOwnHistory(t *testing.T) {
	t.Parallel()

	pool := testPool()
	corpus := &profile.Corpus{Users: []*profile.UserProfile{
		{
			ID:                "peer1",
			RecommendationLog: []string{"occ:cook", "occ:nurse"},
			RatingLog:         []int{profile.RatingLiked, profile.RatingLiked},
		},
	}}
	cascade := testCascade(t, corpus)

	// The user dislikes nurses in their job history, but the collaborative
	// path does not re-apply the content filters to peer evidence.
	user := &profile.UserProfile{
		ID:                "u1",
		Skills:            vec(90),
		Preferences:       []int{6},
		JobHistory:        []profile.HistoryEntry{{URI: "occ:nurse", Liked: false}},
		RecommendationLog: []string{"occ:cook"},
		RatingLog:         []int{profile.RatingLiked},
	}

	preferred, alternate, err := cascade.Buckets(context.Background(), pool, user)
	require.NoError(t, err)

	assert.Empty(t, preferred.URIs())
	assert.Equal(t, []string{"occ:nurse"}, alternate.URIs())
}

func TestBucketsFallBackWithoutMatchingPeers(t *testing.T) {
	t.Parallel()

	pool := testPool()
	corpus := &profile.Corpus{Users: []*profile.UserProfile{
		{
			ID:                "peer1",
			RecommendationLog: []string{"occ:nurse"},
			RatingLog:         []int{profile.RatingLiked},
		},
	}}
	cascade := testCascade(t, corpus)

	user := &profile.UserProfile{
		ID:                "u1",
		Skills:            vec(10),
		Preferences:       []int{4},
		RecommendationLog: []string{"occ:soft"},
		RatingLog:         []int{profile.RatingLiked},
	}

	preferred, alternate, err := cascade.Buckets(context.Background(), pool, user)
	require.NoError(t, err)

	// Nobody else rated occ:soft: content-based fallback minus shown uris.
	assert.Equal(t, preferred.URIs(), alternate.URIs())
	assert.Equal(t, []string{"occ:web", "occ:game"}, preferred.URIs())
}

func TestBucketsPeerCandidatesMissingProfileSkipped(t *testing.T) {
	t.Parallel()

	pool := testPool()
	corpus := &profile.Corpus{Users: []*profile.UserProfile{
		{
			ID:                "peer1",
			RecommendationLog: []string{"occ:soft", "occ:unprofiled", "occ:web"},
			RatingLog:         []int{profile.RatingLiked, profile.RatingLiked, profile.RatingLiked},
		},
	}}
	cascade := testCascade(t, corpus)

	user := &profile.UserProfile{
		ID:                "u1",
		Skills:            vec(10),
		Preferences:       []int{4},
		RecommendationLog: []string{"occ:soft"},
		RatingLog:         []int{profile.RatingLiked},
	}

	preferred, alternate, err := cascade.Buckets(context.Background(), pool, user)
	require.NoError(t, err)

	assert.Equal(t, []string{"occ:web"}, preferred.URIs())
	assert.Empty(t, alternate.URIs())
}

func TestRunAbortsOnInvalidFilter(t *testing.T) {
	t.Parallel()

	pool := testPool()
	steps := []Filter{NewPreference([]int{42}, zap.NewNop())}

	_, err := Run(context.Background(), zap.NewNop(), steps, pool)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sector code")
}

func TestRunRespectsContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := testPool()
	steps := []Filter{NewPreference([]int{4}, zap.NewNop())}

	_, err := Run(ctx, zap.NewNop(), steps, pool)
	assert.ErrorIs(t, err, context.Canceled)
}
