package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func fsHeader() string {
	return "user_id,FS1,FS2,FS3,FS4,FS5,FS6,FS7,FS8,FS9,FS10,professional_interests,job_recommendations,job_ratings,job_history"
}

func writeProfiles(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing profiles fixture: %v", err)
	}
	return path
}

func TestVectorFromRecord(t *testing.T) {
	t.Parallel()

	t.Run("canonical columns", func(t *testing.T) {
		t.Parallel()
		rec := map[string]string{}
		for _, col := range FSColumns {
			rec[col] = "0.1"
		}
		v, err := VectorFromRecord(rec)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i := range v {
			if v[i] != 0.1 {
				t.Fatalf("expected 0.1 at %d, got %v", i, v[i])
			}
		}
	})

	t.Run("legacy descriptive columns", func(t *testing.T) {
		t.Parallel()
		rec := map[string]string{
			"self_initiative":      "0.1",
			"flexibility":          "0.2",
			"leadership":           "0.3",
			"communication":        "0.4",
			"creativity":           "0.5",
			"customer_orientation": "0.6",
			"organization":         "0.7",
			"problem_solving":      "0.8",
			"resilience":           "0.9",
			"goal_orientation":     "1.0",
		}
		v, err := VectorFromRecord(rec)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v[0] != 0.1 || v[9] != 1.0 {
			t.Fatalf("legacy columns mapped out of order: %v", v)
		}
	})

	t.Run("missing column", func(t *testing.T) {
		t.Parallel()
		rec := map[string]string{"FS1": "0.1"}
		if _, err := VectorFromRecord(rec); !errors.Is(err, ErrSchemaMismatch) {
			t.Fatalf("expected schema mismatch, got %v", err)
		}
	})

	t.Run("unparsable value", func(t *testing.T) {
		t.Parallel()
		rec := map[string]string{}
		for _, col := range FSColumns {
			rec[col] = "0.1"
		}
		rec["FS5"] = "not-a-number"
		if _, err := VectorFromRecord(rec); !errors.Is(err, ErrSchemaMismatch) {
			t.Fatalf("expected schema mismatch, got %v", err)
		}
	})
}

func TestLoadCSV(t *testing.T) {
	t.Parallel()

	resolve := func(name string) (int, bool) {
		if name == "Militär" {
			return 0, true
		}
		return 0, false
	}
	store := NewStore(zap.NewNop(), resolve)

	path := writeProfiles(t, fsHeader()+"\n"+
		`u1,.1,.2,.3,.4,.5,.6,.7,.8,.9,1.0,"4;Militär","uri-a,uri-b","1,0",uri-c=0`+"\n"+
		`u2,.5,.5,.5,.5,.5,.5,.5,.5,.5,.5,,,,`+"\n")

	corpus, err := store.LoadCSV(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if corpus.Len() != 2 {
		t.Fatalf("expected 2 profiles, got %d", corpus.Len())
	}

	u1 := corpus.FindByID("u1")
	if u1 == nil {
		t.Fatalf("expected profile u1")
	}
	if len(u1.Preferences) != 2 || u1.Preferences[0] != 4 || u1.Preferences[1] != 0 {
		t.Fatalf("expected preferences [4 0], got %v", u1.Preferences)
	}
	if len(u1.RecommendationLog) != 2 || len(u1.RatingLog) != 2 {
		t.Fatalf("expected aligned logs of length 2, got %d/%d", len(u1.RecommendationLog), len(u1.RatingLog))
	}
	if len(u1.JobHistory) != 1 || u1.JobHistory[0].URI != "uri-c" || u1.JobHistory[0].Liked {
		t.Fatalf("unexpected job history: %+v", u1.JobHistory)
	}
	if u1.Skills[9] != 1.0 {
		t.Fatalf("expected FS10 1.0, got %v", u1.Skills[9])
	}

	u2 := corpus.FindByID("u2")
	if u2 == nil {
		t.Fatalf("expected profile u2")
	}
	if len(u2.Preferences) != 0 || len(u2.RecommendationLog) != 0 {
		t.Fatalf("expected empty optional fields for u2")
	}
}

func TestLoadCSVSchemaMismatch(t *testing.T) {
	t.Parallel()

	store := NewStore(zap.NewNop(), nil)

	tests := []struct {
		name string
		rows string
	}{
		{
			name: "misaligned logs",
			rows: `u1,.1,.2,.3,.4,.5,.6,.7,.8,.9,1.0,,"uri-a,uri-b",1,`,
		},
		{
			name: "rating out of range",
			rows: `u1,.1,.2,.3,.4,.5,.6,.7,.8,.9,1.0,,uri-a,5,`,
		},
		{
			name: "history without reaction",
			rows: `u1,.1,.2,.3,.4,.5,.6,.7,.8,.9,1.0,,,,uri-c`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeProfiles(t, fsHeader()+"\n"+tt.rows+"\n")
			if _, err := store.LoadCSV(path); !errors.Is(err, ErrSchemaMismatch) {
				t.Fatalf("expected schema mismatch, got %v", err)
			}
		})
	}
}

func TestCorpusWithoutDoesNotMutate(t *testing.T) {
	t.Parallel()

	corpus := &Corpus{Users: []*UserProfile{
		{ID: "u1"}, {ID: "u2"}, {ID: "u3"},
	}}

	peers := corpus.Without("u2")
	if peers.Len() != 2 {
		t.Fatalf("expected 2 peers, got %d", peers.Len())
	}
	if peers.FindByID("u2") != nil {
		t.Fatalf("expected u2 removed from peers")
	}
	if corpus.Len() != 3 || corpus.FindByID("u2") == nil {
		t.Fatalf("source corpus was mutated")
	}
}

func TestCorpusEvents(t *testing.T) {
	t.Parallel()

	corpus := &Corpus{Users: []*UserProfile{
		{
			ID:                "u1",
			RecommendationLog: []string{"uri-a", "uri-b"},
			RatingLog:         []int{RatingLiked, RatingDisliked},
		},
		{
			// Misaligned tail contributes only the aligned head.
			ID:                "u2",
			RecommendationLog: []string{"uri-c", "uri-d"},
			RatingLog:         []int{RatingSkipped},
		},
	}}

	events := corpus.Events()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0] != (RatingEvent{UserID: "u1", URI: "uri-a", Rating: RatingLiked}) {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[2] != (RatingEvent{UserID: "u2", URI: "uri-c", Rating: RatingSkipped}) {
		t.Fatalf("unexpected last event: %+v", events[2])
	}
}
