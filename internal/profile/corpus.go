package profile

// Corpus is the read-only collection of peer profiles used for the
// collaborative-filtering signal. It never contains the user a request is
// being served for.
type Corpus struct {
	Users []*UserProfile
}

// RatingEvent is one (user, occupation, rating) observation expanded from a
// peer's aligned recommendation and rating logs.
type RatingEvent struct {
	UserID string
	URI    string
	Rating int
}

func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Users)
}

// FindByID returns the profile with the given id, or nil.
func (c *Corpus) FindByID(id string) *UserProfile {
	if c == nil {
		return nil
	}
	for _, u := range c.Users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// Without returns a new corpus with the given user removed. The receiver is
// left untouched so concurrent readers stay safe.
func (c *Corpus) Without(id string) *Corpus {
	out := &Corpus{Users: make([]*UserProfile, 0, c.Len())}
	for _, u := range c.Users {
		if u.ID != id {
			out.Users = append(out.Users, u)
		}
	}
	return out
}

// Events expands every peer's logs into single rating observations, in corpus
// order. Profiles whose logs are misaligned contribute only the aligned head.
func (c *Corpus) Events() []RatingEvent {
	if c == nil {
		return nil
	}
	var events []RatingEvent
	for _, u := range c.Users {
		n := len(u.RecommendationLog)
		if len(u.RatingLog) < n {
			n = len(u.RatingLog)
		}
		for i := 0; i < n; i++ {
			events = append(events, RatingEvent{
				UserID: u.ID,
				URI:    u.RecommendationLog[i],
				Rating: u.RatingLog[i],
			})
		}
	}
	return events
}
