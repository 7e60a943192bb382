package ledger

// PublisherInfo describes a content publisher tracked for contributions.
type PublisherInfo struct {
	ID         string       `json:"id" yaml:"id"`
	Verified   bool         `json:"verified" yaml:"verified"`
	Excluded   ExcludeState `json:"excluded" yaml:"excluded"`
	Name       string       `json:"name" yaml:"name"`
	FaviconURL string       `json:"favicon_url" yaml:"favicon_url"`
	URL        string       `json:"url" yaml:"url"`
	Provider   string       `json:"provider" yaml:"provider"`
}

// Shell returns a publisher record carrying only the given ID.
// Used to satisfy the publisher reference of dependent records.
func Shell(id string) PublisherInfo {
	return PublisherInfo{ID: id}
}

// ActivityKey identifies one activity row: a publisher in one reporting
// period of one reconciliation cycle.
type ActivityKey struct {
	PublisherID    string `json:"publisher_id" yaml:"publisher_id"`
	Month          Month  `json:"month" yaml:"month"`
	Year           int    `json:"year" yaml:"year"`
	ReconcileStamp uint64 `json:"reconcile_stamp" yaml:"reconcile_stamp"`
}

// ActivityInfo holds engagement metrics for a publisher in one period.
type ActivityInfo struct {
	PublisherID    string  `json:"publisher_id" yaml:"publisher_id"`
	Duration       uint64  `json:"duration" yaml:"duration"`
	Visits         uint32  `json:"visits" yaml:"visits"`
	Score          float64 `json:"score" yaml:"score"`
	Percent        uint32  `json:"percent" yaml:"percent"`
	Weight         float64 `json:"weight" yaml:"weight"`
	Month          Month   `json:"month" yaml:"month"`
	Year           int     `json:"year" yaml:"year"`
	ReconcileStamp uint64  `json:"reconcile_stamp" yaml:"reconcile_stamp"`
}

// Key returns the composite identity of the activity row.
func (a ActivityInfo) Key() ActivityKey {
	return ActivityKey{
		PublisherID:    a.PublisherID,
		Month:          a.Month,
		Year:           a.Year,
		ReconcileStamp: a.ReconcileStamp,
	}
}

// PublisherActivity is an activity row joined with its publisher.
//
// On write, Publisher seeds the publisher row only when none exists yet;
// its ID is always taken from the activity.
type PublisherActivity struct {
	ActivityInfo `yaml:",inline"`
	Publisher    PublisherInfo `json:"publisher" yaml:"publisher"`
}

// ContributionInfo records one contribution made to a publisher.
type ContributionInfo struct {
	PublisherID string   `json:"publisher_id" yaml:"publisher_id"`
	Probi       string   `json:"probi" yaml:"probi"`
	Date        int64    `json:"date" yaml:"date"`
	Category    Category `json:"category" yaml:"category"`
	Month       Month    `json:"month" yaml:"month"`
	Year        int      `json:"year" yaml:"year"`
}

// Tip is a one-time contribution joined with its publisher.
type Tip struct {
	Publisher PublisherInfo `json:"publisher"`
	Probi     string        `json:"probi"`
	Date      int64         `json:"date"`
	Category  Category      `json:"category"`
}

// MediaPublisherInfo maps a platform-specific media key to a publisher.
type MediaPublisherInfo struct {
	MediaKey    string `json:"media_key" yaml:"media_key"`
	PublisherID string `json:"publisher_id" yaml:"publisher_id"`
}

// RecurringDonation is the active monthly donation to a publisher.
type RecurringDonation struct {
	PublisherID string  `json:"publisher_id" yaml:"publisher_id"`
	Amount      float64 `json:"amount" yaml:"amount"`
	AddedDate   int64   `json:"added_date" yaml:"added_date"`
}

// RecurringTip is a recurring donation joined with its publisher.
type RecurringTip struct {
	Publisher PublisherInfo `json:"publisher"`
	Amount    float64       `json:"amount"`
	AddedDate int64         `json:"added_date"`
}
