package headline

import "time"

// TimestampLayout is the text layout of scraped_at values, e.g.
// "2024-01-02 09:00:00". Values are local time.
const TimestampLayout = "2006-01-02 15:04:05"

// Headline is a single extracted article title. ID is assigned by storage on
// insert and is zero for records that have not been saved yet.
type Headline struct {
	ID        int64  `json:"id"`
	Headline  string `json:"headline"`
	Source    string `json:"source"`
	ScrapedAt string `json:"scraped_at"`
}

// Timestamp formats t as a batch timestamp.
func Timestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

// NewBatch tags every title with the same source and batch timestamp.
func NewBatch(titles []string, source, scrapedAt string) []Headline {
	batch := make([]Headline, 0, len(titles))
	for _, title := range titles {
		batch = append(batch, Headline{
			Headline:  title,
			Source:    source,
			ScrapedAt: scrapedAt,
		})
	}
	return batch
}
