package booking

import (
	"slices"
	"strings"
	"time"
)

const cacheKeyPrefix = "slots"
const cacheKeyDayLayout = "2006-01-02"

/***** AvailabilityFilter *****/

// AvailabilityFilter describes the criteria for an availability query:
// one calendar day, one language, one rating and a small product set.
type AvailabilityFilter struct {
	day      time.Time
	language LanguageString
	rating   RatingString
	products []ProductString
}

func (f AvailabilityFilter) Day() time.Time {
	return f.day
}

func (f AvailabilityFilter) Language() LanguageString {
	return f.language
}

func (f AvailabilityFilter) Rating() RatingString {
	return f.rating
}

func (f AvailabilityFilter) Products() []ProductString {
	return f.products
}

// Window returns the half-open [startOfDay, startOfNextDay) range for the
// filter's calendar day, in UTC.
func (f AvailabilityFilter) Window() (from time.Time, until time.Time) {
	return f.day, f.day.AddDate(0, 0, 1)
}

// CacheKey returns the normalized cache key for this filter:
// "slots:YYYY-MM-DD:language:rating:sortedProducts".
// Two filters describing the same criteria always produce the same key
// because the builder sorts and dedupes the product set.
func (f AvailabilityFilter) CacheKey() string {
	return strings.Join(
		[]string{
			cacheKeyPrefix,
			f.day.Format(cacheKeyDayLayout),
			f.language,
			f.rating,
			strings.Join(f.products, ","),
		},
		":",
	)
}

/***** AvailabilityFilterBuilder *****/

// AvailabilityFilterBuilder builds an AvailabilityFilter, normalizing the
// input so that equivalent criteria always compare (and cache) equal.
type AvailabilityFilterBuilder struct {
	filter AvailabilityFilter
}

func BuildAvailabilityFilter() *AvailabilityFilterBuilder {
	return &AvailabilityFilterBuilder{}
}

// OnDay sets the calendar day of the filter.
// The supplied time is truncated to UTC midnight of that day.
func (b *AvailabilityFilterBuilder) OnDay(day time.Time) *AvailabilityFilterBuilder {
	dayUTC := day.UTC()
	b.filter.day = time.Date(dayUTC.Year(), dayUTC.Month(), dayUTC.Day(), 0, 0, 0, 0, time.UTC)

	return b
}

func (b *AvailabilityFilterBuilder) WithLanguage(language LanguageString) *AvailabilityFilterBuilder {
	b.filter.language = language

	return b
}

func (b *AvailabilityFilterBuilder) WithRating(rating RatingString) *AvailabilityFilterBuilder {
	b.filter.rating = rating

	return b
}

// WithProducts adds the required product set to the filter.
//
// It sanitizes the input:
//   - removing empty products ("")
//   - sorting the products
//   - removing duplicate products
func (b *AvailabilityFilterBuilder) WithProducts(product ProductString, products ...ProductString) *AvailabilityFilterBuilder {
	allProducts := append([]ProductString{product}, products...)

	sanitized := make([]ProductString, 0, len(allProducts))
	for _, p := range allProducts {
		if p != "" {
			sanitized = append(sanitized, p)
		}
	}

	slices.Sort(sanitized)
	sanitized = slices.Compact(sanitized)

	b.filter.products = sanitized

	return b
}

func (b *AvailabilityFilterBuilder) Finalize() AvailabilityFilter {
	return b.filter
}
