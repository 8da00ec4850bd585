package booking

import (
	"errors"
)

var ErrNilDatabaseConnection = errors.New("nil database connection supplied")
var ErrEmptySlotsTableNameSupplied = errors.New("empty slotsTableName supplied")
var ErrEmptyHoldersTableNameSupplied = errors.New("empty holdersTableName supplied")
var ErrNilCacheSupplied = errors.New("nil cache supplied")
var ErrBuildingQueryFailed = errors.New("building the sql query failed")
var ErrQueryingSlotsFailed = errors.New("querying available slots failed")
var ErrScanningDBRowFailed = errors.New("scanning the database row failed")
var ErrReservationFailed = errors.New("reserving a slot failed")

// ErrNoSlotAvailable signals that no candidate slot could be claimed.
// It is an expected outcome of a reservation attempt, not a dependency fault,
// and should be checked with errors.Is by callers.
var ErrNoSlotAvailable = errors.New("no slot available for reservation")

// LanguageString is a type alias for string, representing a supported language.
type LanguageString = string

// RatingString is a type alias for string, representing a customer rating tier.
type RatingString = string

// ProductString is a type alias for string, representing a product name.
type ProductString = string
