// Package metrics provides constants used across metric definitions.
package metrics

// Operation type constants.
const (
	// OpSchedule represents reminder scheduling.
	OpSchedule = "schedule"
	// OpCancel represents reminder cancellation.
	OpCancel = "cancel"
	// OpFire represents a reminder firing.
	OpFire = "fire"
	// OpRestore represents restoring persisted reminders.
	OpRestore = "restore"
	// OpIdentify represents a remote identification request.
	OpIdentify = "identify"
	// OpClassify represents on-device classification.
	OpClassify = "classify"
	// OpSearch represents a care directory search.
	OpSearch = "search"
	// OpDetails represents a care directory details request.
	OpDetails = "details"
	// OpCreate represents plant creation.
	OpCreate = "create"
	// OpWater represents watering a plant.
	OpWater = "water"
	// OpEdit represents editing a plant.
	OpEdit = "edit"
	// OpDelete represents deleting a plant.
	OpDelete = "delete"
	// OpReorder represents reordering plants.
	OpReorder = "reorder"
)

// Status constants.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusHit     = "hit"
	StatusMiss    = "miss"
)

// Histogram bucket constants.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms (1ms to ~1s range).
	BucketStart1ms = 0.001
	// BucketStart10ms is the starting bucket for 10ms histograms (10ms to ~10s range).
	BucketStart10ms = 0.01
	// BucketStart100ms is the starting bucket for 100ms histograms (100ms to ~100s range).
	BucketStart100ms = 0.1

	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2

	// BucketCount10 defines 10 exponential buckets.
	BucketCount10 = 10
)
