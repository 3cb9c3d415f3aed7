package domain

// EmotionCatalog is the static read-only emotion table, loaded once at
// process start. Lookups never mutate it, so it is safe for concurrent use
// without synchronization.
type EmotionCatalog struct {
	byID    map[int]Emotion
	ordered []Emotion
}

// NewEmotionCatalog builds a catalog from the seeded emotion rows,
// preserving their order for the configuration listing.
func NewEmotionCatalog(emotions []Emotion) *EmotionCatalog {
	byID := make(map[int]Emotion, len(emotions))

	for _, emotion := range emotions {
		byID[emotion.EmotionID] = emotion
	}

	return &EmotionCatalog{
		byID:    byID,
		ordered: append([]Emotion(nil), emotions...),
	}
}

// Get looks up an emotion by id.
func (c *EmotionCatalog) Get(emotionID int) (Emotion, bool) {
	emotion, ok := c.byID[emotionID]

	return emotion, ok
}

// All returns the catalog entries in seed order.
func (c *EmotionCatalog) All() []Emotion {
	return append([]Emotion(nil), c.ordered...)
}

// AlertTypeCatalog is the static read-only stock alert type table,
// loaded once at process start.
type AlertTypeCatalog struct {
	byID    map[int]AlertType
	ordered []AlertType
}

// NewAlertTypeCatalog builds a catalog from the seeded alert type rows.
func NewAlertTypeCatalog(types []AlertType) *AlertTypeCatalog {
	byID := make(map[int]AlertType, len(types))

	for _, alertType := range types {
		byID[alertType.TypeID] = alertType
	}

	return &AlertTypeCatalog{
		byID:    byID,
		ordered: append([]AlertType(nil), types...),
	}
}

// Get looks up an alert type by id.
func (c *AlertTypeCatalog) Get(typeID int) (AlertType, bool) {
	alertType, ok := c.byID[typeID]

	return alertType, ok
}

// All returns the catalog entries in seed order.
func (c *AlertTypeCatalog) All() []AlertType {
	return append([]AlertType(nil), c.ordered...)
}
