package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// WorkOrder describes a work order in a transport-friendly format.
type WorkOrder struct {
	ID          int64             `json:"id" yaml:"id"`
	OT          string            `json:"ot" yaml:"ot"`
	Client      string            `json:"client" yaml:"client"`
	Description string            `json:"description" yaml:"description"`
	Tag         string            `json:"tag" yaml:"tag"`
	Status      string            `json:"status" yaml:"status"`
	Progress    int               `json:"progress" yaml:"progress"`
	Location    string            `json:"location" yaml:"location"`
	Dates       map[string]string `json:"dates" yaml:"dates"`
	Delayed     bool              `json:"delayed" yaml:"delayed"`
	CreatedAt   string            `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt   string            `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// Board groups work orders by location for table views.
type Board struct {
	INCO     []WorkOrder `json:"inco"`
	ANTI     []WorkOrder `json:"anti"`
	Archived []WorkOrder `json:"archived"`
	Unknown  []WorkOrder `json:"unknown,omitempty"`
	LoadedAt string      `json:"loadedAt,omitempty"`
}

// StageUpdate reports the outcome of recording a stage date.
type StageUpdate struct {
	WorkOrder    WorkOrder `json:"workOrder"`
	Stage        string    `json:"stage"`
	Cleared      bool      `json:"cleared"`
	StageKnown   bool      `json:"stageKnown"`
	PrevLocation string    `json:"prevLocation"`
	Location     string    `json:"location"`
	Advanced     bool      `json:"advanced"`
}

// ClientCount is the in-progress order count for one client.
type ClientCount struct {
	Client string `json:"client"`
	Count  int    `json:"count"`
}

// CycleTimes carries average durations in days. Nil means no data.
type CycleTimes struct {
	INCODays    *float64 `json:"incoDays"`
	ANTIDays    *float64 `json:"antiDays"`
	OverallDays *float64 `json:"overallDays"`
}

// HistoryEntry is one entry of the recent activity feed.
type HistoryEntry struct {
	OT        string `json:"ot"`
	Field     string `json:"field"`
	OldValue  string `json:"oldValue,omitempty"`
	NewValue  string `json:"newValue,omitempty"`
	Actor     string `json:"actor"`
	ChangedAt string `json:"changedAt"`
}

// Dashboard is the aggregate overview of the work-order set.
type Dashboard struct {
	Total        int            `json:"total"`
	InProgress   int            `json:"inProgress"`
	Completed    int            `json:"completed"`
	ByLocation   map[string]int `json:"byLocation"`
	DelayedCount int            `json:"delayedCount"`
	Delayed      []WorkOrder    `json:"delayed"`
	Clients      []ClientCount  `json:"clients"`
	CycleTimes   CycleTimes     `json:"cycleTimes"`
	History      []HistoryEntry `json:"history"`
	GeneratedAt  string         `json:"generatedAt"`
}

// Stage is one catalog entry.
type Stage struct {
	Name     string `json:"name"`
	Progress int    `json:"progress"`
	HandOff  bool   `json:"handOff"`
}

// Pipeline is an ordered stage list.
type Pipeline struct {
	Name   string  `json:"name"`
	Stages []Stage `json:"stages"`
}

// CreateRequest carries the fields accepted when creating a work order.
type CreateRequest struct {
	OT          string `json:"ot"`
	Client      string `json:"client"`
	Tag         string `json:"tag"`
	Description string `json:"description"`
}

// DetailsRequest carries descriptive field edits.
type DetailsRequest struct {
	Client      string `json:"client"`
	Tag         string `json:"tag"`
	Description string `json:"description"`
}

// StageDateRequest sets or clears a stage date. An empty Date clears it.
type StageDateRequest struct {
	Date string `json:"date"`
}
