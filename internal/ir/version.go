package ir

// Version constants for the record schema and engine.
const (
	// SchemaVersion is the persisted account layout version. SQL backends
	// record it in their schema metadata and refuse newer databases.
	SchemaVersion = 1

	// EngineVersion is the userstats engine version.
	EngineVersion = "0.1.0"
)
