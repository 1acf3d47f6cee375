package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldRunID     = "run_id"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
	FieldPeriod    = "period"
	FieldEntries   = "entries"
	FieldPeriods   = "periods"
	FieldDetector  = "detector"
	FieldFlagged   = "flagged"
	FieldGoalID    = "goal_id"
	FieldStatus    = "status"
	FieldPath      = "path"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentAnomaly  = "anomaly"
	ComponentForecast = "forecast"
	ComponentGoal     = "goal"
	ComponentLedger   = "ledger"
	ComponentImport   = "import"
	ComponentStore    = "store"
	ComponentAlerts   = "alerts"
	ComponentInsight  = "insight"
)

// Operations defines standard operation names
const (
	OpRefresh  = "refresh"
	OpForecast = "forecast"
	OpDetect   = "detect_anomalies"
	OpProject  = "project_goal"
	OpImport   = "import"
	OpReport   = "report"
	OpPublish  = "publish"
)
