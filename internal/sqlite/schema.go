package sqlite

// Version 1 DDL. Every statement is idempotent so a partially applied
// image can be migrated again.
const (
	createFeatures = `CREATE TABLE IF NOT EXISTS features (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    geometry_type TEXT NOT NULL CHECK (geometry_type IN ('Point', 'LineString', 'Polygon')),
    geometry TEXT NOT NULL,
    template_id TEXT,
    tags TEXT DEFAULT '[]',
    properties TEXT DEFAULT '{}',
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);`

	createObservations = `CREATE TABLE IF NOT EXISTS observations (
    id TEXT PRIMARY KEY,
    feature_id TEXT NOT NULL,
    notes TEXT,
    tags TEXT DEFAULT '[]',
    recorded_at TEXT NOT NULL DEFAULT (datetime('now')),
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    observer_latitude REAL,
    observer_longitude REAL,
    observer_accuracy REAL,
    FOREIGN KEY (feature_id) REFERENCES features(id) ON DELETE CASCADE
);`

	createMeasurements = `CREATE TABLE IF NOT EXISTS measurements (
    id TEXT PRIMARY KEY,
    feature_id TEXT NOT NULL,
    metric TEXT NOT NULL,
    value REAL NOT NULL,
    unit TEXT NOT NULL,
    method TEXT NOT NULL DEFAULT 'estimated' CHECK (method IN ('estimated', 'measured', 'derived')),
    accuracy REAL,
    confidence TEXT CHECK (confidence IS NULL OR confidence IN ('low', 'medium', 'high')),
    notes TEXT,
    recorded_at TEXT NOT NULL DEFAULT (datetime('now')),
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    FOREIGN KEY (feature_id) REFERENCES features(id) ON DELETE CASCADE
);`

	createTasks = `CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    feature_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT,
    status TEXT NOT NULL DEFAULT 'planned' CHECK (status IN ('planned', 'active', 'done', 'abandoned')),
    priority INTEGER,
    due_date TEXT,
    tags TEXT DEFAULT '[]',
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now')),
    completed_at TEXT,
    FOREIGN KEY (feature_id) REFERENCES features(id) ON DELETE CASCADE
);`

	createTemplates = `CREATE TABLE IF NOT EXISTS templates (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    description TEXT,
    icon TEXT,
    is_builtin INTEGER NOT NULL DEFAULT 0,
    schema TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);`

	createMedia = `CREATE TABLE IF NOT EXISTS media (
    id TEXT PRIMARY KEY,
    feature_id TEXT,
    observation_id TEXT,
    type TEXT NOT NULL CHECK (type IN ('photo', 'audio', 'video', 'document')),
    filename TEXT NOT NULL,
    storage_path TEXT NOT NULL,
    mime_type TEXT NOT NULL,
    size_bytes INTEGER,
    width INTEGER,
    height INTEGER,
    duration_seconds REAL,
    caption TEXT,
    recorded_at TEXT NOT NULL DEFAULT (datetime('now')),
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    latitude REAL,
    longitude REAL,
    accuracy REAL,
    FOREIGN KEY (feature_id) REFERENCES features(id) ON DELETE SET NULL,
    FOREIGN KEY (observation_id) REFERENCES observations(id) ON DELETE SET NULL
);`

	createSettings = `CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);`
)

// Index DDL for the version 1 tables.
const (
	createFeaturesGeometryTypeIndex   = `CREATE INDEX IF NOT EXISTS idx_features_geometry_type ON features(geometry_type)`
	createFeaturesCreatedAtIndex      = `CREATE INDEX IF NOT EXISTS idx_features_created_at ON features(created_at)`
	createFeaturesTemplateIndex       = `CREATE INDEX IF NOT EXISTS idx_features_template_id ON features(template_id)`
	createObservationsFeatureIndex    = `CREATE INDEX IF NOT EXISTS idx_observations_feature_id ON observations(feature_id)`
	createObservationsRecordedAtIndex = `CREATE INDEX IF NOT EXISTS idx_observations_recorded_at ON observations(recorded_at)`
	createMeasurementsFeatureIndex    = `CREATE INDEX IF NOT EXISTS idx_measurements_feature_id ON measurements(feature_id)`
	createMeasurementsRecordedAtIndex = `CREATE INDEX IF NOT EXISTS idx_measurements_recorded_at ON measurements(recorded_at)`
	createMeasurementsMetricIndex     = `CREATE INDEX IF NOT EXISTS idx_measurements_metric ON measurements(metric)`
	createTasksFeatureIndex           = `CREATE INDEX IF NOT EXISTS idx_tasks_feature_id ON tasks(feature_id)`
	createTasksStatusIndex            = `CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`
	createTasksDueDateIndex           = `CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks(due_date)`
	createTasksPriorityIndex          = `CREATE INDEX IF NOT EXISTS idx_tasks_priority ON tasks(priority)`
	createMediaFeatureIndex           = `CREATE INDEX IF NOT EXISTS idx_media_feature_id ON media(feature_id)`
	createMediaObservationIndex       = `CREATE INDEX IF NOT EXISTS idx_media_observation_id ON media(observation_id)`
	createMediaTypeIndex              = `CREATE INDEX IF NOT EXISTS idx_media_type ON media(type)`
)

// Default settings written by version 1.
const seedSettings = `INSERT OR IGNORE INTO settings (key, value) VALUES
    ('map_center', '{"lat": 0, "lng": 0}'),
    ('map_zoom', '13'),
    ('basemap', 'osm'),
    ('units_system', 'metric')`

// Bookkeeping table for applied migrations.
const createSchemaVersion = `CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL DEFAULT (datetime('now')),
    description TEXT
)`

// schemaV1 lists the version 1 statements in execution order.
var schemaV1 = []string{
	createFeatures,
	createFeaturesGeometryTypeIndex,
	createFeaturesCreatedAtIndex,
	createFeaturesTemplateIndex,
	createObservations,
	createObservationsFeatureIndex,
	createObservationsRecordedAtIndex,
	createMeasurements,
	createMeasurementsFeatureIndex,
	createMeasurementsRecordedAtIndex,
	createMeasurementsMetricIndex,
	createTasks,
	createTasksFeatureIndex,
	createTasksStatusIndex,
	createTasksDueDateIndex,
	createTasksPriorityIndex,
	createTemplates,
	createMedia,
	createMediaFeatureIndex,
	createMediaObservationIndex,
	createMediaTypeIndex,
	createSettings,
	seedSettings,
}
