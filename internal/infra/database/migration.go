package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mamacare/triagedesk/pkg/errorx"
	"github.com/mamacare/triagedesk/pkg/logger"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// MigrationManager handles database migrations
type MigrationManager struct {
	pool        *pgxpool.Pool
	logger      logger.Logger
	migrations  []Migration
	initialized bool
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(pool *pgxpool.Pool, logger logger.Logger) *MigrationManager {
	return &MigrationManager{
		pool:       pool,
		logger:     logger,
		migrations: []Migration{},
	}
}

// AddMigration adds a migration to the manager
func (mm *MigrationManager) AddMigration(version int, description, sql string) {
	mm.migrations = append(mm.migrations, Migration{
		Version:     version,
		Description: description,
		SQL:         sql,
	})
}

// Initialize sets up the migrations table if it doesn't exist
func (mm *MigrationManager) Initialize(ctx context.Context) error {
	if mm.initialized {
		return nil
	}

	// Create migrations table if it doesn't exist
	_, err := mm.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return errorx.Wrap(err, errorx.InternalServerError, "failed to create migrations table")
	}

	mm.initialized = true
	return nil
}

// GetAppliedMigrations gets all applied migrations
func (mm *MigrationManager) GetAppliedMigrations(ctx context.Context) (map[int]time.Time, error) {
	if err := mm.Initialize(ctx); err != nil {
		return nil, err
	}

	rows, err := mm.pool.Query(ctx, "SELECT version, applied_at FROM schema_migrations")
	if err != nil {
		return nil, errorx.Wrap(err, errorx.InternalServerError, "failed to query migrations")
	}
	defer rows.Close()

	appliedMigrations := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var appliedAt time.Time
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, errorx.Wrap(err, errorx.InternalServerError, "failed to scan migration row")
		}
		appliedMigrations[version] = appliedAt
	}

	return appliedMigrations, nil
}

// Migrate applies all pending migrations
func (mm *MigrationManager) Migrate(ctx context.Context) error {
	appliedMigrations, err := mm.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	// Sort migrations by version
	sort.Slice(mm.migrations, func(i, j int) bool {
		return mm.migrations[i].Version < mm.migrations[j].Version
	})

	// Apply pending migrations
	for _, migration := range mm.migrations {
		if _, ok := appliedMigrations[migration.Version]; !ok {
			mm.logger.Info("Applying migration",
				logger.Field{Key: "version", Value: migration.Version},
				logger.Field{Key: "description", Value: migration.Description})

			// Start transaction for this migration
			tx, err := mm.pool.Begin(ctx)
			if err != nil {
				return errorx.Wrap(err, errorx.InternalServerError, "failed to begin transaction for migration")
			}

			// Execute migration SQL
			_, err = tx.Exec(ctx, migration.SQL)
			if err != nil {
				tx.Rollback(ctx)
				return errorx.Wrap(err, errorx.InternalServerError, fmt.Sprintf("failed to apply migration %d", migration.Version))
			}

			// Record successful migration
			_, err = tx.Exec(ctx, `
				INSERT INTO schema_migrations (version, description, applied_at) 
				VALUES ($1, $2, NOW())
			`, migration.Version, migration.Description)
			if err != nil {
				tx.Rollback(ctx)
				return errorx.Wrap(err, errorx.InternalServerError, "failed to record migration")
			}

			// Commit transaction
			if err := tx.Commit(ctx); err != nil {
				return errorx.Wrap(err, errorx.InternalServerError, "failed to commit migration transaction")
			}

			mm.logger.Info("Migration applied successfully",
				logger.Field{Key: "version", Value: migration.Version})
		}
	}

	return nil
}

// GetDatabaseVersion gets the current database schema version
func (mm *MigrationManager) GetDatabaseVersion(ctx context.Context) (int, error) {
	if err := mm.Initialize(ctx); err != nil {
		return 0, err
	}

	var version int
	err := mm.pool.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, errorx.Wrap(err, errorx.InternalServerError, "failed to get database version")
	}

	return version, nil
}

// CreateInitialMigration creates the initial schema: cases, their
// append-only assessments and advice, escalation tokens, and the
// audit trail, per the case lifecycle in §3 of the design.
func CreateInitialMigration() Migration {
	return Migration{
		Version:     1,
		Description: "Initial schema",
		SQL: `
-- Cases: the unit of work from intake through close. Patient and
-- vitals snapshots, symptoms and medications are stored as JSONB
-- because they are immutable per-assessment documents, not rows that
-- need their own relational queries.
CREATE TABLE IF NOT EXISTS cases (
    id UUID PRIMARY KEY,
    patient JSONB NOT NULL,
    phw_id TEXT NOT NULL,
    phw_name TEXT NOT NULL,
    facility TEXT NOT NULL,
    status TEXT NOT NULL,
    chief_complaint TEXT NOT NULL,
    escalation_reason TEXT NOT NULL DEFAULT '',
    assigned_specialist TEXT,
    vitals JSONB NOT NULL,
    symptoms JSONB NOT NULL DEFAULT '[]',
    medications JSONB NOT NULL DEFAULT '[]',
    opened_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    closed_at TIMESTAMP WITH TIME ZONE,
    deleted_at TIMESTAMP WITH TIME ZONE
);

CREATE INDEX idx_cases_facility ON cases(facility) WHERE deleted_at IS NULL;
CREATE INDEX idx_cases_phw_id ON cases(phw_id) WHERE deleted_at IS NULL;
CREATE INDEX idx_cases_status ON cases(status) WHERE deleted_at IS NULL;

-- Risk assessments: one immutable row per analyze call.
CREATE TABLE IF NOT EXISTS risk_assessments (
    id UUID PRIMARY KEY,
    case_id UUID NOT NULL REFERENCES cases(id),
    rule_result JSONB NOT NULL,
    model_result JSONB,
    med_warnings JSONB NOT NULL DEFAULT '[]',
    final_risk_level TEXT NOT NULL,
    final_risk_score DOUBLE PRECISION NOT NULL,
    recommendation TEXT NOT NULL,
    escalation_suggested BOOLEAN NOT NULL DEFAULT FALSE,
    model_version TEXT NOT NULL DEFAULT '',
    assessed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_risk_assessments_case_id ON risk_assessments(case_id);
CREATE INDEX idx_risk_assessments_assessed_at ON risk_assessments(case_id, assessed_at DESC);

-- Specialist advice: append-only, the newest row per case is authoritative.
CREATE TABLE IF NOT EXISTS advice (
    id UUID PRIMARY KEY,
    case_id UUID NOT NULL REFERENCES cases(id),
    risk_assessment_id UUID REFERENCES risk_assessments(id),
    token_id UUID,
    specialist_id TEXT NOT NULL DEFAULT '',
    advice_type TEXT NOT NULL DEFAULT 'custom',
    text TEXT NOT NULL DEFAULT '',
    medications_advised JSONB NOT NULL DEFAULT '[]',
    investigations JSONB NOT NULL DEFAULT '[]',
    follow_up_hours INTEGER,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_advice_case_id ON advice(case_id);

-- Escalation tokens: opaque bearer values bound to one case. Only the
-- SHA-256 hash of the plaintext is ever stored.
CREATE TABLE IF NOT EXISTS escalation_tokens (
    id UUID PRIMARY KEY,
    case_id UUID NOT NULL REFERENCES cases(id),
    token_hash BYTEA NOT NULL UNIQUE,
    issued_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
    consumed_at TIMESTAMP WITH TIME ZONE,
    revoked_at TIMESTAMP WITH TIME ZONE
);

CREATE INDEX idx_escalation_tokens_case_id ON escalation_tokens(case_id);

-- Audit trail: one row per state transition, assessment and advice
-- submission, written synchronously in the same transaction.
CREATE TABLE IF NOT EXISTS audit_records (
    id UUID PRIMARY KEY,
    case_id UUID NOT NULL REFERENCES cases(id),
    actor TEXT NOT NULL,
    action TEXT NOT NULL,
    detail TEXT NOT NULL DEFAULT '',
    trace_id TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_audit_records_case_id ON audit_records(case_id, created_at ASC);
		`,
	}
}
