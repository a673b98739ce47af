package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/seoauditor/seoauditor/pkg/audit"
	"github.com/seoauditor/seoauditor/pkg/metrics"
)

// Store is the Postgres-backed persistence layer.
type Store struct {
	db *sql.DB
}

// New creates a Store over an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// notFound reports whether err means the row does not exist. A malformed
// UUID is treated the same as a missing row.
func notFound(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "22P02" // invalid_text_representation
}

// validID reports whether id can be a row key, so malformed path
// parameters never reach the database.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ─── Snapshots ──────────────────────────────────────────────────────────────

const snapshotColumns = `site_id, snapshot_date, sessions, mobile_percent, bounce_rate,
	clicks, impressions, ctr, avg_position, indexed_pages, lcp, cls, fid, top_queries`

func scanSnapshot(row interface{ Scan(...any) error }) (*metrics.Snapshot, error) {
	m := &metrics.Snapshot{}
	var topQueries []byte
	if err := row.Scan(
		&m.SiteID, &m.SnapshotDate, &m.Sessions, &m.MobilePct, &m.BounceRate,
		&m.Clicks, &m.Impressions, &m.CTR, &m.AvgPosition, &m.IndexedPages,
		&m.LCP, &m.CLS, &m.FID, &topQueries,
	); err != nil {
		return nil, err
	}
	if len(topQueries) > 0 {
		if err := json.Unmarshal(topQueries, &m.TopQueries); err != nil {
			return nil, fmt.Errorf("decode top queries: %w", err)
		}
	}
	if m.TopQueries == nil {
		m.TopQueries = []metrics.TopQuery{}
	}
	return m, nil
}

// GetLatestSnapshot returns the newest snapshot of a site, or nil if the
// site has none.
func (s *Store) GetLatestSnapshot(ctx context.Context, siteID string) (*metrics.Snapshot, error) {
	return s.GetSnapshotOffset(ctx, siteID, 0)
}

// GetSnapshotOffset returns the snapshot offset positions behind the newest
// one, or nil if there are not that many.
func (s *Store) GetSnapshotOffset(ctx context.Context, siteID string, offset int) (*metrics.Snapshot, error) {
	m, err := scanSnapshot(s.db.QueryRowContext(ctx,
		`SELECT `+snapshotColumns+`
		 FROM metrics_snapshots WHERE site_id = $1
		 ORDER BY snapshot_date DESC OFFSET $2 LIMIT 1`,
		siteID, offset,
	))
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot for site %s at offset %d: %w", siteID, offset, err)
	}
	return m, nil
}

// SaveSnapshot inserts a snapshot and returns its ID.
func (s *Store) SaveSnapshot(ctx context.Context, m *metrics.Snapshot) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	topQueries, err := json.Marshal(m.TopQueries)
	if err != nil {
		return "", fmt.Errorf("encode top queries: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO metrics_snapshots (id, `+snapshotColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		id, m.SiteID, m.SnapshotDate, m.Sessions, m.MobilePct, m.BounceRate,
		m.Clicks, m.Impressions, m.CTR, m.AvgPosition, m.IndexedPages,
		m.LCP, m.CLS, m.FID, topQueries,
	)
	if err != nil {
		return "", fmt.Errorf("save snapshot for site %s: %w", m.SiteID, err)
	}
	return id, nil
}

// ─── Audits ─────────────────────────────────────────────────────────────────

// CreateAudit inserts a pending audit and returns its ID.
func (s *Store) CreateAudit(ctx context.Context, siteID string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audits (id, site_id, status) VALUES ($1, $2, 'pending')`,
		id, siteID,
	)
	if err != nil {
		return "", fmt.Errorf("create audit: %w", err)
	}
	return id, nil
}

// UpdateAuditStatus sets the status of an audit.
func (s *Store) UpdateAuditStatus(ctx context.Context, auditID, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE audits SET status = $1 WHERE id = $2`,
		status, auditID,
	)
	if err != nil {
		return fmt.Errorf("update audit status: %w", err)
	}
	return nil
}

// SaveAuditResult writes the terminal state of an audit.
func (s *Store) SaveAuditResult(ctx context.Context, a *Audit) error {
	var scores []byte
	if a.Scores != nil {
		var err error
		if scores, err = json.Marshal(a.Scores); err != nil {
			return fmt.Errorf("encode scores: %w", err)
		}
	}
	issues, err := json.Marshal(nonNil(a.Issues))
	if err != nil {
		return fmt.Errorf("encode issues: %w", err)
	}
	recs, err := json.Marshal(nonNil(a.Recommendations))
	if err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}
	checklist, err := json.Marshal(nonNil(a.Checklist))
	if err != nil {
		return fmt.Errorf("encode checklist: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE audits
		 SET status = $1, overall_score = $2, scores = $3, issues = $4,
		     recommendations = $5, checklist = $6, completed_at = $7
		 WHERE id = $8`,
		a.Status, a.OverallScore, scores, issues, recs, checklist, a.CompletedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("save audit result %s: %w", a.ID, err)
	}
	return nil
}

const auditColumns = `id, site_id, status, overall_score, scores, issues,
	recommendations, checklist, created_at, completed_at`

func scanAudit(row interface{ Scan(...any) error }) (*Audit, error) {
	a := &Audit{}
	var scores, issues, recs, checklist []byte
	if err := row.Scan(
		&a.ID, &a.SiteID, &a.Status, &a.OverallScore, &scores, &issues,
		&recs, &checklist, &a.CreatedAt, &a.CompletedAt,
	); err != nil {
		return nil, err
	}
	if len(scores) > 0 {
		a.Scores = &audit.Scores{}
		if err := json.Unmarshal(scores, a.Scores); err != nil {
			return nil, fmt.Errorf("decode scores: %w", err)
		}
	}
	for _, f := range []struct {
		raw []byte
		dst any
	}{{issues, &a.Issues}, {recs, &a.Recommendations}, {checklist, &a.Checklist}} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("decode audit %s: %w", a.ID, err)
		}
	}
	return a, nil
}

// GetAudit returns one audit of a site, or nil if it does not exist.
func (s *Store) GetAudit(ctx context.Context, siteID, auditID string) (*Audit, error) {
	if !validID(siteID) || !validID(auditID) {
		return nil, nil
	}
	a, err := scanAudit(s.db.QueryRowContext(ctx,
		`SELECT `+auditColumns+` FROM audits WHERE id = $1 AND site_id = $2`,
		auditID, siteID,
	))
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get audit %s: %w", auditID, err)
	}
	return a, nil
}

// ListAudits returns the newest audits of a site.
func (s *Store) ListAudits(ctx context.Context, siteID string, limit int) ([]Audit, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+auditColumns+` FROM audits WHERE site_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		siteID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list audits: %w", err)
	}
	defer rows.Close()

	audits := []Audit{}
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		audits = append(audits, *a)
	}
	return audits, rows.Err()
}

// CountAuditsSince counts the audits of a site created at or after since.
func (s *Store) CountAuditsSince(ctx context.Context, siteID string, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM audits WHERE site_id = $1 AND created_at >= $2`,
		siteID, since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count audits: %w", err)
	}
	return n, nil
}

// ─── Alerts ─────────────────────────────────────────────────────────────────

// SaveAlerts inserts alerts in one transaction.
func (s *Store) SaveAlerts(ctx context.Context, alerts []Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin alerts tx: %w", err)
	}
	defer tx.Rollback()

	for _, a := range alerts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO alerts (site_id, alert_type, metric, previous_value, current_value,
			                     change_percent, message, email_sent)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			a.SiteID, a.AlertType, a.Metric, a.PreviousValue, a.CurrentValue,
			a.ChangePercent, a.Message, a.EmailSent,
		); err != nil {
			return fmt.Errorf("insert alert %s: %w", a.Metric, err)
		}
	}
	return tx.Commit()
}

// ─── Sites ──────────────────────────────────────────────────────────────────

const siteQuery = `
	SELECT s.id, s.user_id, s.url, s.name, s.google_connection_id, s.ga4_property_id,
	       s.gsc_site_url, s.last_sync_at, s.created_at,
	       u.email, sub.plan, sub.status
	FROM sites s
	JOIN users u ON u.id = s.user_id
	LEFT JOIN LATERAL (
	    SELECT plan, status FROM subscriptions
	    WHERE user_id = s.user_id AND status IN ('active', 'trialing')
	    ORDER BY created_at DESC LIMIT 1
	) sub ON true`

func scanSite(row interface{ Scan(...any) error }) (*Site, error) {
	st := &Site{}
	var plan, subStatus sql.NullString
	if err := row.Scan(
		&st.ID, &st.UserID, &st.URL, &st.Name, &st.GoogleConnectionID, &st.GA4PropertyID,
		&st.GSCSiteURL, &st.LastSyncAt, &st.CreatedAt,
		&st.OwnerEmail, &plan, &subStatus,
	); err != nil {
		return nil, err
	}
	st.Plan = audit.PlanFree
	if plan.Valid {
		st.Plan = audit.Plan(plan.String)
	}
	st.AlertsEnabled = subStatus.Valid && subStatus.String == "active"
	return st, nil
}

// ListSites returns every site with its owner's plan.
func (s *Store) ListSites(ctx context.Context) ([]Site, error) {
	rows, err := s.db.QueryContext(ctx, siteQuery+` ORDER BY s.created_at`)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	var sites []Site
	for rows.Next() {
		st, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		sites = append(sites, *st)
	}
	return sites, rows.Err()
}

// GetSite returns a site by ID, or nil if it does not exist.
func (s *Store) GetSite(ctx context.Context, siteID string) (*Site, error) {
	if !validID(siteID) {
		return nil, nil
	}
	st, err := scanSite(s.db.QueryRowContext(ctx, siteQuery+` WHERE s.id = $1`, siteID))
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get site %s: %w", siteID, err)
	}
	return st, nil
}

// TouchSiteSync records a successful metrics sync.
func (s *Store) TouchSiteSync(ctx context.Context, siteID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sites SET last_sync_at = $1, updated_at = now() WHERE id = $2`,
		at, siteID,
	)
	if err != nil {
		return fmt.Errorf("touch site sync: %w", err)
	}
	return nil
}

// ─── Google connections ─────────────────────────────────────────────────────

// GetGoogleConnection returns the stored OAuth tokens of a connection.
func (s *Store) GetGoogleConnection(ctx context.Context, id string) (*GoogleConnection, error) {
	c := &GoogleConnection{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, google_email, access_token, refresh_token, token_expires_at, scopes
		 FROM google_connections WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.UserID, &c.GoogleEmail, &c.AccessToken, &c.RefreshToken, &c.TokenExpiresAt, &c.Scopes)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get google connection %s: %w", id, err)
	}
	return c, nil
}

// UpdateGoogleTokens persists a refreshed access token.
func (s *Store) UpdateGoogleTokens(ctx context.Context, id, accessToken string, expiresAt *time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE google_connections
		 SET access_token = $1, token_expires_at = COALESCE($2, token_expires_at), updated_at = now()
		 WHERE id = $3`,
		accessToken, expiresAt, id,
	)
	if err != nil {
		return fmt.Errorf("update google tokens: %w", err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
