// Package relationship implements the Relationship and PendingInvitation
// repositories using PostgreSQL. Most queries are fixed-shape hand-written
// SQL; the categorized listing (tutors/students/pending-in/pending-out/
// outstanding invitations, all for one viewer) varies by how many branches
// apply, so it is built with squirrel and unioned in one round trip.
package relationship

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/tandemly/srscore/internal/adapter/postgres"
	"github.com/tandemly/srscore/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides Relationship and PendingInvitation persistence backed by
// PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new relationship repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Relationship operations
// ---------------------------------------------------------------------------

const relationshipColumns = `id, tutor_id, student_id, requester_id, status, created_at, removed_at`

const createRelationshipSQL = `
INSERT INTO relationships (id, tutor_id, student_id, requester_id, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + relationshipColumns

const getRelationshipByIDSQL = `SELECT ` + relationshipColumns + ` FROM relationships WHERE id = $1`

// getNonRemovedBetweenSQL enforces the spec's "at most one non-removed
// Relationship per unordered pair" invariant at the read side, matching the
// DB's own partial unique index on the lexicographically-ordered pair.
const getNonRemovedBetweenSQL = `
SELECT ` + relationshipColumns + `
FROM relationships
WHERE status != 'REMOVED'
  AND ((tutor_id = $1 AND student_id = $2) OR (tutor_id = $2 AND student_id = $1))`

const updateRelationshipStatusSQL = `
UPDATE relationships
SET status = $2, removed_at = $3
WHERE id = $1
RETURNING ` + relationshipColumns

// CreateRelationship inserts a new Relationship.
func (r *Repo) CreateRelationship(ctx context.Context, rel *domain.Relationship) (*domain.Relationship, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, createRelationshipSQL,
		rel.ID, rel.TutorID, rel.StudentID, rel.RequesterID, string(rel.Status), rel.CreatedAt,
	)
	created, err := scanRelationship(row)
	if err != nil {
		return nil, mapError(err, "relationship", rel.ID)
	}
	return created, nil
}

// GetRelationshipByID returns a Relationship by primary key.
func (r *Repo) GetRelationshipByID(ctx context.Context, id uuid.UUID) (*domain.Relationship, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rel, err := scanRelationship(querier.QueryRow(ctx, getRelationshipByIDSQL, id))
	if err != nil {
		return nil, mapError(err, "relationship", id)
	}
	return rel, nil
}

// GetNonRemovedBetween returns the non-removed Relationship (pending or
// active) between two users, regardless of which is tutor or student.
// Returns domain.ErrNotFound if no such relationship exists.
func (r *Repo) GetNonRemovedBetween(ctx context.Context, userA, userB uuid.UUID) (*domain.Relationship, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rel, err := scanRelationship(querier.QueryRow(ctx, getNonRemovedBetweenSQL, userA, userB))
	if err != nil {
		return nil, mapError(err, "relationship", uuid.Nil)
	}
	return rel, nil
}

// UpdateRelationshipStatus transitions a Relationship's status, stamping
// removedAt when transitioning to REMOVED (nil otherwise).
func (r *Repo) UpdateRelationshipStatus(ctx context.Context, id uuid.UUID, status domain.RelationshipStatus, removedAt *time.Time) (*domain.Relationship, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rel, err := scanRelationship(querier.QueryRow(ctx, updateRelationshipStatusSQL, id, string(status), removedAt))
	if err != nil {
		return nil, mapError(err, "relationship", id)
	}
	return rel, nil
}

// ---------------------------------------------------------------------------
// PendingInvitation operations
// ---------------------------------------------------------------------------

const invitationColumns = `id, inviter_id, inviter_role, invitee_email, status, created_at, expires_at, result_relationship_id`

const createInvitationSQL = `
INSERT INTO pending_invitations (id, inviter_id, inviter_role, invitee_email, status, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + invitationColumns

const getInvitationByIDSQL = `SELECT ` + invitationColumns + ` FROM pending_invitations WHERE id = $1`

const getPendingInvitationSQL = `
SELECT ` + invitationColumns + `
FROM pending_invitations
WHERE inviter_id = $1 AND invitee_email = $2 AND inviter_role = $3 AND status = 'PENDING'`

const listPendingByEmailSQL = `
SELECT ` + invitationColumns + `
FROM pending_invitations
WHERE invitee_email = $1 AND status = 'PENDING' AND expires_at > $2`

const updateInvitationStatusSQL = `
UPDATE pending_invitations
SET status = $2, result_relationship_id = $3
WHERE id = $1`

// CreateInvitation inserts a new PendingInvitation.
func (r *Repo) CreateInvitation(ctx context.Context, inv *domain.PendingInvitation) (*domain.PendingInvitation, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, createInvitationSQL,
		inv.ID, inv.InviterID, string(inv.InviterRole), inv.InviteeEmail, string(inv.Status), inv.CreatedAt, inv.ExpiresAt,
	)
	created, err := scanInvitation(row)
	if err != nil {
		return nil, mapError(err, "pending_invitation", inv.ID)
	}
	return created, nil
}

// GetInvitationByID returns a PendingInvitation by primary key.
func (r *Repo) GetInvitationByID(ctx context.Context, id uuid.UUID) (*domain.PendingInvitation, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	inv, err := scanInvitation(querier.QueryRow(ctx, getInvitationByIDSQL, id))
	if err != nil {
		return nil, mapError(err, "pending_invitation", id)
	}
	return inv, nil
}

// GetPendingInvitation returns the pending invitation matching an exact
// (inviter, email, role) tuple, for requestRelationship's idempotency
// check. Returns domain.ErrNotFound if none matches.
func (r *Repo) GetPendingInvitation(ctx context.Context, inviterID uuid.UUID, email string, role domain.RelationshipRole) (*domain.PendingInvitation, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	inv, err := scanInvitation(querier.QueryRow(ctx, getPendingInvitationSQL, inviterID, email, string(role)))
	if err != nil {
		return nil, mapError(err, "pending_invitation", uuid.Nil)
	}
	return inv, nil
}

// ListPendingByEmail returns every unexpired pending invitation addressed
// to email, for processPendingInvitationsOnSignUp's bootstrap scan.
func (r *Repo) ListPendingByEmail(ctx context.Context, email string, now time.Time) ([]domain.PendingInvitation, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listPendingByEmailSQL, email, now)
	if err != nil {
		return nil, fmt.Errorf("list pending invitations by email: %w", err)
	}
	defer rows.Close()

	invitations := []domain.PendingInvitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invitations, nil
}

// UpdateInvitationStatus transitions a PendingInvitation's status, setting
// resultRelationshipID when promoting (nil for cancellation/expiry).
func (r *Repo) UpdateInvitationStatus(ctx context.Context, id uuid.UUID, status domain.InvitationStatus, resultRelationshipID *uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, updateInvitationStatusSQL, id, string(status), resultRelationshipID); err != nil {
		return mapError(err, "pending_invitation", id)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Categorized listing
// ---------------------------------------------------------------------------

// ListCategorized returns every relationship and outstanding invitation
// touching userID in one round trip: active relationships split by which
// side userID occupies, pending relationships split by who sent the
// request, and invitations userID sent to not-yet-registered emails. The
// five branches are built independently with squirrel (their predicates
// differ) and combined with UNION ALL over a shared column shape.
func (r *Repo) ListCategorized(ctx context.Context, userID uuid.UUID, now time.Time) ([]domain.CategorizedRelationship, error) {
	relCols := []string{
		"id", "tutor_id", "student_id", "requester_id",
		"status", "created_at", "removed_at", "NULL::text AS invitee_email",
	}

	asTutor := branchSQL(psql.Select(withCategory(relCols, string(domain.RelationshipCategoryStudent))...).
		From("relationships").
		Where(sq.Eq{"tutor_id": userID, "status": string(domain.RelationshipStatusActive)}))

	asStudent := branchSQL(psql.Select(withCategory(relCols, string(domain.RelationshipCategoryTutor))...).
		From("relationships").
		Where(sq.Eq{"student_id": userID, "status": string(domain.RelationshipStatusActive)}))

	pendingIncoming := branchSQL(psql.Select(withCategory(relCols, string(domain.RelationshipCategoryPendingIncoming))...).
		From("relationships").
		Where(sq.Eq{"status": string(domain.RelationshipStatusPending)}).
		Where(sq.Or{sq.Eq{"tutor_id": userID}, sq.Eq{"student_id": userID}}).
		Where(sq.NotEq{"requester_id": userID}))

	pendingOutgoing := branchSQL(psql.Select(withCategory(relCols, string(domain.RelationshipCategoryPendingOutgoing))...).
		From("relationships").
		Where(sq.Eq{"status": string(domain.RelationshipStatusPending), "requester_id": userID}))

	invitationsSent := branchSQL(psql.Select(
		fmt.Sprintf("'%s' AS category", domain.RelationshipCategoryInvitationSent),
		"id", "inviter_id AS tutor_id", "NULL::uuid AS student_id", "inviter_id AS requester_id",
		"status", "created_at", "NULL::timestamptz AS removed_at", "invitee_email",
	).From("pending_invitations").
		Where(sq.Eq{"inviter_id": userID, "status": string(domain.InvitationStatusPending)}).
		Where(sq.Gt{"expires_at": now}))

	branches := []sqlBranch{asTutor, asStudent, pendingIncoming, pendingOutgoing, invitationsSent}

	var (
		queryParts []string
		args       []any
	)
	for _, b := range branches {
		if b.err != nil {
			return nil, fmt.Errorf("build categorized-relationships query: %w", b.err)
		}
		queryParts = append(queryParts, b.sql)
		args = append(args, b.args...)
	}
	fullQuery := queryParts[0]
	for _, part := range queryParts[1:] {
		fullQuery += " UNION ALL " + part
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)
	rows, err := querier.Query(ctx, fullQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("query categorized relationships: %w", err)
	}
	defer rows.Close()

	return scanCategorizedRows(rows)
}

type sqlBranch struct {
	sql  string
	args []any
	err  error
}

func branchSQL(builder sq.SelectBuilder) sqlBranch {
	queryStr, args, err := builder.ToSql()
	return sqlBranch{sql: queryStr, args: args, err: err}
}

func withCategory(cols []string, category string) []string {
	out := make([]string, 0, len(cols)+1)
	out = append(out, fmt.Sprintf("'%s' AS category", category))
	out = append(out, cols...)
	return out
}

func scanCategorizedRows(rows pgx.Rows) ([]domain.CategorizedRelationship, error) {
	results := []domain.CategorizedRelationship{}
	for rows.Next() {
		var (
			category     string
			id           uuid.UUID
			tutorID      uuid.UUID
			studentID    *uuid.UUID
			requesterID  uuid.UUID
			status       string
			createdAt    time.Time
			removedAt    *time.Time
			inviteeEmail *string
		)
		if err := rows.Scan(&category, &id, &tutorID, &studentID, &requesterID, &status, &createdAt, &removedAt, &inviteeEmail); err != nil {
			return nil, err
		}

		row := domain.CategorizedRelationship{Category: domain.RelationshipCategory(category)}
		if row.Category == domain.RelationshipCategoryInvitationSent {
			row.Invitation = &domain.PendingInvitation{
				ID:          id,
				InviterID:   tutorID,
				InviterRole: domain.RelationshipRoleTutor,
				Status:      domain.InvitationStatus(status),
				CreatedAt:   createdAt,
			}
			if inviteeEmail != nil {
				row.Invitation.InviteeEmail = *inviteeEmail
			}
		} else {
			rel := &domain.Relationship{
				ID:          id,
				TutorID:     tutorID,
				RequesterID: requesterID,
				Status:      domain.RelationshipStatus(status),
				CreatedAt:   createdAt,
				RemovedAt:   removedAt,
			}
			if studentID != nil {
				rel.StudentID = *studentID
			}
			row.Relationship = rel
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// ---------------------------------------------------------------------------
// Row scanning and error mapping
// ---------------------------------------------------------------------------

func scanRelationship(row pgx.Row) (*domain.Relationship, error) {
	var (
		rel    domain.Relationship
		status string
	)
	if err := row.Scan(&rel.ID, &rel.TutorID, &rel.StudentID, &rel.RequesterID, &status, &rel.CreatedAt, &rel.RemovedAt); err != nil {
		return nil, err
	}
	rel.Status = domain.RelationshipStatus(status)
	return &rel, nil
}

func scanInvitation(row pgx.Row) (*domain.PendingInvitation, error) {
	var (
		inv    domain.PendingInvitation
		role   string
		status string
	)
	if err := row.Scan(&inv.ID, &inv.InviterID, &role, &inv.InviteeEmail, &status, &inv.CreatedAt, &inv.ExpiresAt, &inv.ResultRelationshipID); err != nil {
		return nil, err
	}
	inv.InviterRole = domain.RelationshipRole(role)
	inv.Status = domain.InvitationStatus(status)
	return &inv, nil
}

func mapError(err error, entity string, id uuid.UUID) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, id, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrAlreadyExists)
		case "23503":
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
		case "23514":
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrValidation)
		}
	}

	return fmt.Errorf("%s %s: %w", entity, id, err)
}
