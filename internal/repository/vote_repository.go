package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

// VoteRepository applies votes and keeps the idea's denormalised tallies in the same transaction.
type VoteRepository struct {
	db *sqlx.DB
}

func NewVoteRepository(db *sqlx.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

const recountVotes = `UPDATE ideas SET upvotes = s.up, downvotes = s.down, vote_count = s.up - s.down, updated_at = $2
FROM (SELECT COUNT(*) FILTER (WHERE vote_type = 'UP') AS up, COUNT(*) FILTER (WHERE vote_type = 'DOWN') AS down FROM votes WHERE idea_id = $1) s
WHERE ideas.id = $1
RETURNING ideas.id AS idea_id, ideas.upvotes, ideas.downvotes, ideas.upvotes + ideas.downvotes AS total_votes, ideas.vote_count AS net_score`

// Cast toggles the caller's vote: none adds, same type removes, other type switches.
// The idea row is locked for the duration so concurrent casts on one idea serialise.
// A missing or inactive idea yields sql.ErrNoRows.
func (r *VoteRepository) Cast(ctx context.Context, ideaID, userID string, voteType models.VoteType) (*models.VoteOutcome, error) {
	outcome := &models.VoteOutcome{}
	err := withTx(ctx, r.db, "cast vote", func(tx *sqlx.Tx) error {
		if err := lockIdea(ctx, tx, ideaID); err != nil {
			return err
		}

		now := time.Now().UTC()
		var existing models.Vote
		err := tx.GetContext(ctx, &existing, `SELECT id, idea_id, user_id, vote_type, created_at, updated_at FROM votes WHERE idea_id = $1 AND user_id = $2`, ideaID, userID)
		switch {
		case err == sql.ErrNoRows:
			vote := &models.Vote{ID: uuid.NewString(), IdeaID: ideaID, UserID: userID, VoteType: voteType, CreatedAt: now, UpdatedAt: now}
			if _, err := tx.NamedExecContext(ctx, `INSERT INTO votes (id, idea_id, user_id, vote_type, created_at, updated_at) VALUES (:id, :idea_id, :user_id, :vote_type, :created_at, :updated_at)`, vote); err != nil {
				return fmt.Errorf("insert vote: %w", err)
			}
			outcome.Result = models.VoteAdded
			outcome.Vote = vote
		case err != nil:
			return fmt.Errorf("find vote: %w", err)
		case existing.VoteType == voteType:
			if _, err := tx.ExecContext(ctx, `DELETE FROM votes WHERE id = $1`, existing.ID); err != nil {
				return fmt.Errorf("delete vote: %w", err)
			}
			outcome.Result = models.VoteRemoved
		default:
			if _, err := tx.ExecContext(ctx, `UPDATE votes SET vote_type = $2, updated_at = $3 WHERE id = $1`, existing.ID, voteType, now); err != nil {
				return fmt.Errorf("switch vote: %w", err)
			}
			existing.VoteType = voteType
			existing.UpdatedAt = now
			outcome.Result = models.VoteChanged
			outcome.Vote = &existing
		}

		return tx.GetContext(ctx, &outcome.Stats, recountVotes, ideaID, now)
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// Remove deletes userID's vote on ideaID. It returns sql.ErrNoRows when there is none.
func (r *VoteRepository) Remove(ctx context.Context, ideaID, userID string) (*models.VoteStats, error) {
	var stats models.VoteStats
	err := withTx(ctx, r.db, "remove vote", func(tx *sqlx.Tx) error {
		if err := lockIdea(ctx, tx, ideaID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM votes WHERE idea_id = $1 AND user_id = $2`, ideaID, userID)
		if err != nil {
			return fmt.Errorf("delete vote: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sql.ErrNoRows
		}
		return tx.GetContext(ctx, &stats, recountVotes, ideaID, time.Now().UTC())
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func lockIdea(ctx context.Context, tx *sqlx.Tx, ideaID string) error {
	var id string
	if err := tx.GetContext(ctx, &id, `SELECT id FROM ideas WHERE id = $1 AND is_active = TRUE FOR UPDATE`, ideaID); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("lock idea: %w", err)
	}
	return nil
}

func (r *VoteRepository) FindByUserAndIdea(ctx context.Context, ideaID, userID string) (*models.Vote, error) {
	var vote models.Vote
	if err := r.db.GetContext(ctx, &vote, `SELECT id, idea_id, user_id, vote_type, created_at, updated_at FROM votes WHERE idea_id = $1 AND user_id = $2`, ideaID, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find vote: %w", err)
	}
	return &vote, nil
}

// Stats reads the tally from the idea row.
func (r *VoteRepository) Stats(ctx context.Context, ideaID string) (*models.VoteStats, error) {
	const query = `SELECT id AS idea_id, upvotes, downvotes, upvotes + downvotes AS total_votes, vote_count AS net_score FROM ideas WHERE id = $1`
	var stats models.VoteStats
	if err := r.db.GetContext(ctx, &stats, query, ideaID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("vote stats: %w", err)
	}
	return &stats, nil
}

func (r *VoteRepository) CountAll(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM votes`); err != nil {
		return 0, fmt.Errorf("count votes: %w", err)
	}
	return total, nil
}
