package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/abnp-academy/campaign-dispatch/internal/campaign"
)

// ErrNoCampaign is returned by GetCampaign when the id matches no row.
var ErrNoCampaign = errors.New("campaign not found")

type Store struct {
	DB *sql.DB
}

func New(db *sql.DB) *Store { return &Store{DB: db} }

func (s *Store) GetCampaign(ctx context.Context, id string) (campaign.Campaign, error) {
	var c campaign.Campaign
	var status string
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, title, subject, content, COALESCE(template,''),
		       COALESCE(target_audience,'{}'), COALESCE(status,'draft'),
		       scheduled_at, sent_at,
		       COALESCE(sent_count,0), COALESCE(open_count,0), COALESCE(click_count,0),
		       created_by, created_at, updated_at
		FROM campaigns
		WHERE id = $1
	`, id).Scan(
		&c.ID, &c.Title, &c.Subject, &c.Content, &c.Template,
		&c.TargetAudience, &status,
		&c.ScheduledAt, &c.SentAt,
		&c.SentCount, &c.OpenCount, &c.ClickCount,
		&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return campaign.Campaign{}, ErrNoCampaign
	}
	if err != nil {
		return campaign.Campaign{}, err
	}
	c.Status = campaign.Status(status)
	return c, nil
}

// BeginSending moves a campaign from draft to sending in a single
// conditional write. It reports false when the campaign was not in draft,
// which is how concurrent dispatchers lose the race.
func (s *Store) BeginSending(ctx context.Context, id string) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE campaigns
		   SET status='sending', updated_at=NOW()
		 WHERE id=$1 AND status='draft'
	`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *Store) FinishSending(ctx context.Context, id string, sentCount int, at time.Time) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE campaigns
		   SET status='sent', sent_at=$1, sent_count=$2, updated_at=NOW()
		 WHERE id=$3 AND status='sending'
	`, at, sentCount, id)
	return err
}

// ReturnToDraft compensates a failed recipient resolution so the campaign
// is not stranded in sending.
func (s *Store) ReturnToDraft(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE campaigns
		   SET status='draft', updated_at=NOW()
		 WHERE id=$1 AND status='sending'
	`, id)
	return err
}

func (s *Store) MarkCancelled(ctx context.Context, id string, sentCount int, at time.Time) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE campaigns
		   SET status='cancelled', sent_at=$1, sent_count=$2, updated_at=NOW()
		 WHERE id=$3 AND status='sending'
	`, at, sentCount, id)
	return err
}

// OptedInUserIDs lists user ids of profiles that enabled email notifications.
func (s *Store) OptedInUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT user_id
		FROM profiles
		WHERE email_notifications = TRUE
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type AccountEmail struct {
	UserID string
	Email  string
}

// ListAccountEmails streams every identity account that carries an email.
// The whole population comes back from one statement, so callers never
// deal with paging.
func (s *Store) ListAccountEmails(ctx context.Context) ([]AccountEmail, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, email
		FROM auth_users
		WHERE email IS NOT NULL AND email <> ''
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []AccountEmail
	for rows.Next() {
		var a AccountEmail
		if err := rows.Scan(&a.UserID, &a.Email); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
